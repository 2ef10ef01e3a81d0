package dataset

import (
	"strconv"
	"strings"
)

// ListResult is the document printed by `zfs list -j`.
type ListResult struct {
	OutputVersion struct {
		Command   string `json:"command"`
		VersMajor int    `json:"vers_major"`
		VersMinor int    `json:"vers_minor"`
	} `json:"output_version"`
	Datasets map[string]Dataset `json:"datasets"`
}

// Dataset represents a ZFS dataset (filesystem, volume or snapshot)
type Dataset struct {
	Name         string              `json:"name"`
	Type         string              `json:"type"` // FILESYSTEM, VOLUME, SNAPSHOT
	Pool         string              `json:"pool"`
	CreateTXG    string              `json:"createtxg"`
	Dataset      string              `json:"dataset,omitempty"`       // snapshots only
	SnapshotName string              `json:"snapshot_name,omitempty"` // snapshots only
	Properties   map[string]Property `json:"properties"`
}

// Property represents a dataset property
type Property struct {
	Value  any    `json:"value"`
	Source Source `json:"source"`
}

// Source indicates property value origin
type Source struct {
	Type string `json:"type"` // "local", "default", "inherited", etc.
	Data string `json:"data"` // Additional source info
}

// String returns property prop as text, or "" when absent.
func (d Dataset) String(prop string) string {
	p, ok := d.Properties[prop]
	if !ok || p.Value == nil {
		return ""
	}
	switch v := p.Value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

// Uint returns numeric property prop. Values are printed as strings unless
// --json-int is used; "-" and "none" read as zero.
func (d Dataset) Uint(prop string) uint64 {
	n, err := strconv.ParseUint(d.String(prop), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Kind is the lower-cased dataset type.
func (d Dataset) Kind() string {
	return strings.ToLower(d.Type)
}

// ListConfig selects what `zfs list` prints.
type ListConfig struct {
	Name       string
	Types      []string // filesystem, volume, snapshot
	Recursive  bool
	Depth      int
	Properties []string
}

// CreateConfig for filesystem creation
type CreateConfig struct {
	Name       string            `json:"name" binding:"required"`
	Properties map[string]string `json:"properties,omitempty"`
	Parents    bool              `json:"parents"`
}
