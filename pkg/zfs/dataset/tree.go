// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"path"
	"sort"
	"strings"

	"github.com/stratastor/burrow/pkg/zfs/topology"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Entry is one filesystem or volume in the nested mapping returned by
// Manager.Tree. Children are keyed by full path.
type Entry struct {
	Name       string // last path component
	Path       string
	Type       string // filesystem or volume
	Used       uint64
	Avail      uint64
	Refer      uint64
	Mountpoint string
	Children   map[string]*Entry
}

// UsedPct is used as a whole percentage of used+avail.
func (e *Entry) UsedPct() int {
	total := e.Used + e.Avail
	if total == 0 {
		return 0
	}
	return int(e.Used * 100 / total)
}

// DatasetNode is one row of the dataset listing.
type DatasetNode struct {
	ID         int64         `json:"id"`
	Name       string        `json:"name"`
	Path       string        `json:"path"`
	Type       string        `json:"type"` // dataset or zvol
	Status     string        `json:"status"`
	Mountpoint string        `json:"mountpoint,omitempty"`
	Avail      uint64        `json:"avail"`
	Used       uint64        `json:"used"`
	UsedPct    int           `json:"used_pct"`
	Children   []DatasetNode `json:"children,omitempty"`
}

// BuildTree renders children into listing rows. Entries whose name begins
// with hiddenPrefix are skipped with their subtree. Siblings are visited in
// name order and every row draws from the same ids, so a child's ID is
// always greater than its parent's.
func BuildTree(children map[string]*Entry, ids *topology.IDSource, hiddenPrefix string) []DatasetNode {
	entries := maps.Values(children)
	slices.SortFunc(entries, func(a, b *Entry) int {
		return strings.Compare(a.Name, b.Name)
	})

	rows := make([]DatasetNode, 0, len(entries))
	for _, e := range entries {
		if hiddenPrefix != "" && strings.HasPrefix(e.Name, hiddenPrefix) {
			continue
		}

		row := DatasetNode{
			ID:      ids.Next(),
			Name:    e.Name,
			Path:    e.Path,
			Type:    "zvol",
			Status:  "-",
			Avail:   e.Avail,
			Used:    e.Used,
			UsedPct: e.UsedPct(),
		}
		if e.Type == "filesystem" {
			row.Type = "dataset"
			row.Mountpoint = e.Mountpoint
		}
		if len(e.Children) > 0 {
			row.Children = BuildTree(e.Children, ids, hiddenPrefix)
		}
		rows = append(rows, row)
	}
	return rows
}

// nest turns the flat `zfs list -r` result into an Entry tree rooted at
// pool's root dataset.
func nest(pool string, datasets map[string]Dataset) *Entry {
	names := maps.Keys(datasets)
	sort.Strings(names)

	byPath := make(map[string]*Entry, len(names))
	root := &Entry{Name: pool, Path: pool, Type: "filesystem", Children: map[string]*Entry{}}
	byPath[pool] = root

	for _, name := range names {
		if name != pool && !strings.HasPrefix(name, pool+"/") {
			continue
		}
		ds := datasets[name]
		e := lookupEntry(byPath, name)
		e.Type = ds.Kind()
		e.Used = ds.Uint("used")
		e.Avail = ds.Uint("available")
		e.Refer = ds.Uint("referenced")
		if e.Type == "filesystem" {
			e.Mountpoint = ds.String("mountpoint")
		}
	}

	return root
}

// lookupEntry returns the entry for p, creating it and any missing
// ancestors below the pool root.
func lookupEntry(byPath map[string]*Entry, p string) *Entry {
	if e, ok := byPath[p]; ok {
		return e
	}
	parent := lookupEntry(byPath, path.Dir(p))
	e := &Entry{Name: path.Base(p), Path: p, Type: "filesystem"}
	if parent.Children == nil {
		parent.Children = map[string]*Entry{}
	}
	parent.Children[p] = e
	byPath[p] = e
	return e
}
