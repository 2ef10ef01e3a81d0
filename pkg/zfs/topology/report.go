// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package topology

import (
	"context"
	"encoding/json"

	"github.com/stratastor/burrow/pkg/errors"
	"github.com/stratastor/logger"
)

// NodeType is the "type" field of a status document node.
type NodeType string

const (
	NodeRoot NodeType = "root"
	NodeVdev NodeType = "vdev"
	NodeDev  NodeType = "dev"
)

// StatusNode is one node of the rendered status document. Root and vdev
// nodes always serialize a children array, devices never do.
type StatusNode struct {
	ID       int64
	Name     string
	Label    string
	Type     NodeType
	Status   string
	Read     uint64
	Write    uint64
	Cksum    uint64
	Children []*StatusNode

	DiskURL    string
	OfflineURL string
	DetachURL  string
	ReplaceURL string
	RemoveURL  string
	AttachURL  string

	Actions Actions
	DiskID  int64
}

type statusJSON struct {
	ID         int64          `json:"id"`
	Name       string         `json:"name"`
	Label      string         `json:"label,omitempty"`
	Type       NodeType       `json:"type,omitempty"`
	Status     string         `json:"status,omitempty"`
	Read       uint64         `json:"read"`
	Write      uint64         `json:"write"`
	Cksum      uint64         `json:"cksum"`
	Children   *[]*StatusNode `json:"children,omitempty"`
	DiskURL    string         `json:"_disk_url,omitempty"`
	OfflineURL string         `json:"_offline_url,omitempty"`
	DetachURL  string         `json:"_detach_url,omitempty"`
	ReplaceURL string         `json:"_replace_url,omitempty"`
	RemoveURL  string         `json:"_remove_url,omitempty"`
	AttachURL  string         `json:"_attach_url,omitempty"`
}

func (n *StatusNode) MarshalJSON() ([]byte, error) {
	out := statusJSON{
		ID:         n.ID,
		Name:       n.Name,
		Label:      n.Label,
		Type:       n.Type,
		Status:     n.Status,
		Read:       n.Read,
		Write:      n.Write,
		Cksum:      n.Cksum,
		DiskURL:    n.DiskURL,
		OfflineURL: n.OfflineURL,
		DetachURL:  n.DetachURL,
		ReplaceURL: n.ReplaceURL,
		RemoveURL:  n.RemoveURL,
		AttachURL:  n.AttachURL,
	}
	if n.Type != NodeDev {
		children := n.Children
		if children == nil {
			children = []*StatusNode{}
		}
		out.Children = &children
	}
	return json.Marshal(out)
}

func newContainerDoc(t NodeType, name, status string, c Counters) *StatusNode {
	return &StatusNode{
		Name:     name,
		Type:     t,
		Status:   status,
		Read:     c.ReadErrors,
		Write:    c.WriteErrors,
		Cksum:    c.ChecksumErrors,
		Children: []*StatusNode{},
	}
}

// fold merges the data root's rendering into the top-level document. The
// top document keeps its own ID and any children already attached.
func (n *StatusNode) fold(root *StatusNode) {
	n.Name = root.Name
	n.Type = root.Type
	n.Status = root.Status
	n.Read = root.Read
	n.Write = root.Write
	n.Cksum = root.Cksum
}

// Count returns the number of nodes below n.
func (n *StatusNode) Count() int {
	total := 0
	for _, c := range n.Children {
		total += 1 + c.Count()
	}
	return total
}

// PoolRef identifies the pool being reported on.
type PoolRef struct {
	ID   int64
	Name string
}

// Describer is the storage backend as seen by the reporter.
type Describer interface {
	Describe(ctx context.Context, pool string) (*PoolDescription, error)
}

// Reporter builds pool status documents. One Reporter serves either data
// pools or the boot pool, depending on its profile.
type Reporter struct {
	backend   Describer
	decorator *Decorator
	profile   Profile
	logger    logger.Logger
}

func NewReporter(backend Describer, disks DiskResolver, profile Profile, l logger.Logger) *Reporter {
	return &Reporter{
		backend:   backend,
		decorator: NewDecorator(disks, profile),
		profile:   profile,
		logger:    l,
	}
}

// Generate renders the status document for ref. On a walk failure the
// partially built document is returned alongside the error; callers must
// not serve it.
func (r *Reporter) Generate(ctx context.Context, ref PoolRef) (*StatusNode, error) {
	desc, err := r.backend.Describe(ctx, ref.Name)
	if err != nil {
		return nil, err
	}
	if desc == nil {
		return nil, errors.New(errors.TopologyParse, "backend returned no description").
			WithMetadata("pool", ref.Name)
	}

	top := &StatusNode{
		ID:       r.profile.rootID(ref),
		Name:     ref.Name,
		Children: []*StatusNode{},
	}
	if desc.Data != nil {
		top.Read = desc.Data.ReadErrors
		top.Write = desc.Data.WriteErrors
		top.Cksum = desc.Data.ChecksumErrors
	}

	ids := NewIDSource(r.profile.idStart(ref))
	walker := NewWalker(r.decorator, ref.Name)

	for _, category := range Categories {
		root := desc.Root(category)
		if root == nil {
			continue
		}
		if err := walker.Walk(ctx, category, root, top, ids); err != nil {
			r.logger.Error("Failed to render pool status",
				"pool", ref.Name, "category", category, "err", err)
			return top, err
		}
	}

	r.logger.Debug("Rendered pool status", "pool", ref.Name, "nodes", top.Count())
	return top, nil
}
