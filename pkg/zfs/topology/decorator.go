// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package topology

import (
	"context"
	"strings"
)

// Actions is the set of lifecycle operations valid for a node.
type Actions uint8

const (
	ActionOffline Actions = 1 << iota
	ActionDetach
	ActionRemove
	ActionReplace
	ActionAttach
)

// Has reports whether every action in x is set.
func (a Actions) Has(x Actions) bool {
	return a&x == x
}

func (a Actions) String() string {
	var parts []string
	for _, p := range []struct {
		a    Actions
		name string
	}{
		{ActionOffline, "offline"},
		{ActionDetach, "detach"},
		{ActionRemove, "remove"},
		{ActionReplace, "replace"},
		{ActionAttach, "attach"},
	} {
		if a.Has(p.a) {
			parts = append(parts, p.name)
		}
	}
	return strings.Join(parts, "|")
}

// DeviceContext is the position of a device in the tree. The walker
// computes it from the frame; nothing is inferred from the device itself.
type DeviceContext struct {
	Category  Category
	GroupName string
	// GroupParentIsRoot is set when the device's group hangs directly off
	// its category root.
	GroupParentIsRoot bool
	Replacing         bool
}

const stripePrefix = "stripe"

// DeviceActions returns the actions valid for a device at ctx.
//
// Replace is always offered: a replacement can go wrong and leave several
// UNAVAIL members under a replacing group, and each must stay replaceable.
func DeviceActions(dev *DeviceNode, ctx DeviceContext) Actions {
	a := ActionReplace

	if dev.Status == "ONLINE" {
		a |= ActionOffline
	}
	if ctx.Replacing {
		a |= ActionDetach
	}
	if ctx.GroupParentIsRoot && ctx.Category.auxiliary() {
		if strings.HasPrefix(ctx.GroupName, stripePrefix) {
			a |= ActionRemove
		} else {
			a |= ActionDetach
		}
	}
	return a
}

// GroupActions returns the group-level actions for g. parentIsRoot is set
// when g hangs directly off its category root.
func GroupActions(g *GroupNode, parentIsRoot bool, kind PoolKind) Actions {
	var a Actions
	switch kind {
	case DataPool:
		if parentIsRoot && g.Category == CategoryLogs && !strings.HasPrefix(g.Name, stripePrefix) {
			a |= ActionRemove
		}
	case BootPool:
		if (g.Name == stripePrefix || strings.HasPrefix(g.Name, "mirror")) && len(g.Children) > 0 {
			a |= ActionAttach
		}
	}
	return a
}

// DiskResolver maps a device's backing disk name onto an inventory entry.
// found is false for ghost devices.
type DiskResolver interface {
	ResolveDisk(ctx context.Context, name string) (id int64, found bool, err error)
}

// Decorator attaches backing disk references and action links.
type Decorator struct {
	disks   DiskResolver
	profile Profile
}

func NewDecorator(disks DiskResolver, profile Profile) *Decorator {
	return &Decorator{disks: disks, profile: profile}
}

func (d *Decorator) decorateDevice(ctx context.Context, doc *StatusNode, pool string, dev *DeviceNode, dc DeviceContext) error {
	doc.Actions = DeviceActions(dev, dc)

	if d.disks != nil && dev.Disk != "" {
		id, found, err := d.disks.ResolveDisk(ctx, dev.Disk)
		if err != nil {
			return err
		}
		if found {
			doc.DiskID = id
			doc.DiskURL = d.profile.DiskURL(id)
		}
	}

	d.profile.renderDevice(doc, pool, dev.Label)
	return nil
}

func (d *Decorator) decorateGroup(doc *StatusNode, pool string, g *GroupNode, parentIsRoot bool) {
	doc.Actions = GroupActions(g, parentIsRoot, d.profile.Kind)
	d.profile.renderGroup(doc, pool, g.Name, firstChildLabel(g))
}

func firstChildLabel(g *GroupNode) string {
	if len(g.Children) == 0 {
		return ""
	}
	switch c := g.Children[0].(type) {
	case *DeviceNode:
		if c != nil {
			return c.Label
		}
	case *GroupNode:
		if c != nil {
			return c.Name
		}
	}
	return ""
}
