// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package topology

import (
	"fmt"
	"net/url"
)

// PoolKind selects the report flavour.
type PoolKind int

const (
	DataPool PoolKind = iota
	BootPool
)

// Profile holds what differs between data pool and boot pool reports: the
// ID seeding and the URL templates behind the action links.
type Profile struct {
	Kind    PoolKind
	APIBase string
}

func DataPoolProfile(apiBase string) Profile {
	return Profile{Kind: DataPool, APIBase: apiBase}
}

func BootPoolProfile(apiBase string) Profile {
	return Profile{Kind: BootPool, APIBase: apiBase}
}

// BootPoolID is the fixed document ID of the boot pool report.
const BootPoolID = 1

// rootID is the ID of the top-level document.
func (p Profile) rootID(ref PoolRef) int64 {
	if p.Kind == BootPool {
		return BootPoolID
	}
	return ref.ID
}

// idStart seeds the per-report IDSource.
func (p Profile) idStart(ref PoolRef) int64 {
	if p.Kind == BootPool {
		return BootPoolID
	}
	return ref.ID * 100
}

func (p Profile) DiskURL(diskID int64) string {
	return fmt.Sprintf("%s/disks/%d?deletable=false", p.APIBase, diskID)
}

// deviceURL links a device action. Boot pool devices are addressed through
// the boot environment routes since the boot pool is never registered.
func (p Profile) deviceURL(pool, label, action string) string {
	if p.Kind == BootPool {
		return fmt.Sprintf("%s/bootenv/pool/%s/%s", p.APIBase, action, url.PathEscape(label))
	}
	return fmt.Sprintf("%s/pools/%s/disks/%s/%s",
		p.APIBase, url.PathEscape(pool), url.PathEscape(label), action)
}

func (p Profile) renderDevice(doc *StatusNode, pool, label string) {
	a := doc.Actions
	if a.Has(ActionOffline) {
		doc.OfflineURL = p.deviceURL(pool, label, "offline")
	}
	if a.Has(ActionDetach) {
		doc.DetachURL = p.deviceURL(pool, label, "detach")
	}
	if a.Has(ActionRemove) {
		doc.RemoveURL = p.deviceURL(pool, label, "remove")
	}
	if a.Has(ActionReplace) {
		doc.ReplaceURL = p.deviceURL(pool, label, "replace")
	}
}

func (p Profile) renderGroup(doc *StatusNode, pool, name, firstChild string) {
	a := doc.Actions
	if a.Has(ActionRemove) {
		doc.RemoveURL = p.deviceURL(pool, name, "remove")
	}
	if a.Has(ActionAttach) {
		doc.AttachURL = fmt.Sprintf("%s/bootenv/pool/attach?label=%s",
			p.APIBase, url.QueryEscape(firstChild))
	}
}
