// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package pool

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/stratastor/burrow/pkg/zfs/topology"
)

// leaf vdev types
var leafTypes = map[string]bool{
	"disk": true,
	"file": true,
}

// toDescription converts one pool of `zpool status -j` into the topology
// model. Lone disks directly under a category root are gathered into a
// "stripe" group so that every device sits in a group.
func toDescription(p Pool) *topology.PoolDescription {
	desc := &topology.PoolDescription{
		Name:   p.Name,
		Status: p.State,
	}

	if len(p.VDevs) > 0 {
		data := p.VDevs[0]
		desc.Data = &topology.RootNode{
			Name:     p.Name,
			Status:   data.State,
			Counters: counters(data),
			Children: convertGroups(data.VDevs, topology.CategoryData),
		}
	}
	desc.Logs = auxRoot(topology.CategoryLogs, p.Logs)
	desc.Cache = auxRoot(topology.CategoryCache, p.L2Cache)
	desc.Spares = auxRoot(topology.CategorySpares, p.Spares)
	return desc
}

func auxRoot(c topology.Category, vdevs VDevMap) *topology.RootNode {
	if len(vdevs) == 0 {
		return nil
	}
	return &topology.RootNode{
		Name:     string(c),
		Children: convertGroups(vdevs, c),
	}
}

// convertGroups turns the children of a category root into groups.
func convertGroups(vdevs VDevMap, c topology.Category) []topology.PoolNode {
	var (
		out    []topology.PoolNode
		stripe *topology.GroupNode
	)
	for _, v := range vdevs {
		if leafTypes[v.VDevType] {
			if stripe == nil {
				stripe = &topology.GroupNode{
					Name:     "stripe",
					Status:   "ONLINE",
					Category: c,
				}
				out = append(out, stripe)
			}
			stripe.Children = append(stripe.Children, convertDevice(v, false))
			stripe.ReadErrors += uint64(v.ReadErrors)
			stripe.WriteErrors += uint64(v.WriteErrors)
			stripe.ChecksumErrors += uint64(v.ChecksumErrors)
			if stripe.Status == "ONLINE" && v.State != "ONLINE" && v.State != "AVAIL" {
				stripe.Status = v.State
			}
			continue
		}
		out = append(out, convertGroup(v, c, false))
	}
	return out
}

func convertGroup(v VDev, c topology.Category, replacing bool) *topology.GroupNode {
	g := &topology.GroupNode{
		Name:     v.Name,
		Status:   v.State,
		Counters: counters(v),
		Category: c,
	}
	replacing = replacing || v.VDevType == "replacing"
	for _, child := range v.VDevs {
		if leafTypes[child.VDevType] || len(child.VDevs) == 0 {
			g.Children = append(g.Children, convertDevice(child, replacing))
			continue
		}
		g.Children = append(g.Children, convertGroup(child, c, replacing))
	}
	return g
}

func convertDevice(v VDev, replacing bool) *topology.DeviceNode {
	return &topology.DeviceNode{
		DeviceName: deviceName(v),
		Label:      v.Name,
		Status:     v.State,
		Counters:   counters(v),
		Disk:       DiskName(v.Path, v.Name),
		Replacing:  replacing,
	}
}

func counters(v VDev) topology.Counters {
	return topology.Counters{
		ReadErrors:     uint64(v.ReadErrors),
		WriteErrors:    uint64(v.WriteErrors),
		ChecksumErrors: uint64(v.ChecksumErrors),
	}
}

// deviceName is the node name shown to clients: the device path without
// /dev/, or the vdev name for devices that have no path (removed disks).
func deviceName(v VDev) string {
	if v.Path == "" {
		return v.Name
	}
	return strings.TrimPrefix(v.Path, "/dev/")
}

var (
	partSuffix      = regexp.MustCompile(`-part\d+$`)
	numberedPart    = regexp.MustCompile(`^(.*\d)p\d+$`)                    // nvme0n1p1, ada0p2, mmcblk0p1
	letteredPart    = regexp.MustCompile(`^((?:s|v|xv|h)d[a-z]+)\d+$`)      // sda1, vdb2
	multipathMember = regexp.MustCompile(`^(?:multipath|mapper)/([^/]+?)$`) // multipath/disk1, mapper/mpatha
)

// DiskName derives the inventory name of the disk backing a device from
// its path (or vdev name when the path is unknown). Partition suffixes are
// stripped and multipath nodes map onto "multipath/<name>".
func DiskName(path, name string) string {
	dev := path
	if dev == "" {
		dev = name
	}
	dev = strings.TrimPrefix(dev, "/dev/")
	if dev == "" {
		return ""
	}

	if m := multipathMember.FindStringSubmatch(dev); m != nil {
		return "multipath/" + stripPartition(m[1])
	}
	if strings.HasPrefix(dev, "disk/by-") {
		return stripPartition(filepath.Base(dev))
	}
	return stripPartition(dev)
}

func stripPartition(dev string) string {
	if partSuffix.MatchString(dev) {
		return partSuffix.ReplaceAllString(dev, "")
	}
	if m := numberedPart.FindStringSubmatch(dev); m != nil {
		return m[1]
	}
	if m := letteredPart.FindStringSubmatch(dev); m != nil {
		return m[1]
	}
	return dev
}
