// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package disk

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/stratastor/burrow/internal/command"
	"github.com/stratastor/burrow/pkg/errors"
	"github.com/stratastor/logger"
)

const DefaultLsblkPath = "/usr/bin/lsblk"

// LsblkJSON represents the JSON output structure from lsblk
type LsblkJSON struct {
	BlockDevices []BlockDevice `json:"blockdevices"`
}

// BlockDevice represents a single block device from lsblk output
type BlockDevice struct {
	Name   string  `json:"name"`
	Path   string  `json:"path"`
	Type   string  `json:"type"`
	Size   uint64  `json:"size"`
	Vendor *string `json:"vendor"`
	Model  *string `json:"model"`
	Serial *string `json:"serial"`
	WWN    *string `json:"wwn"`
	Tran   *string `json:"tran"` // sata, sas, nvme, usb

	// Children holds partitions and device-mapper holders such as a
	// multipath node. Every path of a multipath LUN lists the same node.
	Children []BlockDevice `json:"children,omitempty"`
}

// ParseLsblkJSON parses lsblk JSON output
func ParseLsblkJSON(data []byte) ([]BlockDevice, error) {
	var lsblk LsblkJSON
	if err := json.Unmarshal(data, &lsblk); err != nil {
		return nil, errors.Wrap(err, errors.DiskInventoryFailed).
			WithMetadata("operation", "unmarshal_lsblk_json")
	}
	return lsblk.BlockDevices, nil
}

// IsPhysicalDisk reports whether bd is a whole disk and not a zvol.
func (bd *BlockDevice) IsPhysicalDisk() bool {
	return bd.Type == "disk" && !strings.HasPrefix(bd.Path, "/dev/zd")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// MultipathNode returns the name of the multipath device bd is a path of,
// or "" when bd is not part of one.
func (bd *BlockDevice) MultipathNode() string {
	for _, c := range bd.Children {
		if c.Type == "mpath" {
			return c.Name
		}
	}
	return ""
}

// Identifier is the stable key used to match a disk across renames:
// serial when known, otherwise the device name. The paths of a multipath
// LUN share a serial, so they are told apart by device path as well.
func (bd *BlockDevice) Identifier() string {
	serial := deref(bd.Serial)
	if node := bd.MultipathNode(); node != "" {
		path := bd.Path
		if path == "" {
			path = "/dev/" + bd.Name
		}
		return "{multipath}" + node + "{serial}" + serial + "{path}" + path
	}
	if serial != "" {
		return "{serial}" + serial
	}
	return "{devicename}" + bd.Name
}

// Description is a short human label, e.g. "ATA WDC WD40EFRX (sata)".
func (bd *BlockDevice) Description() string {
	parts := []string{}
	for _, p := range []string{deref(bd.Vendor), deref(bd.Model)} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	desc := strings.Join(parts, " ")
	if tran := deref(bd.Tran); tran != "" {
		desc = strings.TrimSpace(desc + " (" + tran + ")")
	}
	return desc
}

// Scanner enumerates the physical disks attached to the host.
type Scanner interface {
	Scan(ctx context.Context) ([]BlockDevice, error)
}

// LsblkScanner runs lsblk.
type LsblkScanner struct {
	logger logger.Logger
	path   string
	exec   command.ExecFunc
}

func NewLsblkScanner(l logger.Logger, path string) *LsblkScanner {
	if path == "" {
		path = DefaultLsblkPath
	}
	return &LsblkScanner{logger: l, path: path, exec: command.ExecCommand}
}

// Scan lists whole disks, without loop or optical devices. The device tree
// is read so that multipath holders show up as children of their paths.
func (s *LsblkScanner) Scan(ctx context.Context) ([]BlockDevice, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	out, err := s.exec(ctx, s.logger, s.path,
		"--json",
		"--output", "NAME,PATH,TYPE,SIZE,VENDOR,MODEL,SERIAL,WWN,TRAN",
		"--bytes",
		"--exclude", "7,11", // loop and optical
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.DiskInventoryFailed)
	}

	devices, err := ParseLsblkJSON(out)
	if err != nil {
		return nil, err
	}

	disks := devices[:0]
	for _, d := range devices {
		if d.IsPhysicalDisk() {
			disks = append(disks, d)
		}
	}
	return disks, nil
}
