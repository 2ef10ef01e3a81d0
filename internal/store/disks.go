// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/stratastor/burrow/pkg/errors"
)

// Disk is one inventory entry. Several entries may share a name when a disk
// was replaced; at most one of them is normally enabled. Members of a
// multipath device carry the multipath node name in MultipathName.
type Disk struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Serial        string `json:"serial"`
	Identifier    string `json:"identifier"`
	Description   string `json:"description"`
	Size          int64  `json:"size"`
	Enabled       bool   `json:"enabled"`
	MultipathName string `json:"multipath_name"`
}

// DiskFilter narrows ListDisks.
type DiskFilter struct {
	EnabledOnly bool
	// HideMultipath drops multipath members and multipath/* nodes.
	HideMultipath bool
}

const diskColumns = `id, name, serial, identifier, description, size, enabled, multipath_name`

func scanDisk(scan func(dest ...any) error) (Disk, error) {
	var d Disk
	var enabled int
	if err := scan(&d.ID, &d.Name, &d.Serial, &d.Identifier, &d.Description,
		&d.Size, &enabled, &d.MultipathName); err != nil {
		return Disk{}, err
	}
	d.Enabled = enabled != 0
	return d, nil
}

func (s *Store) queryDisks(ctx context.Context, query string, args ...any) ([]Disk, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.StoreQuery)
	}
	defer rows.Close()

	disks := []Disk{}
	for rows.Next() {
		d, err := scanDisk(rows.Scan)
		if err != nil {
			return nil, errors.Wrap(err, errors.StoreQuery)
		}
		disks = append(disks, d)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.StoreQuery)
	}
	return disks, nil
}

func (s *Store) ListDisks(ctx context.Context, f DiskFilter) ([]Disk, error) {
	var where []string
	if f.EnabledOnly {
		where = append(where, "enabled = 1")
	}
	if f.HideMultipath {
		where = append(where, "multipath_name = ''", "name NOT LIKE 'multipath%'", "name <> ''")
	}

	query := `SELECT ` + diskColumns + ` FROM disks`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	return s.queryDisks(ctx, query+` ORDER BY name, id;`)
}

// DisksByName returns entries named name, enabled entries first.
func (s *Store) DisksByName(ctx context.Context, name string) ([]Disk, error) {
	return s.queryDisks(ctx,
		`SELECT `+diskColumns+` FROM disks WHERE name = ? ORDER BY enabled DESC, id;`, name)
}

// DisksByMultipath returns the members of multipath node name, enabled
// entries first.
func (s *Store) DisksByMultipath(ctx context.Context, name string) ([]Disk, error) {
	return s.queryDisks(ctx,
		`SELECT `+diskColumns+` FROM disks WHERE multipath_name = ? ORDER BY enabled DESC, id;`, name)
}

func (s *Store) GetDisk(ctx context.Context, id int64) (Disk, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+diskColumns+` FROM disks WHERE id = ?;`, id)
	d, err := scanDisk(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return Disk{}, errors.New(errors.DiskNotFound, "disk "+strconv.FormatInt(id, 10))
		}
		return Disk{}, errors.Wrap(err, errors.StoreQuery)
	}
	return d, nil
}

// AddDisk inserts d and returns it with its assigned ID.
func (s *Store) AddDisk(ctx context.Context, d Disk) (Disk, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO disks (name, serial, identifier, description, size, enabled, multipath_name)
		VALUES (?, ?, ?, ?, ?, ?, ?);`,
		d.Name, d.Serial, d.Identifier, d.Description, d.Size, boolToInt(d.Enabled), d.MultipathName)
	if err != nil {
		return Disk{}, errors.Wrap(err, errors.StoreQuery)
	}
	if d.ID, err = res.LastInsertId(); err != nil {
		return Disk{}, errors.Wrap(err, errors.StoreQuery)
	}
	return d, nil
}

// DiskUpdate holds the editable inventory fields. Nil fields are left as is.
type DiskUpdate struct {
	Description *string `json:"description"`
	Serial      *string `json:"serial"`
	Enabled     *bool   `json:"enabled"`
}

func (s *Store) UpdateDisk(ctx context.Context, id int64, u DiskUpdate) (Disk, error) {
	d, err := s.GetDisk(ctx, id)
	if err != nil {
		return Disk{}, err
	}
	if u.Description != nil {
		d.Description = *u.Description
	}
	if u.Serial != nil {
		d.Serial = *u.Serial
	}
	if u.Enabled != nil {
		d.Enabled = *u.Enabled
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE disks SET description = ?, serial = ?, enabled = ? WHERE id = ?;`,
		d.Description, d.Serial, boolToInt(d.Enabled), id)
	if err != nil {
		return Disk{}, errors.Wrap(err, errors.DiskUpdateFailed)
	}
	return d, nil
}

// SyncDisk records a disk seen on the system. Entries are matched by
// Identifier; a match is renamed, resized, re-enabled and gets its current
// multipath membership in place.
func (s *Store) SyncDisk(ctx context.Context, d Disk) (Disk, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+diskColumns+` FROM disks WHERE identifier = ? ORDER BY id LIMIT 1;`, d.Identifier)
	existing, err := scanDisk(row.Scan)
	switch {
	case err == sql.ErrNoRows:
		d.Enabled = true
		added, err := s.AddDisk(ctx, d)
		return added, true, err
	case err != nil:
		return Disk{}, false, errors.Wrap(err, errors.StoreQuery)
	}

	existing.Name = d.Name
	existing.Size = d.Size
	existing.Enabled = true
	existing.MultipathName = d.MultipathName
	if d.Serial != "" {
		existing.Serial = d.Serial
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE disks SET name = ?, size = ?, serial = ?, multipath_name = ?, enabled = 1
		WHERE id = ?;`,
		existing.Name, existing.Size, existing.Serial, existing.MultipathName, existing.ID)
	if err != nil {
		return Disk{}, false, errors.Wrap(err, errors.DiskUpdateFailed)
	}
	return existing, false, nil
}

// DisableDisksExcept disables every enabled entry whose identifier is not
// in keep and returns how many were disabled.
func (s *Store) DisableDisksExcept(ctx context.Context, keep []string) (int64, error) {
	query := `UPDATE disks SET enabled = 0 WHERE enabled = 1`
	args := make([]any, 0, len(keep))
	if len(keep) > 0 {
		query += ` AND identifier NOT IN (?` + strings.Repeat(", ?", len(keep)-1) + `)`
		for _, k := range keep {
			args = append(args, k)
		}
	}

	res, err := s.db.ExecContext(ctx, query+`;`, args...)
	if err != nil {
		return 0, errors.Wrap(err, errors.DiskUpdateFailed)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, errors.StoreQuery)
	}
	return n, nil
}
