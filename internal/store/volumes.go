// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/stratastor/burrow/pkg/errors"
)

// Volume is a pool registered with burrow. Its ID seeds the synthetic IDs of
// the pool's status and dataset reports.
type Volume struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Store) CreateVolume(ctx context.Context, name string) (Volume, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO volumes (name) VALUES (?);`, name)
	if err != nil {
		if isUniqueViolation(err) {
			return Volume{}, errors.New(errors.StoreConflict, "volume "+name+" is already registered")
		}
		return Volume{}, errors.Wrap(err, errors.StoreQuery)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Volume{}, errors.Wrap(err, errors.StoreQuery)
	}
	return s.GetVolume(ctx, id)
}

func (s *Store) GetVolume(ctx context.Context, id int64) (Volume, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM volumes WHERE id = ?;`, id)
	return scanVolume(row, strconv.FormatInt(id, 10))
}

func (s *Store) GetVolumeByName(ctx context.Context, name string) (Volume, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM volumes WHERE name = ?;`, name)
	return scanVolume(row, name)
}

// ResolveVolume accepts either a numeric ID or a pool name.
func (s *Store) ResolveVolume(ctx context.Context, ref string) (Volume, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return s.GetVolume(ctx, id)
	}
	return s.GetVolumeByName(ctx, ref)
}

func scanVolume(row *sql.Row, ref string) (Volume, error) {
	var v Volume
	if err := row.Scan(&v.ID, &v.Name, &v.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return Volume{}, errors.New(errors.ZFSPoolNotFound, "pool "+ref+" is not registered")
		}
		return Volume{}, errors.Wrap(err, errors.StoreQuery)
	}
	return v, nil
}

func (s *Store) ListVolumes(ctx context.Context) ([]Volume, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created_at FROM volumes ORDER BY id;`)
	if err != nil {
		return nil, errors.Wrap(err, errors.StoreQuery)
	}
	defer rows.Close()

	vols := []Volume{}
	for rows.Next() {
		var v Volume
		if err := rows.Scan(&v.ID, &v.Name, &v.CreatedAt); err != nil {
			return nil, errors.Wrap(err, errors.StoreQuery)
		}
		vols = append(vols, v)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.StoreQuery)
	}
	return vols, nil
}

func (s *Store) DeleteVolume(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM volumes WHERE id = ?;`, id)
	if err != nil {
		return errors.Wrap(err, errors.StoreQuery)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.New(errors.ZFSPoolNotFound, "pool "+strconv.FormatInt(id, 10)+" is not registered")
	}
	return nil
}
