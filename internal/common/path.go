// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package common

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/stratastor/burrow/pkg/errors"
)

// ResolvePath expands a leading ~ to the user's home directory and returns
// a cleaned absolute path. Config values such as store.path go through it.
func ResolvePath(path string) (string, error) {
	if path == "" {
		return "", errors.New(errors.ConfigInvalid, "empty path")
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(err, errors.ConfigInvalid).WithMetadata("path", path)
		}
		path = filepath.Join(homeDir, path[1:])
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Wrap(err, errors.ConfigInvalid).WithMetadata("path", path)
	}
	return abs, nil
}

// EnsureParentDir creates the directory that will hold the file at path.
func EnsureParentDir(path string, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, perm); err != nil {
		return errors.Wrap(err, errors.BurrowMisc).WithMetadata("dir", dir)
	}
	return nil
}
