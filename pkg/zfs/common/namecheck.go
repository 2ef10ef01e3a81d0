/*
 * Copyright 2024 Raamsri Kumar <raam@tinkershack.in> and The StrataSTOR Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package common

import (
	"strings"

	"github.com/stratastor/burrow/pkg/errors"
)

// Name rules follow zfs_namecheck.c closely enough to reject what zfs would
// reject before a command is spawned.

const (
	MaxDatasetNameLen = 256 // ZFS_MAX_DATASET_NAME_LEN
	MaxDatasetNesting = 50  // zfs_max_dataset_nesting default
)

func isValidChar(c rune) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '-' || c == '_' || c == '.' || c == ':' || c == ' '
}

// Depth returns the nesting depth of a dataset path.
func Depth(path string) int {
	depth := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '@' || path[i] == '#' {
			break
		}
		if path[i] == '/' {
			depth++
		}
	}
	return depth
}

// ComponentNameCheck validates a single component such as a snapshot
// short name or a dataset leaf.
func ComponentNameCheck(name string) error {
	if len(name) >= MaxDatasetNameLen {
		return errors.New(errors.ZFSNameTooLong, "component name too long")
	}
	if len(name) == 0 {
		return errors.New(errors.ZFSNameEmptyComponent, "component name empty")
	}
	for _, c := range name {
		if !isValidChar(c) {
			return errors.New(errors.ZFSNameInvalidChar, "invalid character in component name: "+name)
		}
	}
	return nil
}

// entityNameCheck validates a dataset or snapshot path. At most one '@' is
// accepted and no '/' may follow it.
func entityNameCheck(path string) error {
	if len(path) >= MaxDatasetNameLen {
		return errors.New(errors.ZFSNameTooLong, "name too long: "+path)
	}
	if len(path) == 0 {
		return errors.New(errors.ZFSNameEmptyComponent, "name empty")
	}
	if path[0] == '/' || path[len(path)-1] == '/' {
		return errors.New(errors.ZFSNameInvalid, "leading or trailing slash: "+path)
	}

	foundAt := false
	start := 0
	for start < len(path) {
		end := start
		for end < len(path) && path[end] != '/' && path[end] != '@' {
			end++
		}
		if start == end {
			return errors.New(errors.ZFSNameEmptyComponent, "empty component: "+path)
		}

		component := path[start:end]
		for _, c := range component {
			if !isValidChar(c) && c != '%' {
				return errors.New(errors.ZFSNameInvalidChar, "invalid character: "+path)
			}
		}
		if component == "." || component == ".." {
			return errors.New(errors.ZFSNameInvalid, "self or parent reference: "+path)
		}

		if end == len(path) {
			break
		}
		switch path[end] {
		case '@':
			if foundAt {
				return errors.New(errors.ZFSNameInvalid, "multiple '@' delimiters: "+path)
			}
			if end+1 >= len(path) {
				return errors.New(errors.ZFSNameEmptyComponent, "empty snapshot name: "+path)
			}
			foundAt = true
		case '/':
			if foundAt {
				return errors.New(errors.ZFSNameInvalid, "slash after '@': "+path)
			}
		}
		start = end + 1
	}

	if Depth(path) >= MaxDatasetNesting {
		return errors.New(errors.ZFSNameTooLong, "dataset nesting too deep")
	}
	return nil
}

// DatasetNameCheck validates filesystem and volume names.
func DatasetNameCheck(path string) error {
	if strings.ContainsAny(path, "@#") {
		return errors.New(errors.ZFSNameInvalid, "dataset name cannot contain '@' or '#': "+path)
	}
	return entityNameCheck(path)
}

// SnapshotNameCheck validates a full snapshot name. A missing '@' is
// reported as ZFSNameNoAtSign so callers can tell it apart.
func SnapshotNameCheck(path string) error {
	if !strings.Contains(path, "@") {
		return errors.New(errors.ZFSNameNoAtSign, path)
	}
	if strings.Contains(path, "#") {
		return errors.New(errors.ZFSNameInvalid, "snapshot name cannot contain '#': "+path)
	}
	return entityNameCheck(path)
}

// PoolNameCheck validates pool names
func PoolNameCheck(name string) error {
	maxLen := MaxDatasetNameLen - 2 - (len("$ORIGIN") * 2)
	if len(name) >= maxLen {
		return errors.New(errors.ZFSNameTooLong, "pool name too long")
	}
	if len(name) == 0 || !((name[0] >= 'a' && name[0] <= 'z') || (name[0] >= 'A' && name[0] <= 'Z')) {
		return errors.New(errors.ZFSNameInvalid, "pool name must begin with a letter")
	}
	for _, c := range name {
		if !isValidChar(c) {
			return errors.New(errors.ZFSNameInvalidChar, "invalid character in pool name")
		}
	}
	if name == "mirror" || name == "raidz" || name == "draid" || name == "spare" || name == "log" {
		return errors.New(errors.ZFSNameReserved, name)
	}
	if strings.HasPrefix(name, "mirror") || strings.HasPrefix(name, "raidz") || strings.HasPrefix(name, "draid") {
		return errors.New(errors.ZFSNameReserved, name)
	}
	return nil
}

// SplitSnapshot splits "pool/fs@snap" into dataset and snapshot name.
func SplitSnapshot(fullname string) (dataset, name string, err error) {
	if err := SnapshotNameCheck(fullname); err != nil {
		return "", "", err
	}
	i := strings.IndexByte(fullname, '@')
	return fullname[:i], fullname[i+1:], nil
}

// PoolOf returns the pool component of a dataset or snapshot name.
func PoolOf(name string) string {
	if i := strings.IndexAny(name, "/@"); i >= 0 {
		return name[:i]
	}
	return name
}
