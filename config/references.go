// Copyright 2024 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
)

var (
	configDir string // Directory for configuration files
	stateDir  string // Directory for the SQLite store and other runtime state
)

func init() {
	if os.Geteuid() == 0 {
		configDir = "/etc/burrow"
		stateDir = "/var/lib/burrow"
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fall back to the working directory; LoadConfig reports the problem
		// once a logger exists.
		homeDir = "."
	}

	configDir = filepath.Join(homeDir, ".burrow")
	stateDir = filepath.Join(configDir, "state")
}

// GetConfigDir returns the appropriate configuration directory
// If running as root, it returns the system config directory
// Otherwise, it returns the user config directory
func GetConfigDir() string {
	return configDir
}

// GetStateDir returns the directory holding the store database
func GetStateDir() string {
	return stateDir
}

// EnsureDirectories creates necessary directories if they do not exist
func EnsureDirectories() error {
	for _, dir := range []string{configDir, stateDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
