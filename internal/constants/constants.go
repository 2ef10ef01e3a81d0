// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package constants

// Build-time variables set via ldflags
var (
	Version   = "v0.0.1-dev" // Set via -X flag during build
	CommitSHA = "unknown"    // Set via -X flag during build
	BuildTime = "unknown"    // Set via -X flag during build
)

const (
	BurrowPIDFilePath = "/var/run/burrow/burrow.pid"

	// config
	ConfigFileName = "burrow.yml"
	EnvFileName    = "burrow.env"
	StoreFileName  = "burrow.db"

	// routes
	APIVersion     = "v1"
	APIBase        = "/api/" + APIVersion + "/burrow"
	APIPools       = APIBase + "/pools"
	APISnapshots   = APIBase + "/snapshots"
	APIBootEnv     = APIBase + "/bootenv"
	APIDisks       = APIBase + "/disks"
	APIReplication = APIBase + "/replications"
	APIAlerts      = APIBase + "/alerts"
)
