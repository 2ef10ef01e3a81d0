/*
 * Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
 * Copyright 2024-2025 The StrataSTOR Authors and Contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package errors

import "net/http"

const (
	DomainConfig      Domain = "CONFIG"
	DomainServer      Domain = "SERVER"
	DomainZFS         Domain = "ZFS"
	DomainCommand     Domain = "CMD"
	DomainLifecycle   Domain = "LIFECYCLE"
	DomainMisc        Domain = "MISC"
	DomainTopology    Domain = "TOPOLOGY"
	DomainBootEnv     Domain = "BOOTENV"
	DomainDisk        Domain = "DISK"
	DomainStore       Domain = "STORE"
	DomainReplication Domain = "REPLICATION"
	DomainAlert       Domain = "ALERT"
	DomainSnapTask    Domain = "SNAPTASK"
)

// ErrorCode represents unique error identifiers
type ErrorCode int

// Domain represents the subsystem where the error originated
type Domain string

// Error code ranges:
// 1000-1099: Configuration errors
// 1100-1199: Server errors
// 1300-1399: Command execution
// 1500-1599: Lifecycle management
// 1600-1699: Misc
// 2000-2199: ZFS operations
// 2200-2299: Pool topology
// 2300-2399: Boot environments
// 2400-2499: Disk inventory
// 2500-2599: Store
// 2600-2699: Replication
// 2700-2799: Alerts
// 2800-2899: Periodic snapshot tasks
const (
	// Configuration Errors (1000-1099)
	ConfigNotFound    = 1000 + iota // Config file not found
	ConfigInvalid                   // Invalid config format
	ConfigLoadFailed                // Failed to load config
	ConfigWriteFailed               // Failed to write config
)

const (
	// Server Errors (1100-1199)
	ServerStart             = 1100 + iota // Failed to start server
	ServerShutdown                        // Error during shutdown
	ServerRequestValidation               // Request validation failed
	ServerInternalError
	ServerBadRequest
	ServerUnreachable // Agent could not be reached by a client
)

const (
	// Command Execution (1300-1399)
	CommandNotFound     = 1300 + iota // Command not found
	CommandExecution                  // Execution failed
	CommandTimeout                    // Command timed out
	CommandInvalidInput               // Invalid command input
	CommandOutputParse                // Output parsing failed
	CommandPipe                       // Command pipe error
)

const (
	// Lifecycle Management (1500-1599)
	LifecyclePID    = 1500 + iota // PID file operation failed
	LifecycleDaemon               // Daemon operation failed
)

const (
	// Misc (1600-1699)
	BurrowMisc    = 1600 + iota // Miscellaneous program error
	NotFoundError               // Not found error
	LoggerError                 // Logger error
)

const (
	// ZFS Operations (2000-2199)
	ZFSCommandFailed = 2000 + iota
	ZFSPoolNotFound
	ZFSPoolStatus
	ZFSPoolList
	ZFSPoolInvalidName
	ZFSPoolScrubFailed
	ZFSPoolDeviceOperation

	ZFSNameNoAtSign
	ZFSNameInvalid
	ZFSNameTooLong
	ZFSNameEmptyComponent
	ZFSNameInvalidChar
	ZFSNameReserved
	ZFSPropertyInvalid

	ZFSDatasetNotFound
	ZFSDatasetCreate
	ZFSDatasetList
	ZFSDatasetDestroy
	ZFSDatasetInvalidName
	ZFSDatasetRename

	ZFSSnapshotList
	ZFSSnapshotNotFound
	ZFSSnapshotDestroy
	ZFSSnapshotFailed
	ZFSSnapshotInvalidName

	ZFSPoolProperties
	ZFSPoolUpgradeFailed
)

const (
	// Pool topology (2200-2299)
	TopologyInvalidNode = 2200 + iota // Unrecognized node kind in a pool tree
	TopologyParse                     // Pool description could not be built
)

const (
	// Boot environments (2300-2399)
	BootEnvNotFound = 2300 + iota
	BootEnvList
	BootEnvRename
	BootEnvDelete
	BootEnvInvalidName
	BootEnvActivate
)

const (
	// Disk inventory (2400-2499)
	DiskNotFound = 2400 + iota
	DiskInventoryFailed
	DiskUpdateFailed
)

const (
	// Store (2500-2599)
	StoreOpen = 2500 + iota
	StoreMigration
	StoreQuery
	StoreConflict
)

const (
	// Replication (2600-2699)
	ReplicationTaskNotFound = 2600 + iota
	ReplicationInvalidTask
	ReplicationRemoteList
)

const (
	// Alerts (2700-2799)
	AlertSchedulerFailed = 2700 + iota
)

const (
	// Periodic snapshot tasks (2800-2899)
	SnapshotTaskNotFound = 2800 + iota
	SnapshotTaskInvalid
	SnapshotTaskFailed
)

type definition struct {
	message    string
	domain     Domain
	httpStatus int
}

var errorDefinitions = map[ErrorCode]definition{
	ConfigNotFound:    {"Configuration file not found", DomainConfig, http.StatusInternalServerError},
	ConfigInvalid:     {"Invalid configuration", DomainConfig, http.StatusInternalServerError},
	ConfigLoadFailed:  {"Failed to load configuration", DomainConfig, http.StatusInternalServerError},
	ConfigWriteFailed: {"Failed to write configuration", DomainConfig, http.StatusInternalServerError},

	ServerStart:             {"Failed to start server", DomainServer, http.StatusInternalServerError},
	ServerShutdown:          {"Error during server shutdown", DomainServer, http.StatusInternalServerError},
	ServerRequestValidation: {"Request validation failed", DomainServer, http.StatusBadRequest},
	ServerInternalError:     {"Internal server error", DomainServer, http.StatusInternalServerError},
	ServerBadRequest:        {"Bad request", DomainServer, http.StatusBadRequest},
	ServerUnreachable:       {"Agent unreachable", DomainServer, http.StatusBadGateway},

	CommandNotFound:     {"Command not found", DomainCommand, http.StatusInternalServerError},
	CommandExecution:    {"Command execution failed", DomainCommand, http.StatusInternalServerError},
	CommandTimeout:      {"Command timed out", DomainCommand, http.StatusGatewayTimeout},
	CommandInvalidInput: {"Invalid command input", DomainCommand, http.StatusBadRequest},
	CommandOutputParse:  {"Failed to parse command output", DomainCommand, http.StatusInternalServerError},
	CommandPipe:         {"Command pipe error", DomainCommand, http.StatusInternalServerError},

	LifecyclePID:    {"PID file operation failed", DomainLifecycle, http.StatusInternalServerError},
	LifecycleDaemon: {"Daemon operation failed", DomainLifecycle, http.StatusInternalServerError},

	BurrowMisc:    {"Miscellaneous error", DomainMisc, http.StatusInternalServerError},
	NotFoundError: {"Not found", DomainMisc, http.StatusNotFound},
	LoggerError:   {"Logger error", DomainMisc, http.StatusInternalServerError},

	ZFSCommandFailed:       {"ZFS command failed", DomainZFS, http.StatusInternalServerError},
	ZFSPoolNotFound:        {"ZFS pool not found", DomainZFS, http.StatusNotFound},
	ZFSPoolStatus:          {"Failed to get pool status", DomainZFS, http.StatusBadRequest},
	ZFSPoolList:            {"Failed to get pool list", DomainZFS, http.StatusBadRequest},
	ZFSPoolInvalidName:     {"Invalid pool name", DomainZFS, http.StatusBadRequest},
	ZFSPoolScrubFailed:     {"Failed to scrub pool", DomainZFS, http.StatusBadRequest},
	ZFSPoolDeviceOperation: {"Pool device operation failed", DomainZFS, http.StatusBadRequest},

	ZFSNameNoAtSign:       {"Missing '@' in snapshot name", DomainZFS, http.StatusBadRequest},
	ZFSNameInvalid:        {"Invalid name", DomainZFS, http.StatusBadRequest},
	ZFSNameTooLong:        {"Name too long", DomainZFS, http.StatusBadRequest},
	ZFSNameEmptyComponent: {"Empty name component", DomainZFS, http.StatusBadRequest},
	ZFSNameInvalidChar:    {"Invalid character in name", DomainZFS, http.StatusBadRequest},
	ZFSNameReserved:       {"Reserved name", DomainZFS, http.StatusBadRequest},
	ZFSPropertyInvalid:    {"Invalid property", DomainZFS, http.StatusBadRequest},

	ZFSDatasetNotFound:    {"ZFS dataset not found", DomainZFS, http.StatusNotFound},
	ZFSDatasetCreate:      {"Failed to create ZFS dataset", DomainZFS, http.StatusBadRequest},
	ZFSDatasetList:        {"Failed to list ZFS datasets", DomainZFS, http.StatusBadRequest},
	ZFSDatasetDestroy:     {"Failed to destroy ZFS dataset", DomainZFS, http.StatusBadRequest},
	ZFSDatasetInvalidName: {"Invalid dataset name", DomainZFS, http.StatusBadRequest},
	ZFSDatasetRename:      {"Failed to rename dataset", DomainZFS, http.StatusBadRequest},

	ZFSSnapshotList:        {"Failed to list snapshots", DomainZFS, http.StatusBadRequest},
	ZFSSnapshotNotFound:    {"Snapshot not found", DomainZFS, http.StatusNotFound},
	ZFSSnapshotDestroy:     {"Failed to destroy snapshot", DomainZFS, http.StatusBadRequest},
	ZFSSnapshotFailed:      {"Failed to create snapshot", DomainZFS, http.StatusBadRequest},
	ZFSSnapshotInvalidName: {"Invalid snapshot", DomainZFS, http.StatusBadRequest},

	ZFSPoolProperties:    {"Failed to get pool properties", DomainZFS, http.StatusBadRequest},
	ZFSPoolUpgradeFailed: {"Failed to upgrade pool", DomainZFS, http.StatusBadRequest},

	TopologyInvalidNode: {"Invalid node", DomainTopology, http.StatusInternalServerError},
	TopologyParse:       {"Failed to build pool description", DomainTopology, http.StatusInternalServerError},

	BootEnvNotFound:    {"Boot environment not found", DomainBootEnv, http.StatusNotFound},
	BootEnvList:        {"Failed to list boot environments", DomainBootEnv, http.StatusInternalServerError},
	BootEnvRename:      {"Failed to rename boot environment", DomainBootEnv, http.StatusBadRequest},
	BootEnvDelete:      {"Failed to delete boot environment", DomainBootEnv, http.StatusBadRequest},
	BootEnvInvalidName: {"Invalid boot environment name", DomainBootEnv, http.StatusBadRequest},
	BootEnvActivate:    {"Failed to activate boot environment", DomainBootEnv, http.StatusBadRequest},

	DiskNotFound:        {"Disk not found", DomainDisk, http.StatusNotFound},
	DiskInventoryFailed: {"Failed to read disk inventory", DomainDisk, http.StatusInternalServerError},
	DiskUpdateFailed:    {"Failed to update disk", DomainDisk, http.StatusBadRequest},

	StoreOpen:      {"Failed to open store", DomainStore, http.StatusInternalServerError},
	StoreMigration: {"Failed to migrate store schema", DomainStore, http.StatusInternalServerError},
	StoreQuery:     {"Store query failed", DomainStore, http.StatusInternalServerError},
	StoreConflict:  {"Record already exists", DomainStore, http.StatusConflict},

	ReplicationTaskNotFound: {"Replication task not found", DomainReplication, http.StatusNotFound},
	ReplicationInvalidTask:  {"Invalid replication task", DomainReplication, http.StatusBadRequest},
	ReplicationRemoteList:   {"Failed to list remote snapshots", DomainReplication, http.StatusBadGateway},

	AlertSchedulerFailed: {"Alert scheduler failed", DomainAlert, http.StatusInternalServerError},

	SnapshotTaskNotFound: {"Periodic snapshot task not found", DomainSnapTask, http.StatusNotFound},
	SnapshotTaskInvalid:  {"Invalid periodic snapshot task", DomainSnapTask, http.StatusBadRequest},
	SnapshotTaskFailed:   {"Periodic snapshot task run failed", DomainSnapTask, http.StatusInternalServerError},
}

func lookup(code ErrorCode) (definition, bool) {
	def, ok := errorDefinitions[code]
	return def, ok
}
