// pkg/zfs/command/constants.go

package command

import "time"

const (
	DefaultZFSBin   = "/usr/sbin/zfs"
	DefaultZpoolBin = "/usr/sbin/zpool"
	DefaultSSHBin   = "/usr/bin/ssh"

	maxCommandArgs = 64

	// Default timeout for command execution
	DefaultTimeout = 30 * time.Second
)

// Dangerous characters that could enable command injection
var dangerousChars = "&|><$`\\[];{}"

// Commands that support JSON output
var JSONSupportedCommands = map[string]bool{
	"zfs get":       true,
	"zfs list":      true,
	"zfs version":   true,
	"zpool get":     true,
	"zpool list":    true,
	"zpool status":  true,
	"zpool version": true,
}

// Commands that require sudo
var SudoRequiredCommands = map[string]bool{
	"zfs create":    true,
	"zfs destroy":   true,
	"zfs rename":    true,
	"zfs snapshot":  true,
	"zfs clone":     true,
	"zfs promote":   true,
	"zfs set":       true,
	"zpool scrub":   true,
	"zpool attach":  true,
	"zpool detach":  true,
	"zpool offline": true,
	"zpool online":  true,
	"zpool remove":  true,
	"zpool replace": true,
	"zpool set":     true,
	"zpool upgrade": true,
}
