// Package config provides configuration management for the declutter
// disk reclaimer.
package config

// Default configuration values for declutter.
const (
	// DefaultMaxFileSize caps the files considered for duplicate
	// hashing. Larger files are recorded but never hashed.
	DefaultMaxFileSize = "1GB"

	// DefaultPath is the path scanned when none is specified.
	DefaultPath = "."

	// DefaultRetentionDays is how long manifest entries are retained.
	DefaultRetentionDays = 30

	// DefaultHashWorkers of zero lets the duplicate finder size its
	// pool from GOMAXPROCS.
	DefaultHashWorkers = 0
)

// DefaultExclusions are path prefixes skipped by every scan.
var DefaultExclusions = []string{
	"/proc",
	"/sys",
	"/dev",
}

// DefaultExcludedExtensions lists extensions never recorded by a scan.
// Empty by default; users add entries such as ".iso" or ".vmdk".
var DefaultExcludedExtensions = []string{}
