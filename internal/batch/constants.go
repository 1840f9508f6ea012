package batch

import "time"

// Defaults.
const (
	defaultTop     = 10
	defaultTimeout = 10 * time.Minute
)

// File permission constants.
const (
	logFilePermission   = 0o600
	directoryPermission = 0o750
)
