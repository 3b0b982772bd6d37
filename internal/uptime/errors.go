package uptime

import "errors"

var (
	// ErrMonitorNotFound covers both missing monitors and monitors owned
	// by someone else.
	ErrMonitorNotFound = errors.New("monitor not found")

	// ErrMonitorInactive rejects checks against paused monitors,
	// including manually triggered ones.
	ErrMonitorInactive = errors.New("monitor is not active")

	ErrInvalidInterval = errors.New("interval must be one of 60, 300, 900, 1800 or 3600 seconds")
	ErrInvalidTimeout  = errors.New("timeout must be between 1000 and 30000 milliseconds")
)
