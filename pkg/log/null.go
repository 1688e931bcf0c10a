package log

import "io"

// NewNullLogger returns a Logger that discards everything. It
// is the default for components that are not given a logger.
func NewNullLogger() Logger {
	return NewWithWriter(io.Discard, false)
}
