package emulator

import "errors"

var (
	// ErrRomLoad is returned when a core could not be
	// constructed for the requested ROM.
	ErrRomLoad = errors.New("unable to load rom")
	// ErrNoActiveSession is returned by operations that
	// need a loaded core when the session is Empty.
	ErrNoActiveSession = errors.New("no active session")
	// ErrNotFound is returned when a state file does not
	// exist.
	ErrNotFound = errors.New("state not found")
	// ErrIO is returned when a state file could not be
	// read or written.
	ErrIO = errors.New("state i/o error")
	// ErrCorruptBlob is returned when a state file is not
	// a valid envelope.
	ErrCorruptBlob = errors.New("corrupt state")
	// ErrIncompatibleState is returned when the core
	// rejects a state blob.
	ErrIncompatibleState = errors.New("incompatible state")
	// ErrStopped is returned for commands sent after the
	// session loop has stopped.
	ErrStopped = errors.New("session loop stopped")
)
