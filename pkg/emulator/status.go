package emulator

// Status represents the state of the emulation session.
// It can be one of the following:
//
//   - Empty
//   - Running
//   - Paused
type Status int

const (
	// Empty is the status of a session with no ROM
	// loaded, either at startup or after it has been
	// closed.
	Empty Status = iota
	// Running is the status of a session whose core
	// is being stepped by the pacer.
	Running
	// Paused is the status of a session with a live
	// core that is not being stepped.
	Paused
)

func (s Status) String() string {
	switch s {
	case Empty:
		return "Empty"
	case Running:
		return "Running"
	case Paused:
		return "Paused"
	default:
		return "Unknown"
	}
}

func (s Status) IsEmpty() bool {
	return s == Empty
}

func (s Status) IsRunning() bool {
	return s == Running
}

func (s Status) IsPaused() bool {
	return s == Paused
}

// Active reports whether a core is loaded.
func (s Status) Active() bool {
	return s == Running || s == Paused
}
