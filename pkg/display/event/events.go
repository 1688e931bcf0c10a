// Package event defines the various event types that can
// be sent to a display.Driver. This package is separate from
// the display package to avoid circular dependencies.
package event

// Type defines the various event types
// that can be sent to a display.Driver. The event type
// indicates to the display.Driver what action should be
// taken.
type Type int

const (
	// Quit is sent when the application is shutting down,
	// and the display.Driver should return from Start.
	Quit Type = iota
	// Title is sent to the display.Driver to change the
	// title of the window. Data holds the title string,
	// such as the current ROM and FPS.
	Title
	// FrameTime is periodically sent to the display.Driver
	// with the recent intervals between frames, oldest
	// first, as a []time.Duration.
	FrameTime
	// Message is sent with a string to show to the user,
	// such as the result of saving a state.
	Message
)

func (t Type) String() string {
	switch t {
	case Quit:
		return "quit"
	case Title:
		return "title"
	case FrameTime:
		return "frame-time"
	case Message:
		return "message"
	}
	return "unknown"
}

// Event is the data structure that is sent to the display.Driver
// to indicate an event has occurred. Data may or may not
// contain any data, depending on the event type.
type Event struct {
	// Type is the type of event
	Type Type
	// Data is the data of the event
	Data interface{}
}
