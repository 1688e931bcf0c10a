package emulator

// CommandPacket is a command packet that is sent to the
// session to control it. Data carries the command argument,
// such as a ROM or state file path.
type CommandPacket struct {
	Command Command
	Data    []byte
}

// Command is a command that is sent to the session to
// control it.
type Command int

// ResponsePacket is a response packet that is sent
// from the session back to the client.
type ResponsePacket struct {
	Command Command
	Status  Status
	Data    []byte
	Error   error
}

const (
	// CommandPause pauses the session.
	CommandPause Command = iota
	// CommandResume resumes the session.
	CommandResume
	// CommandTogglePause pauses a running session or resumes
	// a paused one.
	CommandTogglePause
	// CommandClose closes the session.
	CommandClose
	// CommandReset resets the core of the session.
	CommandReset
	// CommandLoadROM opens the ROM at the path in Data.
	CommandLoadROM
	// CommandSaveState saves the core state to the
	// destination in Data.
	CommandSaveState
	// CommandLoadState restores the core state from the
	// source in Data.
	CommandLoadState
)

func (c Command) String() string {
	switch c {
	case CommandPause:
		return "pause"
	case CommandResume:
		return "resume"
	case CommandTogglePause:
		return "toggle-pause"
	case CommandClose:
		return "close"
	case CommandReset:
		return "reset"
	case CommandLoadROM:
		return "load-rom"
	case CommandSaveState:
		return "save-state"
	case CommandLoadState:
		return "load-state"
	default:
		return "unknown"
	}
}

// NewCommand returns a CommandPacket for c carrying the
// string argument arg.
func NewCommand(c Command, arg string) CommandPacket {
	return CommandPacket{Command: c, Data: []byte(arg)}
}
