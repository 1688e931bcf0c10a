// Package display connects a session to the outside world. A
// Driver shows the frames of the session, delivers key events
// back to it, and controls it through command packets.
package display

import (
	"flag"
	"fmt"
	"strconv"

	"github.com/thelolagemann/nesfront/internal/joypad"
	"github.com/thelolagemann/nesfront/pkg/display/event"
	"github.com/thelolagemann/nesfront/pkg/emulator"
	"github.com/thelolagemann/nesfront/pkg/log"
)

// Driver is the interface that wraps the basic methods for a
// display driver.
type Driver interface {
	// Initialize initializes the display driver by attaching it to
	// the emulator that is using it.
	Initialize(emu Emulator)
	// Start the display driver. It blocks until the driver is
	// closed, either by the user or by a Quit event.
	Start(frames <-chan *emulator.Framebuffer, events <-chan event.Event, keys chan<- joypad.KeyEvent) error
	// Stop the display driver.
	Stop() error
}

// Emulator is the interface that wraps the basic methods for an
// emulator to implement in order for the driver to be able to
// interact with it. This is used to allow the driver to
// control the emulator. The emulator is passed to the driver
// during initialization.
type Emulator interface {
	// SendCommand sends a command packet to the emulator.
	SendCommand(command emulator.CommandPacket) emulator.ResponsePacket
	// Status returns the status of the emulator.
	Status() emulator.Status
	// TargetFPS returns the frame rate the emulator is paced at.
	TargetFPS() float64
}

var (
	Pause       = emulator.CommandPacket{Command: emulator.CommandPause}
	Resume      = emulator.CommandPacket{Command: emulator.CommandResume}
	TogglePause = emulator.CommandPacket{Command: emulator.CommandTogglePause}
	Reset       = emulator.CommandPacket{Command: emulator.CommandReset}
	Close       = emulator.CommandPacket{Command: emulator.CommandClose}
	QuickSave   = emulator.CommandPacket{Command: emulator.CommandSaveState}
	QuickLoad   = emulator.CommandPacket{Command: emulator.CommandLoadState}
)

// DriverOption is a display driver option. This is used to
// configure a display driver.
type DriverOption struct {
	Name        string // name of the option
	Default     any    // default value of the option
	Value       any    // pointer to the value of the option
	Description string // description of the option
	Type        string // "int", "bool", "string", "float"
}

// InstalledDriver is a driver that has been installed. This is
// used to allow drivers to register their name.
type InstalledDriver struct {
	Name    string
	Options []DriverOption
	Driver
}

// InstalledDrivers is a list of all the installed drivers. This
// variable is exported so that it can be used by the main
// program to determine which drivers can be used. Drivers should
// call display.Install in their init() function.
var InstalledDrivers []*InstalledDriver

// GetDriver returns the driver with the given name, or nil if
// no driver with that name is installed. The name "auto"
// returns the first installed driver.
func GetDriver(name string) Driver {
	if name == "auto" || name == "" {
		if len(InstalledDrivers) == 0 {
			return nil
		}
		return InstalledDrivers[0].Driver
	}
	for _, driver := range InstalledDrivers {
		if driver.Name == name {
			return driver.Driver
		}
	}

	return nil
}

// DriverNames returns the names of the installed drivers.
func DriverNames() []string {
	names := make([]string, len(InstalledDrivers))
	for i, d := range InstalledDrivers {
		names[i] = d.Name
	}
	return names
}

// Install registers a display driver with the given name.
func Install(name string, driver Driver, options []DriverOption) {
	InstalledDrivers = append(InstalledDrivers, &InstalledDriver{
		Name:    name,
		Options: options,
		Driver:  driver,
	})
}

// RegisterFlags iterates through all the display driver
// options and registers them with the flag set. Options with a
// name shared by several drivers are registered once and set
// all of them; the rest are prefixed with the driver's name.
func RegisterFlags(fs *flag.FlagSet) {
	optionCounts := make(map[string]int)
	opts := make(map[string][]DriverOption)
	prefixes := make(map[string]string)
	var order []string

	for _, driver := range InstalledDrivers {
		for _, opt := range driver.Options {
			// track how many times an option is used
			if optionCounts[opt.Name] == 0 {
				order = append(order, opt.Name)
			}
			optionCounts[opt.Name]++
			opts[opt.Name] = append(opts[opt.Name], opt)
			prefixes[opt.Name] = driver.Name
		}
	}

	for _, o := range order {
		if optionCounts[o] > 1 {
			// this requires an option merge
			opt := opts[o][0]
			multi := &multiValue{defaultValue: opt.Default}
			for _, mOpt := range opts[o] {
				multi.values = append(multi.values, mOpt.Value)
				if err := multi.assign(mOpt.Value, fmt.Sprint(opt.Default)); err != nil {
					panic(fmt.Sprintf("display: bad default for option %s: %v", o, err))
				}
			}
			fs.Var(multi, o, opt.Description)
			continue
		}

		// this option is unique and should be prefixed
		opt := opts[o][0]
		optName := fmt.Sprintf("%s-%s", prefixes[o], opt.Name)
		switch opt.Type {
		case "string":
			fs.StringVar(opt.Value.(*string), optName, opt.Default.(string), opt.Description)
		case "bool":
			fs.BoolVar(opt.Value.(*bool), optName, opt.Default.(bool), opt.Description)
		case "float":
			fs.Float64Var(opt.Value.(*float64), optName, opt.Default.(float64), opt.Description)
		case "int":
			fs.IntVar(opt.Value.(*int), optName, opt.Default.(int), opt.Description)
		}
	}
}

type multiValue struct {
	values       []any
	defaultValue any
}

func (m *multiValue) String() string {
	if m == nil || m.defaultValue == nil {
		return ""
	}
	return fmt.Sprint(m.defaultValue)
}

func (m *multiValue) Set(value string) error {
	// update all the pointers with the provided value
	for _, ptr := range m.values {
		if err := m.assign(ptr, value); err != nil {
			return err
		}
	}
	return nil
}

func (m *multiValue) assign(ptr any, value string) error {
	switch p := ptr.(type) {
	case *string:
		*p = value
	case *bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		*p = b
	case *float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		*p = f
	case *int:
		i, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		*p = i
	default:
		return fmt.Errorf("unknown type: %T", ptr)
	}
	return nil
}

func (m *multiValue) IsBoolFlag() bool {
	_, isBool := m.defaultValue.(bool)
	return isBool
}

// Logged is implemented by drivers that report through the
// logger of the program.
type Logged interface {
	SetLogger(l log.Logger)
}
