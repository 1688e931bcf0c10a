// Package config provides configuration management for the
// player.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/thelolagemann/nesfront/internal/joypad"
	"github.com/thelolagemann/nesfront/internal/pacer"
	"github.com/thelolagemann/nesfront/internal/states"
	"github.com/thelolagemann/nesfront/pkg/utils"
)

// ErrNotSaved is returned with a usable default configuration
// when the defaults could not be written to the missing file.
var ErrNotSaved = errors.New("default configuration not saved")

// DefaultPath is where the configuration is kept unless told
// otherwise.
const DefaultPath = "nesfront.json"

// Config holds all application configuration
type Config struct {
	Pacing  PacingConfig  `json:"pacing"`
	Input   InputConfig   `json:"input"`
	States  StatesConfig  `json:"states"`
	Display DisplayConfig `json:"display"`
	Debug   DebugConfig   `json:"debug"`

	path   string
	loaded bool
}

// PacingConfig controls the frame pacer.
type PacingConfig struct {
	FPS           float64 `json:"fps"`
	GranularityMS float64 `json:"granularity_ms"` // 0 disables truncation
}

// InputConfig maps keys to controller buttons.
type InputConfig struct {
	Keys map[string]string `json:"keys"` // key -> button name
}

// StatesConfig controls where and how states are saved.
type StatesConfig struct {
	Dir      string `json:"dir"`
	Compress bool   `json:"compress"`
}

// DisplayConfig selects and configures the display driver.
type DisplayConfig struct {
	Driver     string `json:"driver"` // "auto", "fyne", "ebiten", "web", "headless"
	Scale      int    `json:"scale"`
	WebAddress string `json:"web_address"`
}

// DebugConfig contains debugging and development options
type DebugConfig struct {
	LogLevel      string `json:"log_level"` // "debug", "info"
	Statsview     bool   `json:"statsview"`
	StatsviewAddr string `json:"statsview_addr"`
	PerfPlot      string `json:"perf_plot"` // file the frame interval plot is written to at exit
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	keys := make(map[string]string)
	for key, button := range joypad.DefaultKeyMap() {
		keys[key] = joypad.ButtonName(button)
	}

	return &Config{
		Pacing: PacingConfig{
			FPS:           pacer.DefaultFPS,
			GranularityMS: 1,
		},
		Input: InputConfig{
			Keys: keys,
		},
		States: StatesConfig{
			Dir:      states.DefaultDir,
			Compress: false,
		},
		Display: DisplayConfig{
			Driver:     "auto",
			Scale:      2,
			WebAddress: ":8090",
		},
		Debug: DebugConfig{
			LogLevel:      "info",
			StatsviewAddr: "localhost:18066",
		},
	}
}

// Load loads the configuration at path from fs. A missing file
// is created with the default configuration; if that fails the
// defaults are still returned, along with ErrNotSaved.
func Load(fs afero.Fs, path string) (*Config, error) {
	c := NewConfig()
	c.path = path

	exists, err := afero.Exists(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if !exists {
		// File doesn't exist - save default config and return
		if err := c.SaveTo(fs, path); err != nil {
			return c, fmt.Errorf("%w: %w", ErrNotSaved, err)
		}
		return c, nil
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	// a key map in the file replaces the defaults
	c.Input.Keys = nil
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	c.loaded = true
	return c, nil
}

// SaveTo writes the configuration to path on fs.
func (c *Config) SaveTo(fs afero.Fs, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := afero.WriteFile(fs, path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	c.path = path
	return nil
}

// validate clamps the configuration to sensible values, and
// rejects what cannot be repaired.
func (c *Config) validate() error {
	if c.Pacing.FPS <= 0 {
		c.Pacing.FPS = pacer.DefaultFPS
	}
	c.Pacing.FPS = utils.Clamp(1, c.Pacing.FPS, 1000)
	c.Pacing.GranularityMS = utils.Clamp(0, c.Pacing.GranularityMS, 16)

	if c.Display.Scale <= 0 {
		c.Display.Scale = 2
	}
	c.Display.Scale = utils.Clamp(1, c.Display.Scale, 8)
	if c.Display.Driver == "" {
		c.Display.Driver = "auto"
	}

	if c.States.Dir == "" {
		c.States.Dir = states.DefaultDir
	}

	switch strings.ToLower(c.Debug.LogLevel) {
	case "", "info":
		c.Debug.LogLevel = "info"
	case "debug":
		c.Debug.LogLevel = "debug"
	default:
		return fmt.Errorf("unknown log level %q", c.Debug.LogLevel)
	}

	if len(c.Input.Keys) == 0 {
		c.Input.Keys = NewConfig().Input.Keys
	}
	if _, err := c.KeyMap(); err != nil {
		return err
	}
	return nil
}

// KeyMap returns the key bindings as a joypad.KeyMap.
func (c *Config) KeyMap() (joypad.KeyMap, error) {
	return joypad.KeyMapFromNames(c.Input.Keys)
}

// Granularity returns the pacer granularity.
func (c *Config) Granularity() time.Duration {
	return time.Duration(c.Pacing.GranularityMS * float64(time.Millisecond))
}

// Debugging reports whether debug logging is enabled.
func (c *Config) Debugging() bool {
	return c.Debug.LogLevel == "debug"
}

// IsLoaded returns whether the configuration was loaded from file
func (c *Config) IsLoaded() bool {
	return c.loaded
}

// Path returns the path to the config file
func (c *Config) Path() string {
	return c.path
}

// OsFs is the filesystem configuration is loaded from outside of
// tests.
var OsFs = afero.NewOsFs()

// LoadFile loads the configuration at path from the operating
// system's filesystem.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
		if dir, err := os.UserConfigDir(); err == nil {
			path = filepath.Join(dir, "nesfront", DefaultPath)
		}
	}
	return Load(OsFs, path)
}
