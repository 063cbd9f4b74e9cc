package config

import (
	"math"
	"os"
	"path/filepath"

	"padseq/backend"
	"padseq/engine"
	"padseq/project"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// SynthConfig defines the synth MIDI output and how events are rendered
type SynthConfig struct {
	Port        string          `yaml:"port"`
	LeadIn      float64         `yaml:"leadIn"`
	CC          []int           `yaml:"cc,flow"`    // CC numbers for controller slots 1-4
	DefaultCtl  float64         `yaml:"defaultCtl"` // 0-1
	Instruments int             `yaml:"instruments"`
	Metronome   MetronomeConfig `yaml:"metronome"`
}

// MetronomeConfig sets the GM percussion notes of the recording click
type MetronomeConfig struct {
	High     int `yaml:"high"`
	Low      int `yaml:"low"`
	Velocity int `yaml:"velocity"`
}

// ControllersConfig names the controller ports, matched by substring
type ControllersConfig struct {
	Launchpad string `yaml:"launchpad"`
	Keyboard  string `yaml:"keyboard,omitempty"`
}

// FilesConfig stores document paths, relative to the config directory
type FilesConfig struct {
	Project string `yaml:"project"`
	Take    string `yaml:"take"`
}

// LogConfig enables the debug log
type LogConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
	Path    string `yaml:"path"`
}

// UIConfig stores UI preferences
type UIConfig struct {
	FrameRate int    `yaml:"frameRate"`
	Palette   string `yaml:"palette,omitempty"` // GIMP palette file
}

// Config is the main configuration structure
type Config struct {
	Synth       SynthConfig       `yaml:"synth"`
	Controllers ControllersConfig `yaml:"controllers"`
	Files       FilesConfig       `yaml:"files"`
	Log         LogConfig         `yaml:"log"`
	UI          UIConfig          `yaml:"ui"`

	dir string
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	opts := backend.DefaultOptions()
	return &Config{
		Synth: SynthConfig{
			LeadIn:      opts.LeadIn,
			CC:          []int{71, 72, 73, 74},
			DefaultCtl:  0.5,
			Instruments: project.NumInstruments,
			Metronome: MetronomeConfig{
				High:     int(opts.ClickHigh),
				Low:      int(opts.ClickLow),
				Velocity: int(opts.ClickVelocity),
			},
		},
		Controllers: ControllersConfig{
			Launchpad: "Launchpad",
		},
		Files: FilesConfig{
			Project: "project.json",
			Take:    "take.mid",
		},
		Log: LogConfig{
			Level: "debug",
			Path:  "debug.log",
		},
		UI: UIConfig{
			FrameRate: 60,
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "home directory")
	}
	return filepath.Join(home, ".config", "padseq"), nil
}

// ConfigPath returns the full path to config.yaml
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFile(path)
}

// LoadFile reads a config file. Missing keys keep their defaults.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.dir = filepath.Dir(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	cfg.normalize()
	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes the config to path
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "create config directory")
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encode config")
	}
	return errors.Wrap(os.WriteFile(path, data, 0644), "write config")
}

func (c *Config) normalize() {
	def := DefaultConfig()
	if c.Synth.LeadIn < 0 {
		c.Synth.LeadIn = 0
	}
	if c.Synth.Instruments <= 0 || c.Synth.Instruments > project.NumInstruments {
		c.Synth.Instruments = def.Synth.Instruments
	}
	c.Synth.DefaultCtl = math.Max(0, math.Min(1, c.Synth.DefaultCtl))
	if c.UI.FrameRate <= 0 {
		c.UI.FrameRate = def.UI.FrameRate
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
}

// Path resolves a configured file name against the config directory.
func (c *Config) Path(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	dir := c.dir
	if dir == "" {
		if d, err := ConfigDir(); err == nil {
			dir = d
		}
	}
	return filepath.Join(dir, name)
}

// ProjectPath is where the project document is loaded from and saved to.
func (c *Config) ProjectPath() string { return c.Path(c.Files.Project) }

// TakePath is where recorded takes are written.
func (c *Config) TakePath() string { return c.Path(c.Files.Take) }

// LogPath is the debug log file.
func (c *Config) LogPath() string { return c.Path(c.Log.Path) }

// BackendOptions converts the synth section for backend.New.
func (c *Config) BackendOptions() backend.Options {
	opts := backend.DefaultOptions()
	opts.LeadIn = c.Synth.LeadIn
	opts.CC = [project.NumControls]uint8{}
	for i, cc := range c.Synth.CC {
		if i+1 >= project.NumControls {
			break
		}
		opts.CC[i+1] = midiByte(cc)
	}
	opts.DefaultCtl = engine.CtlValue(c.Synth.DefaultCtl)
	opts.Modules = c.Synth.Instruments * 2
	opts.ClickHigh = midiByte(c.Synth.Metronome.High)
	opts.ClickLow = midiByte(c.Synth.Metronome.Low)
	if v := midiByte(c.Synth.Metronome.Velocity); v > 0 {
		opts.ClickVelocity = v
	}
	opts.TakePath = c.TakePath()
	return opts
}

func midiByte(v int) uint8 {
	return uint8(max(0, min(127, v)))
}
