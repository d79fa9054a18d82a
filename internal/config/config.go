// Package config holds the csvfplay settings file: which pin driver to open,
// how it is wired, and the player limits.
package config

import (
	"os"

	"github.com/juju/errors"
	yaml "gopkg.in/yaml.v2"

	"github.com/OpenTraceLab/csvfplay/pkg/jtag"
	"github.com/OpenTraceLab/csvfplay/pkg/player"
	"github.com/OpenTraceLab/csvfplay/pkg/svf"
)

// Config is the on-disk configuration. Command-line flags override it.
type Config struct {
	Driver   string         `yaml:"driver"`
	Pins     jtag.GPIOPins  `yaml:"pins"`
	Player   PlayerConfig   `yaml:"player"`
	CMSISDAP CMSISDAPConfig `yaml:"cmsis_dap"`
	SVF      SVFConfig      `yaml:"svf"`
}

// PlayerConfig sizes the interpreter.
type PlayerConfig struct {
	BufferCapacity int   `yaml:"buffer_capacity"`
	MaxProgramSize int64 `yaml:"max_program_size"`
}

// CMSISDAPConfig selects and clocks a CMSIS-DAP probe.
type CMSISDAPConfig struct {
	VID     uint16 `yaml:"vid"`
	PID     uint16 `yaml:"pid"`
	ClockHz uint32 `yaml:"clock_hz"`
}

// SVFConfig controls SVF compilation.
type SVFConfig struct {
	// TCKFrequency converts RUNTEST times to clocks, in Hz.
	TCKFrequency float64 `yaml:"tck_frequency"`
}

// DefaultConfig returns the settings used when no file is given: the
// Raspberry Pi GPIO driver on the standard header pins.
func DefaultConfig() *Config {
	pc := player.DefaultConfig()
	return &Config{
		Driver: string(jtag.InterfaceKindRPi),
		Pins:   jtag.DefaultGPIOPins,
		Player: PlayerConfig{
			BufferCapacity: pc.BufferCapacity,
			MaxProgramSize: pc.MaxProgramSize,
		},
		CMSISDAP: CMSISDAPConfig{
			VID:     jtag.VendorIDRaspberryPi,
			PID:     jtag.ProductIDCMSISDAP,
			ClockHz: jtag.DefaultClockHz,
		},
		SVF: SVFConfig{TCKFrequency: svf.DefaultFrequency},
	}
}

// Load reads path over the defaults. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Annotatef(err, "reading config %s", path)
	}
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, errors.Annotatef(err, "parsing config %s", path)
	}
	return cfg, nil
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	return data, errors.Trace(err)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if _, err := jtag.ParseKind(c.Driver); err != nil {
		return errors.Trace(err)
	}
	if err := c.PlayerConfig().Validate(); err != nil {
		return errors.Trace(err)
	}
	if c.CMSISDAP.ClockHz == 0 {
		return errors.NotValidf("cmsis_dap.clock_hz 0")
	}
	if c.SVF.TCKFrequency <= 0 {
		return errors.NotValidf("svf.tck_frequency %g", c.SVF.TCKFrequency)
	}
	return nil
}

// PlayerConfig returns the interpreter settings.
func (c *Config) PlayerConfig() player.Config {
	return player.Config{
		BufferCapacity: c.Player.BufferCapacity,
		MaxProgramSize: c.Player.MaxProgramSize,
	}
}

// DriverOptions returns the options for jtag.Open.
func (c *Config) DriverOptions() (jtag.Options, error) {
	kind, err := jtag.ParseKind(c.Driver)
	if err != nil {
		return jtag.Options{}, errors.Trace(err)
	}
	return jtag.Options{
		Kind:    kind,
		VID:     c.CMSISDAP.VID,
		PID:     c.CMSISDAP.PID,
		ClockHz: c.CMSISDAP.ClockHz,
		Pins:    c.Pins,
	}, nil
}

// Converter returns the program loader for these settings.
func (c *Config) Converter() svf.Converter {
	return svf.Converter{
		Options: svf.Options{Frequency: c.SVF.TCKFrequency},
		MaxSize: c.Player.MaxProgramSize,
	}
}
