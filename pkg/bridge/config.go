package bridge

import (
	"flag"
	"time"

	"github.com/robotalks/siobridge/pkg/hal"
)

// Defaults
const (
	// DefaultPulseWidth is W, the half pulse width in time units.
	DefaultPulseWidth hal.Units = 50
	// DefaultTimeUnit matches the SIO/SPI timing of the reference board.
	DefaultTimeUnit = time.Microsecond
)

// Config defines the timing of the bridge. It is fixed once the loop starts.
type Config struct {
	PulseWidth uint
	TimeUnit   time.Duration
}

var defaultConfig = Config{
	PulseWidth: uint(DefaultPulseWidth),
	TimeUnit:   DefaultTimeUnit,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.UintVar(&defaultConfig.PulseWidth, "pulse-width", defaultConfig.PulseWidth, "Half clock pulse width W in time units.")
	flag.DurationVar(&defaultConfig.TimeUnit, "time-unit", defaultConfig.TimeUnit, "Duration of one time unit.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Timing returns the protocol timing.
func (c *Config) Timing() Timing {
	w := hal.Units(c.PulseWidth)
	if w == 0 {
		w = DefaultPulseWidth
	}
	return Timing{W: w}
}

// Unit returns the time unit, never 0.
func (c *Config) Unit() time.Duration {
	if c.TimeUnit <= 0 {
		return DefaultTimeUnit
	}
	return c.TimeUnit
}

// NewBridge configures the surface and creates the Bridge.
func (c *Config) NewBridge(s hal.Surface) (*Bridge, error) {
	if err := s.Configure(); err != nil {
		return nil, err
	}
	return NewBridge(NewMachine(s, c.Timing())), nil
}
