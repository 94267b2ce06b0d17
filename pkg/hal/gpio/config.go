package gpio

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/robotalks/siobridge/pkg/hal"
)

// Config defines the GPIO chip and line offsets.
type Config struct {
	Chip    string
	Offsets map[hal.Line]int
}

// Default offsets follow the ATtiny84A port A bit numbers of the reference board.
var defaultConfig = Config{
	Chip: "gpiochip0",
	Offsets: map[hal.Line]int{
		hal.LineSPIClock: 0,
		hal.LineCTS:      1,
		hal.LineSync:     2,
		hal.LineTxReq:    3,
		hal.LineSIOClock: 5,
		hal.LineDTR:      7,
	},
}

func init() {
	if val := os.Getenv("SIOBRIDGE_CHIP"); val != "" {
		defaultConfig.Chip = val
	}
}

type offsetFlag hal.Line

func (f offsetFlag) String() string {
	return fmt.Sprintf("%d", defaultConfig.Offsets[hal.Line(f)])
}

func (f offsetFlag) Set(val string) error {
	var n int
	if _, err := fmt.Sscanf(val, "%d", &n); err != nil || n < 0 {
		return fmt.Errorf("invalid line offset %q", val)
	}
	defaultConfig.Offsets[hal.Line(f)] = n
	return nil
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Chip, "chip", defaultConfig.Chip, "GPIO chip name or path.")
	for _, line := range []hal.Line{hal.LineDTR, hal.LineTxReq, hal.LineSIOClock, hal.LineSPIClock, hal.LineSync, hal.LineCTS} {
		flag.Var(offsetFlag(line), "line-"+lineFlagName(line), fmt.Sprintf("GPIO line offset of %s.", line))
	}
}

func lineFlagName(line hal.Line) string {
	switch line {
	case hal.LineDTR:
		return "dtr"
	case hal.LineTxReq:
		return "txreq"
	case hal.LineSIOClock:
		return "sio-clk"
	case hal.LineSPIClock:
		return "spi-clk"
	case hal.LineSync:
		return "sync"
	default:
		return "cts"
	}
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := Config{Chip: defaultConfig.Chip, Offsets: make(map[hal.Line]int)}
	for line, offset := range defaultConfig.Offsets {
		conf.Offsets[line] = offset
	}
	return &conf
}

// Validate checks all lines are assigned distinct offsets.
func (c *Config) Validate() error {
	used := make(map[int]hal.Line)
	for _, line := range append([]hal.Line{hal.LineDTR, hal.LineTxReq}, hal.Outputs...) {
		offset, ok := c.Offsets[line]
		if !ok {
			return fmt.Errorf("no offset for line %s", line)
		}
		if other, dup := used[offset]; dup {
			return fmt.Errorf("lines %s and %s share offset %d", other, line, offset)
		}
		used[offset] = line
	}
	return nil
}

// NewSurface creates the Surface, it's not configured yet.
func (c *Config) NewSurface(unit time.Duration) (*Surface, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &Surface{Chip: c.Chip, Offsets: c.Offsets, Unit: unit}, nil
}
