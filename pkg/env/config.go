// Package env assembles the telemetry around a bridge from flags and
// environment variables.
package env

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/robotalks/siobridge/pkg/bridge"
	fx "github.com/robotalks/siobridge/pkg/framework"
	"github.com/robotalks/siobridge/pkg/link"
	"github.com/robotalks/siobridge/pkg/telemetry"
	"github.com/robotalks/siobridge/pkg/telemetry/mqtt"
	"github.com/robotalks/siobridge/pkg/telemetry/stream"
	"github.com/robotalks/siobridge/pkg/telemetry/websocket"
)

// DefaultBridgeType is the type reported in telemetry.
const DefaultBridgeType = "sio-spi"

// Config provides options to setup telemetry for a bridge.
// Every sink is optional, an empty value disables it.
type Config struct {
	Info telemetry.BridgeInfo

	// MQTTBrokerURL specifies the MQTT broker to use.
	// e.g. mqtt://host:port/topic-prefix/
	MQTTBrokerURL string
	// WebsocketAddr is the listen address serving /events.
	WebsocketAddr string
	// EventsFile records length-prefixed events.
	EventsFile string
	// SerialPort mirrors events to a serial device.
	SerialPort string
	SerialBaud int
	// QueueSize is the number of events buffered ahead of the sinks.
	QueueSize int
}

var defaultConfig = Config{
	SerialBaud: link.DefaultBaud,
	QueueSize:  telemetry.DefaultQueueSize,
}

func init() {
	if val := os.Getenv("SIOBRIDGE_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
	defaultConfig.Info.Ref.Type = DefaultBridgeType
	defaultConfig.Info.Ref.ID = MachineID()
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Info.Ref.Type, "type", defaultConfig.Info.Ref.Type, "Bridge type")
	flag.StringVar(&defaultConfig.Info.Ref.ID, "id", defaultConfig.Info.Ref.ID, "Bridge ID")
	flag.StringVar(&defaultConfig.Info.Meta.Description, "description", defaultConfig.Info.Meta.Description, "Bridge description")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL")
	flag.StringVar(&defaultConfig.WebsocketAddr, "ws", defaultConfig.WebsocketAddr, "Websocket listen address")
	flag.StringVar(&defaultConfig.EventsFile, "events-file", defaultConfig.EventsFile, "Record events to file")
	flag.StringVar(&defaultConfig.SerialPort, "serial", defaultConfig.SerialPort, "Mirror events to serial device")
	flag.IntVar(&defaultConfig.SerialBaud, "baud", defaultConfig.SerialBaud, "Serial baud rate")
	flag.IntVar(&defaultConfig.QueueSize, "queue-size", defaultConfig.QueueSize, "Events queued ahead of sinks")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// SetTiming records the bridge timing in the published metadata.
func (c *Config) SetTiming(bc *bridge.Config) *Config {
	c.Info.Meta.PulseWidth = uint(bc.Timing().W)
	c.Info.Meta.TimeUnit = bc.Unit().String()
	return c
}

// Env is the telemetry env of a bridge.
type Env struct {
	Config    *Config
	Publisher *telemetry.Publisher
	// Runnables are the sinks which run on their own.
	Runnables []fx.Runnable
}

// NewEnv creates Env from config.
func (c *Config) NewEnv() (*Env, error) {
	env := &Env{
		Config:    c,
		Publisher: telemetry.NewPublisher(c.QueueSize),
	}
	if c.MQTTBrokerURL != "" {
		sink, err := mqtt.NewSink(c.MQTTBrokerURL, c.Info)
		if err != nil {
			env.Close()
			return nil, fmt.Errorf("create MQTT sink error: %v", err)
		}
		env.Publisher.AddSinks(sink)
		env.Runnables = append(env.Runnables, sink)
	}
	if c.WebsocketAddr != "" {
		hub := websocket.NewHub(c.WebsocketAddr)
		env.Publisher.AddSinks(hub)
		env.Runnables = append(env.Runnables, hub)
	}
	if c.EventsFile != "" {
		sink, err := stream.Create(c.EventsFile)
		if err != nil {
			env.Close()
			return nil, fmt.Errorf("create events file error: %v", err)
		}
		env.Publisher.AddSinks(sink)
	}
	if c.SerialPort != "" {
		port, err := link.OpenPort(c.SerialPort, c.SerialBaud)
		if err != nil {
			env.Close()
			return nil, err
		}
		env.Publisher.AddSinks(link.NewWriter(port))
	}
	return env, nil
}

// MustNewEnv creates Env and fails on error.
func (c *Config) MustNewEnv() *Env {
	env, err := c.NewEnv()
	if err != nil {
		log.Fatalln(err)
	}
	return env
}

// Enabled indicates at least one sink is configured.
func (e *Env) Enabled() bool {
	return len(e.Publisher.Sinks) > 0
}

// Attach makes the bridge report to the telemetry, if enabled.
func (e *Env) Attach(b *bridge.Bridge) {
	if e.Enabled() {
		b.Machine.Observer = e.Publisher
	}
}

// AddToRunner starts the publisher and the sinks.
func (e *Env) AddToRunner(r *fx.Runner) {
	if !e.Enabled() {
		return
	}
	r.Go(e.Publisher)
	r.Go(e.Runnables...)
}

// Close closes sinks when the env is abandoned before running.
func (e *Env) Close() error {
	return e.Publisher.CloseSinks()
}
