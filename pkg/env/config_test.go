package env

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/siobridge/pkg/bridge"
	fx "github.com/robotalks/siobridge/pkg/framework"
	"github.com/robotalks/siobridge/pkg/hal"
	"github.com/robotalks/siobridge/pkg/hal/sim"
	"github.com/robotalks/siobridge/pkg/telemetry"
	"github.com/robotalks/siobridge/pkg/telemetry/stream"
)

func TestDefaults(t *testing.T) {
	conf := NewConfig()
	require.Equal(t, DefaultBridgeType, conf.Info.Ref.Type)
	require.Equal(t, telemetry.DefaultQueueSize, conf.QueueSize)

	conf.SetTiming(&bridge.Config{PulseWidth: 20, TimeUnit: time.Millisecond})
	require.Equal(t, uint(20), conf.Info.Meta.PulseWidth)
	require.Equal(t, "1ms", conf.Info.Meta.TimeUnit)
}

func TestNoSinks(t *testing.T) {
	conf := &Config{}
	env, err := conf.NewEnv()
	require.NoError(t, err)
	require.False(t, env.Enabled())

	b, err := bridge.NewConfig().NewBridge(sim.New())
	require.NoError(t, err)
	env.Attach(b)
	require.Nil(t, b.Machine.Observer)

	r := fx.NewRunner()
	env.AddToRunner(r)
	require.Empty(t, r.Runners)
	require.NoError(t, env.Close())
}

func TestMQTTSinkRequiresID(t *testing.T) {
	conf := &Config{MQTTBrokerURL: "mqtt://localhost:1883/"}
	_, err := conf.NewEnv()
	require.Error(t, err)
}

func TestEventsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.bin")
	conf := &Config{EventsFile: path, WebsocketAddr: "127.0.0.1:0"}
	env, err := conf.NewEnv()
	require.NoError(t, err)
	require.True(t, env.Enabled())
	require.Len(t, env.Publisher.Sinks, 2)
	require.Len(t, env.Runnables, 1)

	s := sim.New()
	b, err := bridge.NewConfig().NewBridge(s)
	require.NoError(t, err)
	env.Attach(b)
	require.Equal(t, env.Publisher, b.Machine.Observer)

	s.SetInput(hal.LineDTR, hal.Low)
	b.Settle(0)
	s.SetInput(hal.LineDTR, hal.High)
	b.Settle(0)
	require.NoError(t, env.Close())

	// Events are only written by the publisher loop; nothing was run.
	r, err := stream.Open(path)
	require.NoError(t, err)
	defer r.Close()
	_, err = r.ReadPacket()
	require.Equal(t, io.EOF, err)
}

func openFiles(t *testing.T, path string) int {
	fds, err := os.ReadDir("/proc/self/fd")
	if err != nil {
		t.Skip("no /proc/self/fd")
	}
	var n int
	for _, fd := range fds {
		if target, err := os.Readlink(filepath.Join("/proc/self/fd", fd.Name())); err == nil && target == path {
			n++
		}
	}
	return n
}

func TestNewEnvFailureClosesSinks(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "mqtt.bin")
	conf := &Config{MQTTBrokerURL: "mqtt://localhost:1883/", EventsFile: path}
	_, err := conf.NewEnv()
	require.Error(t, err)
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))

	path = filepath.Join(dir, "serial.bin")
	conf = &Config{EventsFile: path, SerialPort: filepath.Join(dir, "no-such-tty")}
	_, err = conf.NewEnv()
	require.Error(t, err)
	require.FileExists(t, path)
	require.Zero(t, openFiles(t, path))
}
