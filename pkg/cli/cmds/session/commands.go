// Package session provides shell commands driving a transmission session.
package session

import (
	"fmt"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/siobridge/pkg/bridge"
	"github.com/robotalks/siobridge/pkg/cli/sh"
)

var (
	// DTRCmd drives the DTR input.
	DTRCmd = ishell.Cmd{
		Name: "dtr",
		Help: "[HIGH|LOW] (toggle if omitted)",
		Func: func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			if len(c.Args) == 0 {
				c.Println(s.Sim.ToggleDTR())
				return
			}
			level, err := sh.ParseLevel(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			s.Sim.SetDTR(level)
		},
	}

	// PulseCmd emits request pulses.
	PulseCmd = ishell.Cmd{
		Name:    "pulse",
		Aliases: []string{"p"},
		Help:    "[COUNT]",
		Func: func(c *ishell.Context) {
			n, err := sh.ParseCount(c.Args, 0, 1, "COUNT")
			if err != nil {
				c.Err(err)
				return
			}
			sh.ShellFrom(c).Sim.Pulse(n)
		},
	}

	// TickCmd runs polling iterations.
	TickCmd = ishell.Cmd{
		Name:    "tick",
		Aliases: []string{"t"},
		Help:    "[COUNT]",
		Func: func(c *ishell.Context) {
			n, err := sh.ParseCount(c.Args, 0, 1, "COUNT")
			if err != nil {
				c.Err(err)
				return
			}
			printActions(c, sh.ShellFrom(c).Sim.Tick(n))
		},
	}

	// SettleCmd ticks until nothing is due.
	SettleCmd = ishell.Cmd{
		Name:    "settle",
		Aliases: []string{"s"},
		Help:    "[MAX]",
		Func: func(c *ishell.Context) {
			max, err := sh.ParseCount(c.Args, 0, 0, "MAX")
			if err != nil {
				c.Err(err)
				return
			}
			printActions(c, sh.ShellFrom(c).Sim.Settle(max))
		},
	}

	// ScenarioCmd runs a complete session and checks the clock edges.
	ScenarioCmd = ishell.Cmd{
		Name: "scenario",
		Help: "BYTES",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("BYTES required"))
				return
			}
			k, err := sh.ParseCount(c.Args, 0, 0, "BYTES")
			if err != nil {
				c.Err(err)
				return
			}
			s := sh.ShellFrom(c)
			if st := s.Sim.Bridge.Machine.State(); st.Phase != bridge.Idle {
				c.Err(fmt.Errorf("bridge is %s, reset first", st.Phase))
				return
			}
			res := s.Sim.Scenario(k)
			text := fmt.Sprintf("%d bytes in %d units: SIO rises %d/%d, SPI rises %d/%d",
				res.Bytes, res.Duration,
				res.SIORises, res.Expected["sio_rises"],
				res.SPIRises, res.Expected["spi_rises"])
			if !res.Matches() {
				text += " MISMATCH"
			}
			sh.Print(c, res, text)
		},
	}

	// WatchCmd turns event printing on or off.
	WatchCmd = ishell.Cmd{
		Name: "watch",
		Help: "[on|off]",
		Func: func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			switch {
			case len(c.Args) == 0:
				s.Watch = !s.Watch
			case c.Args[0] == "on":
				s.Watch = true
			case c.Args[0] == "off":
				s.Watch = false
			default:
				c.Err(fmt.Errorf("on or off expected"))
				return
			}
			c.Printf("watch %v\n", s.Watch)
		},
	}

	// EventsCmd prints the collected events.
	EventsCmd = ishell.Cmd{
		Name:    "events",
		Aliases: []string{"ev"},
		Help:    "",
		Func: func(c *ishell.Context) {
			for _, ev := range sh.ShellFrom(c).Sim.Events {
				c.Println(sh.FormatEvent(ev))
			}
		},
	}
)

func printActions(c *ishell.Context, actions []bridge.Action) {
	names := make([]string, 0, len(actions))
	for _, a := range actions {
		names = append(names, a.String())
	}
	sh.Print(c, names, sh.FormatActions(actions))
}

func init() {
	sh.AddCmds(
		&DTRCmd,
		&PulseCmd,
		&TickCmd,
		&SettleCmd,
		&ScenarioCmd,
		&WatchCmd,
		&EventsCmd,
	)
}
