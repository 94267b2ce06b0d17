// Package sh provides an interactive shell driving the bridge on the
// simulated surface.
package sh

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/siobridge/pkg/bridge"
	"github.com/robotalks/siobridge/pkg/hal"
	"github.com/robotalks/siobridge/pkg/hal/sim"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	// Watch prints events as they happen.
	Watch bool

	Shell *ishell.Shell
	Sim   *Sim
}

const shellKey = "$shell"

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&ResetCmd,
		&StatusCmd,
		&TraceCmd,
		&ClearCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *bridge.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell: ishell.New(),
		Sim:   NewSim(conf),
	}
	s.Sim.OnEvent = s.printEvent
	s.Shell.Set(shellKey, s)
	s.updatePrompt()
	for _, cmd := range commands {
		s.Shell.AddCmd(withPrompt(cmd))
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// withPrompt refreshes the prompt after the command runs.
func withPrompt(cmd *ishell.Cmd) *ishell.Cmd {
	wrapped := *cmd
	if fn := cmd.Func; fn != nil {
		wrapped.Func = func(c *ishell.Context) {
			fn(c)
			ShellFrom(c).updatePrompt()
		}
	}
	return &wrapped
}

func (s *Shell) updatePrompt() {
	st := s.Sim.Bridge.Machine.State()
	s.Shell.SetPrompt(fmt.Sprintf("[%s] > ", st.Phase))
}

func (s *Shell) printEvent(ev bridge.Event) {
	if !s.Watch {
		return
	}
	s.Shell.Println(FormatEvent(ev))
}

// FormatEvent prints an event into friendly string for display.
func FormatEvent(ev bridge.Event) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "#%d %s", ev.At, ev.Action)
	if ev.From != ev.To {
		fmt.Fprintf(&sb, " %s -> %s", ev.From, ev.To)
	}
	if ev.Action == bridge.ActionByteClock {
		fmt.Fprintf(&sb, " byte %d", ev.Stats.SessionBytes)
	}
	return sb.String()
}

// FormatActions joins actions for display, skipping none.
func FormatActions(actions []bridge.Action) string {
	names := make([]string, 0, len(actions))
	for _, a := range actions {
		if a != bridge.ActionNone {
			names = append(names, a.String())
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, " ")
}

// ParseLevel parses HIGH/LOW, 1/0 or H/L, case insensitive.
func ParseLevel(str string) (hal.Level, error) {
	switch strings.ToUpper(str) {
	case "HIGH", "H", "1":
		return hal.High, nil
	case "LOW", "L", "0":
		return hal.Low, nil
	}
	return hal.Low, fmt.Errorf("invalid level %q", str)
}

// ParseCount parses an optional non-negative count argument.
func ParseCount(args []string, index, defaultVal int, name string) (int, error) {
	if len(args) <= index {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(args[index])
	if err != nil || n < 0 {
		return 0, fmt.Errorf("Invalid %s: %s", name, args[index])
	}
	return n, nil
}

// Print prints the value as JSON in JSON mode, otherwise as text.
func Print(c *ishell.Context, val interface{}, text string) {
	if ShellFrom(c).OutputJSON {
		out, err := json.Marshal(val)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	c.Println(text)
}

// FormatStatus prints Status into friendly string for display.
func FormatStatus(st Status) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "phase=%s dtr=%s previous=%s expected=%d counter=%d t=%d\n",
		st.Phase, st.DTR, st.Previous, st.Expected, st.Counter, st.Now)
	for _, line := range hal.Outputs {
		fmt.Fprintf(&sb, "%s=%s ", line, st.Outputs[line.String()])
	}
	fmt.Fprintf(&sb, "\nsessions=%d bytes=%d total=%d", st.Sessions, st.SessionBytes, st.TotalBytes)
	return sb.String()
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// ResetCmd restarts the simulation.
	ResetCmd = ishell.Cmd{
		Name: "reset",
		Help: "[DTR(HIGH|LOW)]",
		Func: func(c *ishell.Context) {
			level := hal.High
			if len(c.Args) > 0 {
				var err error
				if level, err = ParseLevel(c.Args[0]); err != nil {
					c.Err(err)
					return
				}
			}
			if err := ShellFrom(c).Sim.Reset(level); err != nil {
				c.Err(err)
			}
		},
	}

	// StatusCmd prints the state of the bridge and the surface.
	StatusCmd = ishell.Cmd{
		Name:    "status",
		Aliases: []string{"st"},
		Help:    "",
		Func: func(c *ishell.Context) {
			st := ShellFrom(c).Sim.Status()
			Print(c, st, FormatStatus(st))
		},
	}

	// TraceCmd prints recorded output transitions.
	TraceCmd = ishell.Cmd{
		Name:    "trace",
		Aliases: []string{"tr"},
		Help:    "[LINE]",
		Func: func(c *ishell.Context) {
			trace := ShellFrom(c).Sim.Surface.Trace()
			if len(c.Args) > 0 {
				line, ok := hal.LineFromName(strings.ToUpper(c.Args[0]))
				if !ok {
					c.Err(fmt.Errorf("unknown line %q", c.Args[0]))
					return
				}
				trace = sim.Filter(trace, line)
			}
			if trace == nil {
				trace = []sim.Transition{}
			}
			Print(c, trace, strings.TrimSuffix(sim.FormatTrace(trace), "\n"))
		},
	}

	// ClearCmd drops recorded transitions and events.
	ClearCmd = ishell.Cmd{
		Name: "clear",
		Help: "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			s.Sim.Surface.ClearTrace()
			s.Sim.ClearEvents()
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(bridge.NewConfig()).Run(flag.Args()...)
}
