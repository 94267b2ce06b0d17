package bridge

import (
	"context"

	"github.com/golang/glog"
)

// Bridge runs the polling loop around a Machine.
type Bridge struct {
	Machine *Machine
}

// NewBridge creates a Bridge.
func NewBridge(m *Machine) *Bridge {
	return &Bridge{Machine: m}
}

// Name implements framework.Named.
func (b *Bridge) Name() string {
	return "bridge"
}

// Run implements framework.Runnable. The context is only checked between
// iterations: a protocol action always runs to completion.
func (b *Bridge) Run(ctx context.Context) error {
	glog.Infof("polling loop started, W=%d", b.Machine.Timing.W)
	done := ctx.Done()
	for {
		select {
		case <-done:
			st := b.Machine.Stats()
			glog.Infof("polling loop stopped after %d sessions, %d bytes", st.Sessions, st.TotalBytes)
			return ctx.Err()
		default:
			b.Machine.Tick()
		}
	}
}

// RunForever never returns, for targets without a process lifecycle.
func (b *Bridge) RunForever() {
	for {
		b.Machine.Tick()
	}
}

// Settle ticks until an iteration takes no action and returns the actions
// taken. It stops after max actions if max > 0.
func (b *Bridge) Settle(max int) []Action {
	var actions []Action
	for max <= 0 || len(actions) < max {
		a := b.Machine.Tick()
		if a == ActionNone {
			break
		}
		actions = append(actions, a)
	}
	return actions
}
