package engine

import (
	"context"
	"time"

	"github.com/fisaks/stompbox/internal/logging"
	"github.com/fisaks/stompbox/internal/stomp"
	"github.com/fisaks/stompbox/internal/widget"
)

// InputMachine scans the debounced buttons and emits at most one Action
// per qualifying transition. It runs per pin: every widget sharing the
// pin with a matching trigger kind receives the action.
//
// The short-press action fires on the press edge, before the hold
// duration is known. A hold that later crosses the long-press threshold
// therefore satisfies both a short-press and a long-press widget on the
// same pin; that is deliberate surface behavior, not an arbitration
// bug. The long-press action fires at most once per hold and nothing is
// emitted on the eventual release.
type InputMachine struct {
	input     stomp.InputReader
	longPress time.Duration
	interval  time.Duration
	dispatch  func(widget.Action)

	pins []*pinState
}

type pinState struct {
	pin     int
	widgets []*widget.Widget

	pressedAt time.Time
	held      bool // pressed and long-press not yet fired
}

// NewInputMachine builds the per-pin scan state. dispatch is invoked
// synchronously, so an action is fully encoded and transmitted before
// the same pin is examined again.
func NewInputMachine(set *widget.Set, input stomp.InputReader, longPress, interval time.Duration, dispatch func(widget.Action)) *InputMachine {
	m := &InputMachine{
		input:     input,
		longPress: longPress,
		interval:  interval,
		dispatch:  dispatch,
	}
	for _, pin := range set.Pins() {
		m.pins = append(m.pins, &pinState{pin: pin, widgets: set.OnPin(pin)})
	}
	return m
}

// Run scans until the context is cancelled. The scan cadence is tight
// and never throttled further; press responsiveness is the product.
func (m *InputMachine) Run(ctx context.Context) {
	t := time.NewTicker(m.interval)
	defer t.Stop()
	logging.Info("input machine started", "pins", len(m.pins), "longPress", m.longPress)
	for {
		select {
		case <-ctx.Done():
			logging.Info("input machine stopped")
			return
		case <-t.C:
			m.scan(time.Now())
		}
	}
}

func (m *InputMachine) scan(now time.Time) {
	for _, p := range m.pins {
		switch m.input.PollEdge(p.pin) {
		case stomp.EdgePressed:
			p.pressedAt = now
			p.held = true
			m.fire(p, widget.TriggerShort)
		case stomp.EdgeReleased:
			p.held = false
		case stomp.EdgeNone:
			if p.held && m.input.IsHeld(p.pin) && now.Sub(p.pressedAt) > m.longPress {
				p.held = false // once per hold
				m.fire(p, widget.TriggerLong)
			}
		}
	}
}

func (m *InputMachine) fire(p *pinState, trigger widget.TriggerKind) {
	for _, w := range p.widgets {
		if w.Trigger == trigger {
			m.dispatch(widget.Action{Widget: w, Trigger: trigger})
		}
	}
}
