// Package widget models the configured control points of the surface:
// their static configuration and the runtime state the engines mutate.
package widget

import (
	"sync"
)

// TriggerKind selects which press gesture a widget responds to. Several
// widgets may share one button pin as long as each listens for a
// distinct trigger, so a single button can carry both a short-press and
// a long-press command.
type TriggerKind int

const (
	TriggerNone TriggerKind = iota // widget configured but inert
	TriggerShort
	TriggerLong
)

func (t TriggerKind) String() string {
	switch t {
	case TriggerShort:
		return "short"
	case TriggerLong:
		return "long"
	default:
		return "none"
	}
}

// Kind is the command semantics of a widget.
type Kind int

const (
	KindToggle Kind = iota // binary on/off with console state feedback
	KindFader              // scalar 0.0-1.0, no persisted feedback
	KindFire               // one-shot command with string/index payload
)

func (k Kind) String() string {
	switch k {
	case KindToggle:
		return "toggle"
	case KindFader:
		return "fader"
	default:
		return "fire"
	}
}

// Config is the immutable per-widget configuration supplied at startup.
// Only the fields relevant to Kind are meaningful: Payload and Index
// for KindFire (at least one must be present), Value for KindFader.
type Config struct {
	Name       string
	ButtonPin  int
	LedPin     int
	Trigger    TriggerKind
	Kind       Kind
	ReverseLed bool // LED drive is the inverse of the logical state
	Address    string

	Payload string  // KindFire: command text, "" if unused
	Index   *int    // KindFire: command index, nil if unused
	Value   float64 // KindFader: scalar in [0,1]
}

// Widget couples a Config with the runtime state mutated by the input
// and synchronization engines. State access is mutex-guarded; the two
// writers run on different loops.
type Widget struct {
	Config

	mu          sync.Mutex
	state       int    // toggle state 0/1, as last known
	lastPayload string // last rendered serial payload text
}

func New(cfg Config) *Widget {
	return &Widget{Config: cfg}
}

// State returns the current logical toggle state.
func (w *Widget) State() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// SetState records console-reported state.
func (w *Widget) SetState(s int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = s
}

// Flip inverts the toggle state and returns the new value.
func (w *Widget) Flip() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state < 1 {
		w.state = 1
	} else {
		w.state = 0
	}
	return w.state
}

// LastPayload returns the serial payload text cached by the last encode.
func (w *Widget) LastPayload() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastPayload
}

func (w *Widget) SetLastPayload(p string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastPayload = p
}

// LedActive maps a logical state to the LED drive level, honoring
// reversed polarity (mutes light the LED when the channel is off).
func (w *Widget) LedActive(state int) bool {
	active := state > 0
	if w.ReverseLed {
		return !active
	}
	return active
}

// Action is the ephemeral product of one qualifying press transition.
// It is consumed immediately by the dispatch engine and never stored.
type Action struct {
	Widget  *Widget
	Trigger TriggerKind
}
