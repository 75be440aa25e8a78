// Package stomp holds the domain types and the narrow collaborator
// interfaces the engines consume: the console transport, the serial
// bus, and the physical pin drivers.
package stomp

import (
	"github.com/fisaks/stompbox/internal/osc"
)

// Mode is the process-wide connectivity mode. In OneWay mode the
// surface only sends; in TwoWay mode it also subscribes to console
// state traffic and keeps indicators synchronized.
type Mode int

const (
	OneWay Mode = iota
	TwoWay
)

func (m Mode) String() string {
	if m == TwoWay {
		return "two-way"
	}
	return "one-way"
}

// LinkState mirrors the transport session's view of connectivity.
type LinkState int

const (
	Disconnected LinkState = iota
	Connected
)

func (s LinkState) String() string {
	if s == Connected {
		return "connected"
	}
	return "disconnected"
}

// Transport is the console session. Sends are best-effort with no
// delivery confirmation; failures are invisible at this layer and are
// never retried.
type Transport interface {
	// Send transmits a message to the console.
	Send(m osc.Message)
	// Receive polls for one inbound message. It may block for a short
	// fixed interval; ok is false when nothing parseable arrived.
	Receive() (m osc.Message, ok bool)
	// LinkState reports the current session state.
	LinkState() LinkState
}

// FrameSender is the serial-bus collaborator. Best-effort.
type FrameSender interface {
	SendFrame(frame []byte)
}

// Edge is one debounced button transition.
type Edge int

const (
	EdgeNone Edge = iota
	EdgePressed
	EdgeReleased
)

// InputReader exposes the debounced buttons. The underlying driver
// owns debouncing and reports only clean transitions.
type InputReader interface {
	PollEdge(pin int) Edge
	IsHeld(pin int) bool
}

// IndicatorDriver drives the widget LEDs.
type IndicatorDriver interface {
	SetIndicator(pin int, active bool)
}
