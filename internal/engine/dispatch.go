package engine

import (
	"time"

	"github.com/fisaks/stompbox/internal/codec"
	"github.com/fisaks/stompbox/internal/logging"
	"github.com/fisaks/stompbox/internal/stomp"
	"github.com/fisaks/stompbox/internal/widget"
)

// Dispatcher turns a qualifying Action into wire traffic: the console
// message, an optional confirmation probe, and the serial frame. All
// sends are best-effort; there is no delivery feedback at this layer
// and nothing is retried. The control loop stays fast, the console
// echo (when it comes) is the acknowledgement.
type Dispatcher struct {
	transport  stomp.Transport
	serial     stomp.FrameSender
	controller *Controller
	flasher    *Flasher
	flashLocal time.Duration

	onDispatch func(w *widget.Widget) // optional state-change hook
}

func NewDispatcher(transport stomp.Transport, serial stomp.FrameSender, controller *Controller, flasher *Flasher, flashLocal time.Duration) *Dispatcher {
	return &Dispatcher{
		transport:  transport,
		serial:     serial,
		controller: controller,
		flasher:    flasher,
		flashLocal: flashLocal,
	}
}

// SetDispatchHook registers a callback invoked after each dispatched
// action, used by the status bridge to publish widget state.
func (d *Dispatcher) SetDispatchHook(fn func(w *widget.Widget)) {
	d.onDispatch = fn
}

// Dispatch processes one action end to end.
func (d *Dispatcher) Dispatch(a widget.Action) {
	w := a.Widget
	msg, frame, err := codec.Encode(w)
	if err != nil {
		// Frame bound violations are configuration errors caught at
		// load time; reaching this means a widget was mutated badly.
		logging.Error("encode failed", "widget", w.Name, "error", err)
		return
	}

	mode := d.controller.Mode()

	d.transport.Send(msg)

	// The console is not known to echo mutes, faders or mute groups on
	// its own, so in two-way mode re-request the value explicitly and
	// let the inbound loop pick up the answer. Fire widgets have no
	// reliable echo format and get no probe.
	if mode == stomp.TwoWay && (w.Kind == widget.KindToggle || w.Kind == widget.KindFader) {
		d.transport.Send(codec.Probe(w))
	}

	// The serial mirror runs regardless of connectivity mode.
	d.serial.SendFrame(frame)

	// In one-way mode the short local flash is the only acknowledgement
	// the operator gets: it means "sent", not "confirmed".
	if mode == stomp.OneWay {
		d.flasher.Flash(w.LedPin, d.flashLocal)
	}

	logging.Debug("dispatched",
		"widget", w.Name,
		"trigger", a.Trigger.String(),
		"address", w.Address,
		"payload", w.LastPayload(),
		"mode", mode.String(),
	)

	if d.onDispatch != nil {
		d.onDispatch(w)
	}
}
