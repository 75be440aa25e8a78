package engine

import (
	"context"
	"time"

	"github.com/fisaks/stompbox/internal/codec"
	"github.com/fisaks/stompbox/internal/logging"
	"github.com/fisaks/stompbox/internal/osc"
	"github.com/fisaks/stompbox/internal/stomp"
	"github.com/fisaks/stompbox/internal/widget"
)

// presenceAddress keeps the console's inbound subscription alive. The
// console expires remote clients after roughly ten seconds, so the
// renewal interval must stay below that.
const presenceAddress = "/xremote"

// SyncEngine reconciles console-reported state with local widget state
// and maintains the presence/poll cycle. Both of its loops are gated by
// the mode controller: they run only while a session exists and the
// mode is two-way.
type SyncEngine struct {
	widgets    *widget.Set
	transport  stomp.Transport
	controller *Controller
	leds       stomp.IndicatorDriver
	flasher    *Flasher

	flashConfirmed time.Duration
	renewInterval  time.Duration
	refreshSettle  time.Duration

	onState func(w *widget.Widget) // optional state-change hook
}

func NewSyncEngine(set *widget.Set, transport stomp.Transport, controller *Controller,
	leds stomp.IndicatorDriver, flasher *Flasher,
	flashConfirmed, renewInterval, refreshSettle time.Duration) *SyncEngine {
	return &SyncEngine{
		widgets:        set,
		transport:      transport,
		controller:     controller,
		leds:           leds,
		flasher:        flasher,
		flashConfirmed: flashConfirmed,
		renewInterval:  renewInterval,
		refreshSettle:  refreshSettle,
	}
}

// SetStateHook registers a callback invoked whenever console feedback
// updates a widget's state.
func (e *SyncEngine) SetStateHook(fn func(w *widget.Widget)) {
	e.onState = fn
}

// RunInbound consumes console messages and applies them to matching
// widgets. It blocks on the controller's gate whenever the session is
// down or the mode is one-way.
func (e *SyncEngine) RunInbound(ctx context.Context) {
	logging.Info("inbound loop started")
	for {
		if err := e.controller.InboundGate().Wait(ctx); err != nil {
			logging.Info("inbound loop stopped")
			return
		}
		msg, ok := e.transport.Receive()
		if !ok {
			continue
		}
		e.Reconcile(msg)
	}
}

// Reconcile applies one inbound message to every widget whose address
// matches exactly. Unmatched messages are dropped; the console chatters
// about plenty of state this surface does not control.
func (e *SyncEngine) Reconcile(msg osc.Message) {
	matches := e.widgets.MatchAddress(msg.Address)
	if len(matches) == 0 {
		logging.Debug("inbound message matched no widget", "address", msg.Address)
		return
	}
	for _, w := range matches {
		switch {
		case msg.IsInt(0) && w.Kind == widget.KindToggle:
			state := int(msg.Int(0))
			w.SetState(state)
			e.leds.SetIndicator(w.LedPin, w.LedActive(state))
			logging.Debug("toggle state from console", "widget", w.Name, "state", state)
			if e.onState != nil {
				e.onState(w)
			}
		case msg.IsFloat(0):
			// Fader feedback carries no persistent indicator state,
			// a flash acknowledges the echo.
			e.flasher.Flash(w.LedPin, e.flashConfirmed)
			logging.Debug("fader feedback", "widget", w.Name, "value", msg.Float(0))
		case msg.IsString(0):
			e.flasher.Flash(w.LedPin, e.flashConfirmed)
			if msg.IsInt(1) {
				logging.Debug("fire feedback", "widget", w.Name, "payload", msg.Str(0), "index", msg.Int(1))
			} else {
				logging.Debug("fire feedback", "widget", w.Name, "payload", msg.Str(0))
			}
		}
	}
}

// RunPoll owns the presence/poll cycle: renew the subscription just
// under the console's liveness timeout, and after each transition into
// two-way operation re-request the state of every toggle widget. While
// inactive it blanks all indicators once, then parks on the gate; stale
// LEDs are worse than dark ones.
func (e *SyncEngine) RunPoll(ctx context.Context) {
	logging.Info("poll loop started", "renew", e.renewInterval)
	blanked := false
	for {
		if ctx.Err() != nil {
			logging.Info("poll loop stopped")
			return
		}

		if e.controller.Mode() != stomp.TwoWay || e.transport.LinkState() != stomp.Connected {
			if !blanked {
				blanked = true
				e.blankIndicators()
			}
			if err := e.controller.PollGate().Wait(ctx); err != nil {
				logging.Info("poll loop stopped")
				return
			}
			continue
		}
		blanked = false

		e.transport.Send(osc.NewMessage(presenceAddress))

		if e.controller.RefreshPending() {
			// Give the renewal a moment to take effect, then pull
			// current values so the LEDs reflect console truth.
			if !sleepCtx(ctx, e.refreshSettle) {
				continue
			}
			e.RefreshToggles()
			e.controller.ClearRefresh()
		}

		sleepCtx(ctx, e.renewInterval)
	}
}

// RefreshToggles sends one address-only probe per toggle widget.
func (e *SyncEngine) RefreshToggles() {
	for _, w := range e.widgets.Toggles() {
		e.transport.Send(codec.Probe(w))
	}
	logging.Debug("re-polled toggle widgets", "count", len(e.widgets.Toggles()))
}

func (e *SyncEngine) blankIndicators() {
	for _, w := range e.widgets.All() {
		e.leds.SetIndicator(w.LedPin, false)
	}
	logging.Debug("indicators blanked")
}

// sleepCtx sleeps for d, returning false if the context was cancelled.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
