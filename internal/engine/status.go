package engine

import (
	"context"
	"time"

	"github.com/fisaks/stompbox/internal/logging"
	"github.com/fisaks/stompbox/internal/stomp"
)

// StatusEngine drives the health indicators: the link LED is solid
// while a session exists and blinks while it does not, the battery LED
// blinks while the external battery collaborator reports low charge.
// Battery sampling itself lives outside this process core; it is
// consumed as a plain predicate.
type StatusEngine struct {
	transport stomp.Transport
	leds      stomp.IndicatorDriver

	linkLedPin    int
	batteryLedPin int
	lowBattery    func() bool // nil when no battery monitor is wired
	interval      time.Duration

	onLink func(s stomp.LinkState) // optional state-change hook
}

func NewStatusEngine(transport stomp.Transport, leds stomp.IndicatorDriver, linkLedPin, batteryLedPin int, lowBattery func() bool) *StatusEngine {
	return &StatusEngine{
		transport:     transport,
		leds:          leds,
		linkLedPin:    linkLedPin,
		batteryLedPin: batteryLedPin,
		lowBattery:    lowBattery,
		interval:      500 * time.Millisecond,
	}
}

// SetLinkHook registers a callback invoked on link state changes, used
// by the status bridge.
func (s *StatusEngine) SetLinkHook(fn func(stomp.LinkState)) {
	s.onLink = fn
}

func (s *StatusEngine) Run(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()

	linkLed := false
	batteryLed := false
	last := stomp.LinkState(-1) // force the first transition log

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}

		link := s.transport.LinkState()
		if link == stomp.Connected {
			linkLed = true
		} else {
			linkLed = !linkLed // blink while down
		}
		s.leds.SetIndicator(s.linkLedPin, linkLed)

		if link != last {
			last = link
			logging.Info("link state", "state", link.String())
			if s.onLink != nil {
				s.onLink(link)
			}
		}

		if s.lowBattery != nil && s.lowBattery() {
			batteryLed = !batteryLed
		} else {
			batteryLed = false
		}
		s.leds.SetIndicator(s.batteryLedPin, batteryLed)
	}
}
