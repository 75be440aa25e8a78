package engine

import (
	"sync"
	"time"

	"github.com/fisaks/stompbox/internal/stomp"
)

// Flasher schedules self-expiring indicator flashes. One timer per pin;
// retriggering a pin that is still lit simply resets its timer, so
// overlapping flashes collapse into one longer flash.
type Flasher struct {
	mu     sync.Mutex
	timers map[int]*time.Timer
	leds   stomp.IndicatorDriver
}

func NewFlasher(leds stomp.IndicatorDriver) *Flasher {
	return &Flasher{
		timers: make(map[int]*time.Timer),
		leds:   leds,
	}
}

// Flash drives the pin active now and inactive after d.
func (f *Flasher) Flash(pin int, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.leds.SetIndicator(pin, true)
	if t, ok := f.timers[pin]; ok {
		t.Stop()
	}
	f.timers[pin] = time.AfterFunc(d, func() {
		f.leds.SetIndicator(pin, false)
		f.mu.Lock()
		delete(f.timers, pin)
		f.mu.Unlock()
	})
}

// Stop cancels all pending flash timers.
func (f *Flasher) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for pin, t := range f.timers {
		t.Stop()
		delete(f.timers, pin)
	}
}
