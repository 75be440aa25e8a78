package engine

import (
	"testing"
	"time"
)

func TestFlasher_ExpiresAfterDuration(t *testing.T) {
	leds := newFakeLeds()
	f := NewFlasher(leds)
	defer f.Stop()

	f.Flash(4, 20*time.Millisecond)
	if !leds.state(4) {
		t.Fatalf("flash should drive the indicator active immediately")
	}
	time.Sleep(60 * time.Millisecond)
	if leds.state(4) {
		t.Errorf("flash should have expired")
	}
}

func TestFlasher_RetriggerExtendsTheFlash(t *testing.T) {
	leds := newFakeLeds()
	f := NewFlasher(leds)
	defer f.Stop()

	f.Flash(4, 40*time.Millisecond)
	time.Sleep(25 * time.Millisecond)
	f.Flash(4, 40*time.Millisecond) // restart the window

	time.Sleep(25 * time.Millisecond) // 50ms after the first flash
	if !leds.state(4) {
		t.Errorf("retrigger should keep the indicator lit past the first window")
	}
	time.Sleep(40 * time.Millisecond)
	if leds.state(4) {
		t.Errorf("indicator should go dark after the extended window")
	}
}

func TestFlasher_IndependentPins(t *testing.T) {
	leds := newFakeLeds()
	f := NewFlasher(leds)
	defer f.Stop()

	f.Flash(4, 20*time.Millisecond)
	f.Flash(5, 200*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	if leds.state(4) {
		t.Errorf("short flash should have expired")
	}
	if !leds.state(5) {
		t.Errorf("long flash on another pin must not be affected")
	}
}
