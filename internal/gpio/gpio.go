// Package gpio implements the input and indicator collaborators on
// Linux character-device GPIO. Buttons are pull-up lines with kernel
// debouncing; the driver queues clean edges for the input machine to
// poll. Indicator LEDs can sink current from the pin, in which case the
// drive level is inverted.
package gpio

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	gpiod "github.com/warthog618/go-gpiocdev"

	"github.com/fisaks/stompbox/internal/logging"
	"github.com/fisaks/stompbox/internal/stomp"
)

type Pins struct {
	chip     *gpiod.Chip
	reverse  bool // LEDs sink current, active = drive low
	debounce time.Duration

	mu      sync.Mutex
	inputs  map[int]*inputLine
	outputs map[int]*gpiod.Line
}

type inputLine struct {
	line  *gpiod.Line
	edges chan stomp.Edge
	held  atomic.Bool
}

func Open(chipName string, reverseDrive bool, debounce time.Duration) (*Pins, error) {
	chip, err := gpiod.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open chip %s: %w", chipName, err)
	}
	return &Pins{
		chip:     chip,
		reverse:  reverseDrive,
		debounce: debounce,
		inputs:   make(map[int]*inputLine),
		outputs:  make(map[int]*gpiod.Line),
	}, nil
}

// RequestInput claims a button line. Buttons are wired to ground with
// the internal pull-up, so a falling edge is a press.
func (p *Pins) RequestInput(pin int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.inputs[pin]; ok {
		return nil // shared by several widgets
	}

	in := &inputLine{edges: make(chan stomp.Edge, 16)}
	handler := func(ev gpiod.LineEvent) {
		edge := stomp.EdgeReleased
		if ev.Type == gpiod.LineEventFallingEdge {
			edge = stomp.EdgePressed
		}
		in.held.Store(edge == stomp.EdgePressed)
		select {
		case in.edges <- edge:
		default:
			logging.Warn("edge queue overflow", "pin", pin)
		}
	}

	line, err := p.chip.RequestLine(pin,
		gpiod.AsInput,
		gpiod.WithPullUp,
		gpiod.WithBothEdges,
		gpiod.WithDebounce(p.debounce),
		gpiod.WithEventHandler(handler),
	)
	if err != nil {
		return fmt.Errorf("request input pin %d: %w", pin, err)
	}
	in.line = line
	p.inputs[pin] = in
	return nil
}

// RequestOutput claims an indicator line, initially inactive.
func (p *Pins) RequestOutput(pin int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.outputs[pin]; ok {
		return nil
	}
	line, err := p.chip.RequestLine(pin, gpiod.AsOutput(p.level(false)))
	if err != nil {
		return fmt.Errorf("request output pin %d: %w", pin, err)
	}
	p.outputs[pin] = line
	return nil
}

// PollEdge pops the oldest queued transition for the pin.
func (p *Pins) PollEdge(pin int) stomp.Edge {
	p.mu.Lock()
	in, ok := p.inputs[pin]
	p.mu.Unlock()
	if !ok {
		return stomp.EdgeNone
	}
	select {
	case e := <-in.edges:
		return e
	default:
		return stomp.EdgeNone
	}
}

func (p *Pins) IsHeld(pin int) bool {
	p.mu.Lock()
	in, ok := p.inputs[pin]
	p.mu.Unlock()
	return ok && in.held.Load()
}

func (p *Pins) SetIndicator(pin int, active bool) {
	p.mu.Lock()
	line, ok := p.outputs[pin]
	p.mu.Unlock()
	if !ok {
		return
	}
	if err := line.SetValue(p.level(active)); err != nil {
		logging.Debug("set indicator failed", "pin", pin, "error", err)
	}
}

func (p *Pins) level(active bool) int {
	if active != p.reverse {
		return 1
	}
	return 0
}

func (p *Pins) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for pin, in := range p.inputs {
		if err := in.line.Close(); err != nil {
			logging.Warn("close input line", "pin", pin, "error", err)
		}
	}
	p.inputs = make(map[int]*inputLine)
	for pin, line := range p.outputs {
		if err := line.Close(); err != nil {
			logging.Warn("close output line", "pin", pin, "error", err)
		}
	}
	p.outputs = make(map[int]*gpiod.Line)
	return p.chip.Close()
}
