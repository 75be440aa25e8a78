// Package codec turns a widget action into its two wire encodings: the
// console message and the serial-bus frame. Both carry one semantic
// payload; the frame renders it as text.
package codec

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/fisaks/stompbox/internal/osc"
	"github.com/fisaks/stompbox/internal/sysex"
	"github.com/fisaks/stompbox/internal/widget"
)

// Encode produces the console message and the serial frame for one
// qualifying action on w. Toggle widgets flip their logical state as a
// side effect; the rendered payload text is cached on the widget.
//
// The frame-size bound is a configuration precondition (validated at
// load time); an error here means a misconfigured widget slipped
// through, not a runtime condition to recover from.
func Encode(w *widget.Widget) (osc.Message, []byte, error) {
	msg := osc.NewMessage(w.Address)
	var payload string

	switch w.Kind {
	case widget.KindToggle:
		state := w.Flip()
		msg.Args = append(msg.Args, osc.Int(int32(state)))
		if state > 0 {
			payload = "ON"
		} else {
			payload = "OFF"
		}

	case widget.KindFader:
		msg.Args = append(msg.Args, osc.Float(float32(w.Value)))
		payload = strconv.Itoa(FaderSteps(w.Value))

	case widget.KindFire:
		parts := make([]string, 0, 2)
		if w.Payload != "" {
			msg.Args = append(msg.Args, osc.String(w.Payload))
			parts = append(parts, w.Payload)
		}
		if w.Index != nil && *w.Index >= 0 {
			msg.Args = append(msg.Args, osc.Int(int32(*w.Index)))
			parts = append(parts, strconv.Itoa(*w.Index))
		}
		if len(parts) == 0 {
			return osc.Message{}, nil, fmt.Errorf("codec: fire widget %s has neither payload nor index", w.Name)
		}
		payload = strings.Join(parts, " ")
	}

	w.SetLastPayload(payload)

	frame, err := sysex.Build(w.Address, payload)
	if err != nil {
		return osc.Message{}, nil, fmt.Errorf("codec: widget %s: %w", w.Name, err)
	}
	return msg, frame, nil
}

// Probe is the argument-less message that asks the console for the
// current value at a widget's address.
func Probe(w *widget.Widget) osc.Message {
	return osc.NewMessage(w.Address)
}

// FaderSteps maps a scalar in [0,1] onto the 0..127 serial value range.
func FaderSteps(v float64) int {
	return int(math.Round(v * 127))
}
