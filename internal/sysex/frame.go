// Package sysex builds the fixed-format serial-bus frames that mirror
// every console command onto the MIDI UART. A frame is the manufacturer
// preamble, the ASCII command address, one spacer byte, the ASCII
// payload, and the end-of-exclusive terminator.
package sysex

import (
	"errors"
	"fmt"
)

// MaxFrameLen bounds the rendered frame. The downstream receiver uses a
// fixed 64-byte buffer, so the bound is a hard precondition: callers
// validate their payloads at configuration time rather than relying on
// truncation here.
const MaxFrameLen = 64

var (
	header = []byte{0xF0, 0x00, 0x20, 0x32, 0x32}
	spacer = byte(0x20)
	footer = byte(0xF7)
)

var ErrFrameTooLarge = errors.New("sysex: frame exceeds maximum length")

// Build renders a frame for the given command address and payload text.
// Returns ErrFrameTooLarge if the rendered frame would not fit; this is
// a configuration error, not a runtime condition.
func Build(address, payload string) ([]byte, error) {
	n := len(header) + len(address) + 1 + len(payload) + 1
	if n > MaxFrameLen {
		return nil, fmt.Errorf("%w: %d bytes for %s", ErrFrameTooLarge, n, address)
	}
	frame := make([]byte, 0, n)
	frame = append(frame, header...)
	frame = append(frame, address...)
	frame = append(frame, spacer)
	frame = append(frame, payload...)
	frame = append(frame, footer)
	return frame, nil
}

// Fits reports whether a frame for address and payload would stay
// within MaxFrameLen. Used by config validation.
func Fits(address, payload string) bool {
	return len(header)+len(address)+1+len(payload)+1 <= MaxFrameLen
}
