// Package osc implements the small OSC 1.0 subset the console speaks:
// an address pattern plus int32 ("i"), float32 ("f") and string ("s")
// arguments. Bundles, blobs and timetags are not used by the console
// remote-control protocol and are rejected on decode.
package osc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrMalformed   = errors.New("osc: malformed packet")
	ErrUnsupported = errors.New("osc: unsupported type tag")
)

// Arg is one typed OSC argument. Exactly one field is meaningful,
// selected by Kind.
type Arg struct {
	Kind   ArgKind
	Int    int32
	Float  float32
	String string
}

type ArgKind int

const (
	ArgInt ArgKind = iota
	ArgFloat
	ArgString
)

func Int(v int32) Arg     { return Arg{Kind: ArgInt, Int: v} }
func Float(v float32) Arg { return Arg{Kind: ArgFloat, Float: v} }
func String(v string) Arg { return Arg{Kind: ArgString, String: v} }

// Message is a single OSC message: address plus arguments.
// A message with no arguments is valid and is how the console is
// probed for its current value.
type Message struct {
	Address string
	Args    []Arg
}

func NewMessage(address string, args ...Arg) Message {
	return Message{Address: address, Args: args}
}

// IsInt reports whether argument i exists and is an int32.
func (m Message) IsInt(i int) bool {
	return i < len(m.Args) && m.Args[i].Kind == ArgInt
}

func (m Message) IsFloat(i int) bool {
	return i < len(m.Args) && m.Args[i].Kind == ArgFloat
}

func (m Message) IsString(i int) bool {
	return i < len(m.Args) && m.Args[i].Kind == ArgString
}

func (m Message) Int(i int) int32     { return m.Args[i].Int }
func (m Message) Float(i int) float32 { return m.Args[i].Float }
func (m Message) Str(i int) string    { return m.Args[i].String }

// Encode renders the message as an OSC packet.
func (m Message) Encode() ([]byte, error) {
	if m.Address == "" || m.Address[0] != '/' {
		return nil, fmt.Errorf("%w: address %q", ErrMalformed, m.Address)
	}
	var b []byte
	b = appendPaddedString(b, m.Address)

	tags := make([]byte, 0, len(m.Args)+1)
	tags = append(tags, ',')
	for _, a := range m.Args {
		switch a.Kind {
		case ArgInt:
			tags = append(tags, 'i')
		case ArgFloat:
			tags = append(tags, 'f')
		case ArgString:
			tags = append(tags, 's')
		default:
			return nil, ErrUnsupported
		}
	}
	b = appendPaddedString(b, string(tags))

	for _, a := range m.Args {
		switch a.Kind {
		case ArgInt:
			b = binary.BigEndian.AppendUint32(b, uint32(a.Int))
		case ArgFloat:
			b = binary.BigEndian.AppendUint32(b, math.Float32bits(a.Float))
		case ArgString:
			b = appendPaddedString(b, a.String)
		}
	}
	return b, nil
}

// Decode parses an OSC packet into a Message.
func Decode(packet []byte) (Message, error) {
	var m Message

	addr, rest, err := readPaddedString(packet)
	if err != nil {
		return m, err
	}
	if addr == "" || addr[0] != '/' {
		return m, fmt.Errorf("%w: address %q", ErrMalformed, addr)
	}
	m.Address = addr

	// An address with no type tag string is tolerated; some senders
	// omit it for argument-less messages.
	if len(rest) == 0 {
		return m, nil
	}

	tags, rest, err := readPaddedString(rest)
	if err != nil {
		return m, err
	}
	if tags == "" || tags[0] != ',' {
		return m, fmt.Errorf("%w: type tags %q", ErrMalformed, tags)
	}

	for _, tag := range tags[1:] {
		switch tag {
		case 'i':
			if len(rest) < 4 {
				return m, ErrMalformed
			}
			m.Args = append(m.Args, Int(int32(binary.BigEndian.Uint32(rest))))
			rest = rest[4:]
		case 'f':
			if len(rest) < 4 {
				return m, ErrMalformed
			}
			m.Args = append(m.Args, Float(math.Float32frombits(binary.BigEndian.Uint32(rest))))
			rest = rest[4:]
		case 's':
			var s string
			s, rest, err = readPaddedString(rest)
			if err != nil {
				return m, err
			}
			m.Args = append(m.Args, String(s))
		default:
			return m, fmt.Errorf("%w: %q", ErrUnsupported, tag)
		}
	}
	return m, nil
}

// appendPaddedString appends s, a NUL terminator, and padding up to the
// next 4-byte boundary.
func appendPaddedString(b []byte, s string) []byte {
	b = append(b, s...)
	for n := 4 - len(s)%4; n > 0; n-- {
		b = append(b, 0)
	}
	return b
}

func readPaddedString(b []byte) (string, []byte, error) {
	i := strings.IndexByte(string(b), 0)
	if i < 0 {
		return "", nil, ErrMalformed
	}
	s := string(b[:i])
	end := i + (4 - i%4)
	if end > len(b) {
		return "", nil, ErrMalformed
	}
	return s, b[end:], nil
}
