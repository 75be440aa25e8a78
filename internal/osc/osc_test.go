package osc

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncode_IntArgument(t *testing.T) {
	packet, err := NewMessage("/dca/5/on", Int(1)).Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := []byte{
		'/', 'd', 'c', 'a', '/', '5', '/', 'o', 'n', 0, 0, 0,
		',', 'i', 0, 0,
		0, 0, 0, 1,
	}
	if !bytes.Equal(packet, want) {
		t.Errorf("packet mismatch\n got %v\nwant %v", packet, want)
	}
}

func TestEncode_ArgumentlessProbe(t *testing.T) {
	packet, err := NewMessage("/config/mute/6").Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	// Address padded to a boundary, then the bare "," tag string.
	want := []byte{
		'/', 'c', 'o', 'n', 'f', 'i', 'g', '/', 'm', 'u', 't', 'e', '/', '6', 0, 0,
		',', 0, 0, 0,
	}
	if !bytes.Equal(packet, want) {
		t.Errorf("packet mismatch\n got %v\nwant %v", packet, want)
	}
}

func TestEncode_PaddingAlwaysTerminates(t *testing.T) {
	// A 3-byte address needs exactly one NUL; a 4-byte address needs four.
	for addr, wantLen := range map[string]int{"/ab": 4, "/abc": 8} {
		packet, err := NewMessage(addr).Encode()
		if err != nil {
			t.Fatalf("encode %s: %v", addr, err)
		}
		if got := len(packet) - 4; got != wantLen { // minus tag string ",\0\0\0"
			t.Errorf("address %q: padded length %d, want %d", addr, got, wantLen)
		}
		if packet[wantLen-1] != 0 {
			t.Errorf("address %q: missing NUL terminator", addr)
		}
	}
}

func TestEncode_RejectsBadAddress(t *testing.T) {
	for _, addr := range []string{"", "dca/5/on"} {
		if _, err := NewMessage(addr).Encode(); !errors.Is(err, ErrMalformed) {
			t.Errorf("address %q: expected ErrMalformed, got %v", addr, err)
		}
	}
}

func TestRoundTrip_MixedArguments(t *testing.T) {
	in := NewMessage("/load", String("snippet"), Int(13))
	packet, err := in.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := Decode(packet)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Address != "/load" || len(out.Args) != 2 {
		t.Fatalf("round trip lost shape: %+v", out)
	}
	if !out.IsString(0) || out.Str(0) != "snippet" {
		t.Errorf("arg 0: want string snippet, got %+v", out.Args[0])
	}
	if !out.IsInt(1) || out.Int(1) != 13 {
		t.Errorf("arg 1: want int 13, got %+v", out.Args[1])
	}
}

func TestRoundTrip_Float(t *testing.T) {
	packet, err := NewMessage("/ch/02/mix/09/level", Float(0.75)).Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := Decode(packet)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.IsFloat(0) || out.Float(0) != 0.75 {
		t.Errorf("want float 0.75, got %+v", out.Args)
	}
}

func TestDecode_ToleratesMissingTagString(t *testing.T) {
	// Some senders emit just the padded address for argument-less
	// messages.
	out, err := Decode([]byte{'/', 'a', 'b', 0})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Address != "/ab" || len(out.Args) != 0 {
		t.Errorf("want bare /ab, got %+v", out)
	}
}

func TestDecode_Malformed(t *testing.T) {
	cases := map[string][]byte{
		"no NUL terminator":   {'/', 'a', 'b', 'c'},
		"bad address":         {'a', 'b', 'c', 0},
		"tag without comma":   {'/', 'a', 'b', 0, 'i', 0, 0, 0},
		"truncated int arg":   {'/', 'a', 'b', 0, ',', 'i', 0, 0, 0, 1},
		"truncated float arg": {'/', 'a', 'b', 0, ',', 'f', 0, 0},
	}
	for name, packet := range cases {
		if _, err := Decode(packet); !errors.Is(err, ErrMalformed) {
			t.Errorf("%s: expected ErrMalformed, got %v", name, err)
		}
	}
}

func TestDecode_UnsupportedTag(t *testing.T) {
	// Blob tag is outside the console subset.
	packet := []byte{'/', 'a', 'b', 0, ',', 'b', 0, 0}
	if _, err := Decode(packet); !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported for blob tag, got %v", err)
	}
}

func TestIsAccessors_OutOfRange(t *testing.T) {
	m := NewMessage("/ab", Int(1))
	if m.IsInt(1) || m.IsFloat(0) || m.IsString(0) {
		t.Errorf("accessors must not report types for absent or mismatched args")
	}
}
