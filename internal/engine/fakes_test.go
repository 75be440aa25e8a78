package engine

import (
	"sync"

	"github.com/fisaks/stompbox/internal/osc"
	"github.com/fisaks/stompbox/internal/stomp"
)

// fakeTransport records sends and serves queued inbound messages.
type fakeTransport struct {
	mu    sync.Mutex
	sent  []osc.Message
	inbox []osc.Message
	link  stomp.LinkState
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{link: stomp.Connected}
}

func (f *fakeTransport) Send(m osc.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, m)
}

func (f *fakeTransport) Receive() (osc.Message, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.inbox) == 0 {
		return osc.Message{}, false
	}
	m := f.inbox[0]
	f.inbox = f.inbox[1:]
	return m, true
}

func (f *fakeTransport) LinkState() stomp.LinkState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.link
}

func (f *fakeTransport) setLink(s stomp.LinkState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.link = s
}

func (f *fakeTransport) sentMessages() []osc.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]osc.Message, len(f.sent))
	copy(out, f.sent)
	return out
}

// fakeLeds records indicator drive levels.
type fakeLeds struct {
	mu     sync.Mutex
	states map[int]bool
	writes int
}

func newFakeLeds() *fakeLeds {
	return &fakeLeds{states: make(map[int]bool)}
}

func (f *fakeLeds) SetIndicator(pin int, active bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[pin] = active
	f.writes++
}

func (f *fakeLeds) state(pin int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.states[pin]
}

func (f *fakeLeds) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

// fakeFrames records serial frames.
type fakeFrames struct {
	mu     sync.Mutex
	frames [][]byte
}

func (f *fakeFrames) SendFrame(frame []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]byte, len(frame))
	copy(cp, frame)
	f.frames = append(f.frames, cp)
}

func (f *fakeFrames) sentFrames() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.frames...)
}

// fakeInput serves scripted edges per pin.
type fakeInput struct {
	mu    sync.Mutex
	edges map[int][]stomp.Edge
	held  map[int]bool
}

func newFakeInput() *fakeInput {
	return &fakeInput{
		edges: make(map[int][]stomp.Edge),
		held:  make(map[int]bool),
	}
}

func (f *fakeInput) press(pin int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edges[pin] = append(f.edges[pin], stomp.EdgePressed)
	f.held[pin] = true
}

func (f *fakeInput) release(pin int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edges[pin] = append(f.edges[pin], stomp.EdgeReleased)
	f.held[pin] = false
}

func (f *fakeInput) PollEdge(pin int) stomp.Edge {
	f.mu.Lock()
	defer f.mu.Unlock()
	q := f.edges[pin]
	if len(q) == 0 {
		return stomp.EdgeNone
	}
	f.edges[pin] = q[1:]
	return q[0]
}

func (f *fakeInput) IsHeld(pin int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.held[pin]
}
