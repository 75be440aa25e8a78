// Package transport implements the console session over UDP. The
// console listens on a single well-known port and addresses its replies
// to the source port of the request, so the local port is fixed and
// opened once.
package transport

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/fisaks/stompbox/internal/logging"
	"github.com/fisaks/stompbox/internal/osc"
	"github.com/fisaks/stompbox/internal/stomp"
)

const readPollInterval = 10 * time.Millisecond

// UDP is the stomp.Transport implementation used against a real
// console. Sends are fire-and-forget; UDP gives no delivery feedback
// and none is wanted at this layer.
type UDP struct {
	console *net.UDPAddr

	mu     sync.Mutex
	conn   *net.UDPConn
	state  stomp.LinkState
	notify func(stomp.LinkState)

	buf [1500]byte // one datagram, console messages are tiny
}

func NewUDP(consoleAddr string, consolePort, localPort int) (*UDP, error) {
	console, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", consoleAddr, consolePort))
	if err != nil {
		return nil, fmt.Errorf("resolve console address: %w", err)
	}
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: localPort})
	if err != nil {
		return nil, fmt.Errorf("open local port %d: %w", localPort, err)
	}
	return &UDP{console: console, conn: conn, state: stomp.Disconnected}, nil
}

// SetNotify registers the link-state change callback. Register before
// calling Open.
func (t *UDP) SetNotify(fn func(stomp.LinkState)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.notify = fn
}

// Open marks the session established. UDP itself is connectionless;
// "link" here is the surface's network attachment, reported by whoever
// manages it (static wiring today, a supervisor later).
func (t *UDP) Open() {
	t.setState(stomp.Connected)
}

// MarkDown marks the session lost without closing the socket, e.g. when
// the network interface disappears.
func (t *UDP) MarkDown() {
	t.setState(stomp.Disconnected)
}

func (t *UDP) Close() error {
	t.setState(stomp.Disconnected)
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn.Close()
}

func (t *UDP) setState(s stomp.LinkState) {
	t.mu.Lock()
	changed := t.state != s
	t.state = s
	notify := t.notify
	t.mu.Unlock()
	if changed && notify != nil {
		notify(s)
	}
}

func (t *UDP) LinkState() stomp.LinkState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Send transmits one message to the console. Failures are logged at
// debug level and otherwise invisible; nothing retries.
func (t *UDP) Send(m osc.Message) {
	packet, err := m.Encode()
	if err != nil {
		logging.Error("encode outbound message", "address", m.Address, "error", err)
		return
	}
	if _, err := t.conn.WriteToUDP(packet, t.console); err != nil {
		logging.Debug("send failed", "address", m.Address, "error", err)
	}
}

// Receive polls for one inbound message, blocking at most for the fixed
// short read interval. Malformed packets are logged and dropped.
func (t *UDP) Receive() (osc.Message, bool) {
	if err := t.conn.SetReadDeadline(time.Now().Add(readPollInterval)); err != nil {
		return osc.Message{}, false
	}
	n, from, err := t.conn.ReadFromUDP(t.buf[:])
	if err != nil {
		// Deadline expiry is the normal idle path.
		if ne, ok := err.(net.Error); !ok || !ne.Timeout() {
			logging.Debug("receive failed", "error", err)
		}
		return osc.Message{}, false
	}
	msg, err := osc.Decode(t.buf[:n])
	if err != nil {
		logging.Warn("malformed inbound packet", "from", from.String(), "bytes", n, "error", err)
		return osc.Message{}, false
	}
	return msg, true
}
