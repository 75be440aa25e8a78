// Package serialbus sends the mirrored command frames out the MIDI
// UART. Best-effort like everything else on the wire: a failed write is
// logged and forgotten.
package serialbus

import (
	"fmt"
	"sync"
	"time"

	"github.com/goburrow/serial"

	"github.com/fisaks/stompbox/internal/logging"
)

type Bus struct {
	mu   sync.Mutex
	port serial.Port
	addr string
}

// Open opens the UART. MIDI lines run 31250 baud, 8 data bits, 1 stop
// bit, no parity.
func Open(address string, baud int) (*Bus, error) {
	port, err := serial.Open(&serial.Config{
		Address:  address,
		BaudRate: baud,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", address, err)
	}
	logging.Info("serial bus opened", "port", address, "baud", baud)
	return &Bus{port: port, addr: address}, nil
}

func (b *Bus) SendFrame(frame []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.port.Write(frame); err != nil {
		logging.Debug("serial write failed", "port", b.addr, "bytes", len(frame), "error", err)
	}
}

func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.port.Close()
}

// Nop is the frame sender used when no UART is configured.
type Nop struct{}

func (Nop) SendFrame([]byte) {}
