// console-sim emulates the slice of console behavior the surface
// depends on: it stores values per command address, answers
// address-only probes with the stored value, and echoes state changes
// to every client holding a live remote subscription.
package main

import (
	"flag"
	"log"
	"net"
	"sync"
	"time"

	"github.com/fisaks/stompbox/internal/osc"
)

const subscriptionTTL = 10 * time.Second

type sim struct {
	conn *net.UDPConn

	mu     sync.Mutex
	values map[string]osc.Arg
	subs   map[string]subscriber
}

type subscriber struct {
	addr    *net.UDPAddr
	expires time.Time
}

func main() {
	port := flag.Int("port", 10023, "UDP port to listen on (X32 uses 10023, X-AIR 10024)")
	flag.Parse()

	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: *port})
	if err != nil {
		log.Fatalf("listen: %v", err)
	}
	defer conn.Close()

	s := &sim{
		conn:   conn,
		values: make(map[string]osc.Arg),
		subs:   make(map[string]subscriber),
	}
	log.Printf("console simulator listening on :%d", *port)
	s.run()
}

func (s *sim) run() {
	buf := make([]byte, 1500)
	for {
		n, from, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			log.Fatalf("read: %v", err)
		}
		msg, err := osc.Decode(buf[:n])
		if err != nil {
			log.Printf("drop malformed packet from %s: %v", from, err)
			continue
		}
		s.handle(msg, from)
	}
}

func (s *sim) handle(msg osc.Message, from *net.UDPAddr) {
	if msg.Address == "/xremote" {
		s.mu.Lock()
		s.subs[from.String()] = subscriber{addr: from, expires: time.Now().Add(subscriptionTTL)}
		s.mu.Unlock()
		return
	}

	if len(msg.Args) == 0 {
		// Probe: answer with the stored value, zero if never set.
		s.mu.Lock()
		arg, ok := s.values[msg.Address]
		s.mu.Unlock()
		if !ok {
			arg = osc.Int(0)
		}
		s.send(osc.NewMessage(msg.Address, arg), from)
		return
	}

	// State change: store the first argument and echo to subscribers.
	s.mu.Lock()
	s.values[msg.Address] = msg.Args[0]
	var live []*net.UDPAddr
	now := time.Now()
	for key, sub := range s.subs {
		if now.After(sub.expires) {
			delete(s.subs, key)
			continue
		}
		live = append(live, sub.addr)
	}
	s.mu.Unlock()

	log.Printf("%s <- %v (echo to %d subscribers)", msg.Address, msg.Args, len(live))
	for _, to := range live {
		s.send(msg, to)
	}
}

func (s *sim) send(msg osc.Message, to *net.UDPAddr) {
	packet, err := msg.Encode()
	if err != nil {
		log.Printf("encode %s: %v", msg.Address, err)
		return
	}
	if _, err := s.conn.WriteToUDP(packet, to); err != nil {
		log.Printf("send to %s: %v", to, err)
	}
}
