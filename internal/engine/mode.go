package engine

import (
	"sync"

	"github.com/fisaks/stompbox/internal/logging"
	"github.com/fisaks/stompbox/internal/stomp"
)

// Controller owns the connectivity mode and the suspend/resume gating
// of the synchronization loops. The input loop is never suspended; the
// inbound and poll loops run only while a transport session exists and
// the mode is two-way.
//
// The refresh-pending flag is set on every transition into two-way
// operation and cleared by the poll loop once it has re-requested the
// console state of every toggle widget.
type Controller struct {
	mu      sync.Mutex
	mode    stomp.Mode
	link    stomp.LinkState
	refresh bool

	inbound *Gate
	poll    *Gate
}

func NewController() *Controller {
	// Two-way from boot, first link-up triggers a full state refresh.
	return &Controller{
		mode:    stomp.TwoWay,
		link:    stomp.Disconnected,
		refresh: true,
		inbound: NewGate(false),
		poll:    NewGate(false),
	}
}

func (c *Controller) Mode() stomp.Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// SetMode is the operator mode switch. Entering two-way sets
// refresh-pending and resumes the sync loops if a session exists.
func (c *Controller) SetMode(m stomp.Mode) {
	c.mu.Lock()
	if m == c.mode {
		c.mu.Unlock()
		return
	}
	c.mode = m
	if m == stomp.TwoWay {
		c.refresh = true
	}
	c.mu.Unlock()

	logging.Info("mode switched", "mode", m.String())
	c.recompute()
}

// OnLinkEstablished is called by the transport lifecycle when a session
// becomes available.
func (c *Controller) OnLinkEstablished() {
	c.mu.Lock()
	c.link = stomp.Connected
	c.refresh = true
	c.mu.Unlock()

	logging.Info("link established, resuming sync loops")
	c.recompute()
}

// OnLinkLost suspends the inbound loop; the poll loop self-suspends
// when it next observes the dead link. Reconnecting is the transport's
// problem.
func (c *Controller) OnLinkLost() {
	c.mu.Lock()
	c.link = stomp.Disconnected
	c.mu.Unlock()

	logging.Info("link lost, suspending sync loops")
	c.recompute()
}

func (c *Controller) LinkUp() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.link == stomp.Connected
}

func (c *Controller) RefreshPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refresh
}

func (c *Controller) ClearRefresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refresh = false
}

func (c *Controller) InboundGate() *Gate { return c.inbound }
func (c *Controller) PollGate() *Gate    { return c.poll }

func (c *Controller) recompute() {
	c.mu.Lock()
	active := c.mode == stomp.TwoWay && c.link == stomp.Connected
	c.mu.Unlock()
	c.inbound.SetOpen(active)
	c.poll.SetOpen(active)
}
