// Package bridge publishes surface telemetry to an MQTT broker and
// accepts a remote mode switch. It is an optional observer: the control
// loops never wait on it and run identically without it.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/fisaks/stompbox/internal/logging"
	"github.com/fisaks/stompbox/internal/stomp"
	"github.com/fisaks/stompbox/internal/widget"
)

type Config struct {
	BrokerURL        string
	ClientName       string
	TopicPrefix      string
	ConnectTimeout   time.Duration
	SubscribeTimeout time.Duration
}

type Bridge struct {
	config Config
	client mqtt.Client
	onMode func(stomp.Mode)
}

// WidgetStateMessage is the retained per-widget state document.
type WidgetStateMessage struct {
	Timestamp time.Time `json:"timestamp"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Kind      string    `json:"kind"`
	State     int       `json:"state"`
	Payload   string    `json:"payload,omitempty"`
}

func New(cfg Config) *Bridge {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.SubscribeTimeout <= 0 {
		cfg.SubscribeTimeout = 5 * time.Second
	}
	return &Bridge{config: cfg}
}

// SetModeHandler registers the callback driven by the mode/set topic.
// Register before Connect.
func (b *Bridge) SetModeHandler(fn func(stomp.Mode)) {
	b.onMode = fn
}

func (b *Bridge) Connect(ctx context.Context) error {
	if b.client == nil {
		opts := mqtt.NewClientOptions().AddBroker(b.config.BrokerURL)
		opts.SetClientID("stompbox-" + b.config.ClientName)
		opts.SetAutoReconnect(true)
		opts.OnConnect = func(c mqtt.Client) {
			b.subscribeModeSet()
		}
		b.client = mqtt.NewClient(opts)
	}
	if b.client.IsConnected() {
		return nil
	}

	t := b.client.Connect()
	done := make(chan struct{})
	go func() {
		t.Wait()
		close(done)
	}()

	select {
	case <-done:
		return t.Error()
	case <-time.After(b.config.ConnectTimeout):
		return errors.New("mqtt connect timeout")
	case <-ctx.Done():
		b.client.Disconnect(250)
		return ctx.Err()
	}
}

func (b *Bridge) Close(ctx context.Context) error {
	if b.client == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		// 250 ms quiesce period
		b.client.Disconnect(250)
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bridge) subscribeModeSet() {
	if b.onMode == nil {
		return
	}
	topic := b.topic("mode", "set")
	handler := func(_ mqtt.Client, msg mqtt.Message) {
		switch string(msg.Payload()) {
		case "one-way":
			b.onMode(stomp.OneWay)
		case "two-way":
			b.onMode(stomp.TwoWay)
		default:
			logging.Warn("unknown mode payload", "topic", msg.Topic(), "payload", string(msg.Payload()))
		}
	}
	token := b.client.Subscribe(topic, 1, handler)
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			logging.Error("mode subscribe failed", "topic", topic, "error", err)
		}
	case <-time.After(b.config.SubscribeTimeout):
		logging.Error("mode subscribe timeout", "topic", topic)
	}
}

// HealthMessage is the periodic retained health document.
type HealthMessage struct {
	Timestamp time.Time `json:"timestamp"`
	Uptime    string    `json:"uptime"`
	Link      string    `json:"link"`
	Mode      string    `json:"mode"`
}

// RunHealth publishes the health document every interval until the
// context is cancelled. An interval of zero disables heartbeats.
func (b *Bridge) RunHealth(ctx context.Context, interval time.Duration, link func() stomp.LinkState, mode func() stomp.Mode) {
	if interval <= 0 {
		return
	}
	start := time.Now()
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			b.publishJSON(b.topic("health"), HealthMessage{
				Timestamp: time.Now(),
				Uptime:    time.Since(start).Round(time.Second).String(),
				Link:      link().String(),
				Mode:      mode().String(),
			})
		}
	}
}

// PublishWidgetState publishes the retained state document for one
// widget. Fire-and-forget, same delivery posture as the console sends.
func (b *Bridge) PublishWidgetState(w *widget.Widget) {
	b.publishJSON(b.topic("widget", w.Name, "state"), WidgetStateMessage{
		Timestamp: time.Now(),
		Name:      w.Name,
		Address:   w.Address,
		Kind:      w.Kind.String(),
		State:     w.State(),
		Payload:   w.LastPayload(),
	})
}

// PublishLinkState publishes the retained link document.
func (b *Bridge) PublishLinkState(s stomp.LinkState) {
	b.publishJSON(b.topic("link"), map[string]string{"state": s.String()})
}

// PublishMode publishes the retained mode document.
func (b *Bridge) PublishMode(m stomp.Mode) {
	b.publishJSON(b.topic("mode"), map[string]string{"mode": m.String()})
}

func (b *Bridge) publishJSON(topic string, v any) {
	if b.client == nil || !b.client.IsConnected() {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error("marshal publish payload", "topic", topic, "error", err)
		return
	}
	b.client.Publish(topic, 0, true, data)
}

func (b *Bridge) topic(parts ...string) string {
	t := b.config.TopicPrefix
	for _, p := range parts {
		t = fmt.Sprintf("%s/%s", t, p)
	}
	return t
}
