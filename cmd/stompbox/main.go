package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fisaks/stompbox/internal/bridge"
	"github.com/fisaks/stompbox/internal/config"
	"github.com/fisaks/stompbox/internal/engine"
	"github.com/fisaks/stompbox/internal/gpio"
	"github.com/fisaks/stompbox/internal/logging"
	"github.com/fisaks/stompbox/internal/serialbus"
	"github.com/fisaks/stompbox/internal/stomp"
	"github.com/fisaks/stompbox/internal/transport"
	"github.com/fisaks/stompbox/internal/widget"
)

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {

	path := getenv("STOMPBOX_CONFIG_PATH", "/etc/stompbox/config.json")
	name := getenv("STOMPBOX_NAME", "stompbox1")
	topicPrefix := "stompbox/" + name

	logging.Init()
	cfg, err := config.Load(path)
	if err != nil {
		logging.Fatal("Config error", "error", err)
	}

	set := widget.NewSet(cfg.WidgetConfigs())
	logging.Info("Loaded config",
		"widgets", len(set.All()),
		"console", cfg.Console.Address,
		"port", cfg.Console.Port,
	)

	// Graceful shutdown context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pins, err := gpio.Open(cfg.GPIO.Chip, cfg.GPIO.ReverseDrive, cfg.GPIO.Debounce())
	if err != nil {
		logging.Fatal("GPIO init", "error", err)
	}
	defer pins.Close()

	for _, pin := range set.Pins() {
		if err := pins.RequestInput(pin); err != nil {
			logging.Fatal("button pin init", "pin", pin, "error", err)
		}
	}
	for _, w := range set.All() {
		if err := pins.RequestOutput(w.LedPin); err != nil {
			logging.Fatal("indicator pin init", "pin", w.LedPin, "error", err)
		}
	}
	if cfg.GPIO.ModeSwitchPin > 0 {
		if err := pins.RequestInput(cfg.GPIO.ModeSwitchPin); err != nil {
			logging.Fatal("mode switch pin init", "pin", cfg.GPIO.ModeSwitchPin, "error", err)
		}
	}
	for _, pin := range []int{cfg.GPIO.LinkLedPin, cfg.GPIO.BatteryLedPin} {
		if pin > 0 {
			if err := pins.RequestOutput(pin); err != nil {
				logging.Fatal("status pin init", "pin", pin, "error", err)
			}
		}
	}

	selfTest(pins, set, cfg)

	var frames stomp.FrameSender = serialbus.Nop{}
	if cfg.Serial.Port != "" {
		bus, err := serialbus.Open(cfg.Serial.Port, cfg.Serial.Baud)
		if err != nil {
			logging.Fatal("serial init", "error", err)
		}
		defer bus.Close()
		frames = bus
	} else {
		logging.Warn("no serial port configured, frames are discarded")
	}

	udp, err := transport.NewUDP(cfg.Console.Address, cfg.Console.Port, cfg.Console.LocalPort)
	if err != nil {
		logging.Fatal("transport init", "error", err)
	}
	defer udp.Close()

	controller := engine.NewController()
	udp.SetNotify(func(s stomp.LinkState) {
		if s == stomp.Connected {
			controller.OnLinkEstablished()
		} else {
			controller.OnLinkLost()
		}
	})

	flasher := engine.NewFlasher(pins)
	defer flasher.Stop()

	dispatcher := engine.NewDispatcher(udp, frames, controller, flasher, cfg.FlashLocal())
	inputs := engine.NewInputMachine(set, pins, cfg.LongPress(), cfg.InputPoll(), dispatcher.Dispatch)
	syncer := engine.NewSyncEngine(set, udp, controller, pins, flasher,
		cfg.FlashConfirmed(), cfg.RenewInterval(), cfg.RefreshSettle())
	status := engine.NewStatusEngine(udp, pins, cfg.GPIO.LinkLedPin, cfg.GPIO.BatteryLedPin, nil)

	if cfg.MQTT.BrokerURL != "" {
		clientName := cfg.MQTT.ClientName
		if clientName == "" {
			clientName = name
		}
		prefix := cfg.MQTT.TopicPrefix
		if prefix == "" {
			prefix = topicPrefix
		}
		br := bridge.New(bridge.Config{
			BrokerURL:   cfg.MQTT.BrokerURL,
			ClientName:  clientName,
			TopicPrefix: prefix,
		})
		br.SetModeHandler(func(m stomp.Mode) {
			controller.SetMode(m)
			br.PublishMode(m)
		})
		if err := br.Connect(ctx); err != nil {
			// The bridge is an observer; the surface works without it.
			logging.Warn("mqtt bridge unavailable", "error", err)
		}
		defer br.Close(context.Background())
		dispatcher.SetDispatchHook(br.PublishWidgetState)
		syncer.SetStateHook(br.PublishWidgetState)
		status.SetLinkHook(br.PublishLinkState)
		go br.RunHealth(ctx, cfg.Heartbeat(), udp.LinkState, controller.Mode)
	}

	go inputs.Run(ctx)
	go syncer.RunInbound(ctx)
	go syncer.RunPoll(ctx)
	go status.Run(ctx)
	if cfg.GPIO.ModeSwitchPin > 0 {
		go runModeSwitch(ctx, pins, cfg.GPIO.ModeSwitchPin, controller)
	}

	// The socket is the session: mark the link up once everything runs.
	udp.Open()

	// Wait for SIGINT/SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	s := <-sigCh
	logging.Info("Shutting down", "signal", s)

	// Give the loops a moment to exit cleanly (they honor ctx)
	cancel()
	time.Sleep(200 * time.Millisecond)
	logging.Info("bye")
}

// selfTest flashes every indicator once so a dead LED is obvious before
// the first gig, not during it.
func selfTest(pins *gpio.Pins, set *widget.Set, cfg *config.Config) {
	all := func(active bool) {
		for _, w := range set.All() {
			pins.SetIndicator(w.LedPin, active)
		}
		for _, pin := range []int{cfg.GPIO.LinkLedPin, cfg.GPIO.BatteryLedPin} {
			if pin > 0 {
				pins.SetIndicator(pin, active)
			}
		}
	}
	all(true)
	time.Sleep(500 * time.Millisecond)
	all(false)
}

// runModeSwitch polls the physical mode switch. The switch pulls the
// pin low in one-way position; released means two-way.
func runModeSwitch(ctx context.Context, pins *gpio.Pins, pin int, controller *engine.Controller) {
	t := time.NewTicker(10 * time.Millisecond)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			switch pins.PollEdge(pin) {
			case stomp.EdgePressed:
				controller.SetMode(stomp.OneWay)
			case stomp.EdgeReleased:
				controller.SetMode(stomp.TwoWay)
			}
		}
	}
}
