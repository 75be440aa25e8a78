// internal/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/fisaks/stompbox/internal/logging"
	"github.com/fisaks/stompbox/internal/sysex"
	"github.com/fisaks/stompbox/internal/widget"
)

/* =========================
   Types
   ========================= */

type Config struct {
	Console ConsoleConfig  `json:"console"`
	Serial  SerialConfig   `json:"serial"`
	GPIO    GPIOConfig     `json:"gpio"`
	MQTT    MQTTConfig     `json:"mqtt"`
	Widgets []WidgetConfig `json:"widgets"`

	HeartbeatInterval int `json:"heartbeatInterval"` // status bridge heartbeat cadence, seconds

	LongPressMs      int `json:"longPressMs"`      // short/long discrimination threshold
	InputPollMs      int `json:"inputPollMs"`      // button scan cadence
	RenewIntervalMs  int `json:"renewIntervalMs"`  // presence renewal, below console timeout
	RefreshSettleMs  int `json:"refreshSettleMs"`  // delay between renewal and re-poll burst
	FlashConfirmedMs int `json:"flashConfirmedMs"` // indicator flash for console echoes
	FlashLocalMs     int `json:"flashLocalMs"`     // shorter flash for one-way local ack
}

type ConsoleConfig struct {
	Address   string `json:"address"`   // console IP or host
	Port      int    `json:"port"`      // X32 is 10023, X-AIR is 10024
	LocalPort int    `json:"localPort"` // fixed source port, console replies here
}

type SerialConfig struct {
	Port string `json:"port"` // empty disables the serial mirror
	Baud int    `json:"baud"`
}

type GPIOConfig struct {
	Chip          string `json:"chip"`
	ModeSwitchPin int    `json:"modeSwitchPin"`
	LinkLedPin    int    `json:"linkLedPin"`
	BatteryLedPin int    `json:"batteryLedPin"`
	ReverseDrive  bool   `json:"reverseDrive"` // LEDs sink current from the pin
	DebounceMs    int    `json:"debounceMs"`
}

type MQTTConfig struct {
	BrokerURL   string `json:"brokerUrl"` // empty disables the status bridge
	ClientName  string `json:"clientName"`
	TopicPrefix string `json:"topicPrefix"`
}

type WidgetConfig struct {
	Name       string   `json:"name"`
	ButtonPin  int      `json:"buttonPin"`
	LedPin     int      `json:"ledPin"`
	Trigger    string   `json:"trigger"` // "short" | "long" | "none"
	Kind       string   `json:"kind"`    // "toggle" | "fader" | "fire"
	ReverseLed bool     `json:"reverseLed"`
	Address    string   `json:"address"`
	Payload    string   `json:"payload,omitempty"`
	Index      *int     `json:"index,omitempty"`
	Value      *float64 `json:"value,omitempty"`
}

/* =========================
   Helpers
   ========================= */

func (c *Config) LongPress() time.Duration {
	return time.Duration(c.LongPressMs) * time.Millisecond
}
func (c *Config) InputPoll() time.Duration {
	return time.Duration(c.InputPollMs) * time.Millisecond
}
func (c *Config) RenewInterval() time.Duration {
	return time.Duration(c.RenewIntervalMs) * time.Millisecond
}
func (c *Config) RefreshSettle() time.Duration {
	return time.Duration(c.RefreshSettleMs) * time.Millisecond
}
func (c *Config) FlashConfirmed() time.Duration {
	return time.Duration(c.FlashConfirmedMs) * time.Millisecond
}
func (c *Config) FlashLocal() time.Duration {
	return time.Duration(c.FlashLocalMs) * time.Millisecond
}
func (c *Config) Heartbeat() time.Duration {
	return time.Duration(c.HeartbeatInterval) * time.Second
}
func (g GPIOConfig) Debounce() time.Duration {
	return time.Duration(g.DebounceMs) * time.Millisecond
}

// WidgetConfigs converts the parsed widget list to the domain model.
// Call only after Validate.
func (c *Config) WidgetConfigs() []widget.Config {
	out := make([]widget.Config, 0, len(c.Widgets))
	for _, w := range c.Widgets {
		out = append(out, widget.Config{
			Name:       w.Name,
			ButtonPin:  w.ButtonPin,
			LedPin:     w.LedPin,
			Trigger:    parseTrigger(w.Trigger),
			Kind:       parseKind(w.Kind),
			ReverseLed: w.ReverseLed,
			Address:    w.Address,
			Payload:    w.Payload,
			Index:      w.Index,
			Value:      floatOrZero(w.Value),
		})
	}
	return out
}

func parseTrigger(s string) widget.TriggerKind {
	switch strings.ToLower(s) {
	case "short":
		return widget.TriggerShort
	case "long":
		return widget.TriggerLong
	default:
		return widget.TriggerNone
	}
}

func parseKind(s string) widget.Kind {
	switch strings.ToLower(s) {
	case "toggle":
		return widget.KindToggle
	case "fader":
		return widget.KindFader
	default:
		return widget.KindFire
	}
}

func floatOrZero(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

/* =========================
   Strict load + validate
   ========================= */

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return parse(raw)
}

func LoadFromReader(r io.Reader) (*Config, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return parse(raw)
}

func parse(raw []byte) (*Config, error) {
	clean := stripJSONComments(raw)

	dec := json.NewDecoder(strings.NewReader(string(clean)))
	dec.DisallowUnknownFields()

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs multiErr

	/* Console */
	if strings.TrimSpace(c.Console.Address) == "" {
		errs.add("console.address is required")
	}
	if c.Console.Port == 0 {
		c.Console.Port = 10023
	}
	if c.Console.Port < 1 || c.Console.Port > 65535 {
		errs.addf("console.port must be 1..65535, got %d", c.Console.Port)
	}
	if c.Console.LocalPort == 0 {
		c.Console.LocalPort = 8888
	}
	if c.Console.LocalPort < 1 || c.Console.LocalPort > 65535 {
		errs.addf("console.localPort must be 1..65535, got %d", c.Console.LocalPort)
	}

	/* Serial */
	if c.Serial.Port != "" && c.Serial.Baud == 0 {
		c.Serial.Baud = 31250 // MIDI line rate
	}

	/* GPIO */
	if c.GPIO.Chip == "" {
		c.GPIO.Chip = "gpiochip0"
	}
	if c.GPIO.DebounceMs < 0 {
		errs.add("gpio.debounceMs cannot be negative")
	}
	if c.GPIO.DebounceMs == 0 {
		c.GPIO.DebounceMs = 10
	}

	/* Timings */
	if c.LongPressMs <= 0 {
		c.LongPressMs = 3000
	}
	if c.InputPollMs <= 0 {
		c.InputPollMs = 1 // buttons are scanned fast, responsiveness is the point
	}
	if c.RenewIntervalMs <= 0 {
		c.RenewIntervalMs = 9000 // console subscription expires at ~10s
	}
	if c.RefreshSettleMs <= 0 {
		c.RefreshSettleMs = 20
	}
	if c.FlashConfirmedMs <= 0 {
		c.FlashConfirmedMs = 200
	}
	if c.FlashLocalMs <= 0 {
		c.FlashLocalMs = 100
	}
	if c.HeartbeatInterval < 0 {
		c.HeartbeatInterval = 60
	}
	if c.HeartbeatInterval == 0 {
		logging.Warn("heartbeatInterval=0 configured, bridge heartbeats disabled")
	}
	if c.FlashLocalMs >= c.FlashConfirmedMs {
		errs.addf("flashLocalMs (%d) must be shorter than flashConfirmedMs (%d)", c.FlashLocalMs, c.FlashConfirmedMs)
	}

	/* Widgets */
	if len(c.Widgets) == 0 {
		errs.add("widgets cannot be empty")
	}
	seenNames := map[string]int{}
	pinTriggers := map[int]map[string]string{} // pin -> trigger -> widget name
	for i := range c.Widgets {
		w := &c.Widgets[i]
		label := fmt.Sprintf("widgets[%d]", i)
		if w.Name != "" {
			label = fmt.Sprintf("widgets[%d/%s]", i, w.Name)
		}

		if strings.TrimSpace(w.Name) == "" {
			errs.addf("%s: name is required", label)
		} else if j, dup := seenNames[w.Name]; dup {
			errs.addf("%s: duplicate name (also at widgets[%d])", label, j)
		} else {
			seenNames[w.Name] = i
		}

		if !strings.HasPrefix(w.Address, "/") {
			errs.addf("%s: address must start with '/', got %q", label, w.Address)
		}

		trigger := strings.ToLower(w.Trigger)
		if trigger == "" {
			trigger = "none"
			w.Trigger = "none"
		}
		switch trigger {
		case "short", "long", "none":
		default:
			errs.addf("%s: trigger must be one of short,long,none", label)
		}

		// Shared pins are allowed, identical triggers on one pin are not:
		// the input loop could not tell which widget a press belongs to.
		if trigger != "none" {
			if pinTriggers[w.ButtonPin] == nil {
				pinTriggers[w.ButtonPin] = map[string]string{}
			}
			if other, clash := pinTriggers[w.ButtonPin][trigger]; clash {
				errs.addf("%s: trigger %q already used on pin %d by %q", label, trigger, w.ButtonPin, other)
			} else {
				pinTriggers[w.ButtonPin][trigger] = w.Name
			}
		}

		switch strings.ToLower(w.Kind) {
		case "toggle":
			if w.Payload != "" || w.Index != nil || w.Value != nil {
				errs.addf("%s: toggle widgets carry no payload, index or value", label)
			}
		case "fader":
			if w.Value == nil {
				errs.addf("%s: fader widgets require a value", label)
			} else if *w.Value < 0 || *w.Value > 1 {
				errs.addf("%s: value must be within [0,1], got %v", label, *w.Value)
			}
			if w.Payload != "" || w.Index != nil {
				errs.addf("%s: fader widgets carry no payload or index", label)
			}
		case "fire":
			if w.Payload == "" && w.Index == nil {
				errs.addf("%s: fire widgets require a payload, an index, or both", label)
			}
			if w.Index != nil && *w.Index < 0 {
				errs.addf("%s: index cannot be negative", label)
			}
			if w.Value != nil {
				errs.addf("%s: fire widgets carry no value", label)
			}
		default:
			errs.addf("%s: kind must be one of toggle,fader,fire", label)
		}

		// The serial frame bound is a precondition of the codec; reject
		// configurations whose worst-case rendering cannot fit.
		if worst, ok := worstPayload(w); ok && !sysex.Fits(w.Address, worst) {
			errs.addf("%s: address %q with payload %q exceeds the %d byte frame bound",
				label, w.Address, worst, sysex.MaxFrameLen)
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// worstPayload renders the longest serial payload a widget can produce.
func worstPayload(w *WidgetConfig) (string, bool) {
	switch strings.ToLower(w.Kind) {
	case "toggle":
		return "OFF", true
	case "fader":
		return "127", true
	case "fire":
		parts := make([]string, 0, 2)
		if w.Payload != "" {
			parts = append(parts, w.Payload)
		}
		if w.Index != nil {
			parts = append(parts, strconv.Itoa(*w.Index))
		}
		return strings.Join(parts, " "), true
	}
	return "", false
}

/* =========================
   Comment stripping + utils
   ========================= */

var (
	lineComments  = regexp.MustCompile(`(?m)//[^\n\r]*`)
	blockComments = regexp.MustCompile(`(?s)/\*.*?\*/`)
)

func stripJSONComments(in []byte) []byte {
	text := string(in)
	text = blockComments.ReplaceAllString(text, "")
	text = lineComments.ReplaceAllString(text, "")
	return []byte(text)
}

// small multi-error
type multiErr []string

func (m *multiErr) add(s string)            { *m = append(*m, s) }
func (m *multiErr) addf(f string, a ...any) { *m = append(*m, fmt.Sprintf(f, a...)) }
func (m multiErr) Error() string            { return "validation errors: " + strings.Join(m, "; ") }
