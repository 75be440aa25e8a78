package config

import (
	"strings"
	"testing"
	"time"

	"github.com/fisaks/stompbox/internal/widget"
)

const validConfig = `
{
  // the console address is the only required connection setting
  "console": { "address": "192.168.1.64" },
  "serial": { "port": "/dev/ttyAMA0" },
  "gpio": { "modeSwitchPin": 27, "linkLedPin": 22, "batteryLedPin": 23 },
  "widgets": [
    /* one pin carrying both gestures */
    { "name": "snippet13", "buttonPin": 12, "ledPin": 13, "trigger": "short",
      "kind": "fire", "address": "/load", "payload": "snippet", "index": 13 },
    { "name": "snippet99", "buttonPin": 12, "ledPin": 13, "trigger": "long",
      "kind": "fire", "address": "/load", "payload": "snippet", "index": 99 },
    { "name": "dca5", "buttonPin": 25, "ledPin": 4, "trigger": "short",
      "kind": "toggle", "reverseLed": true, "address": "/dca/5/on" },
    { "name": "lectern", "buttonPin": 26, "ledPin": 6, "trigger": "short",
      "kind": "fader", "address": "/ch/02/mix/09/level", "value": 0.75 }
  ]
}
`

func loadValid(t *testing.T) *Config {
	t.Helper()
	cfg, err := LoadFromReader(strings.NewReader(validConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return cfg
}

func TestLoad_StripsCommentsAndAppliesDefaults(t *testing.T) {
	cfg := loadValid(t)

	if cfg.Console.Port != 10023 || cfg.Console.LocalPort != 8888 {
		t.Errorf("console port defaults wrong: %+v", cfg.Console)
	}
	if cfg.Serial.Baud != 31250 {
		t.Errorf("serial baud should default to the MIDI line rate, got %d", cfg.Serial.Baud)
	}
	if cfg.GPIO.Chip != "gpiochip0" || cfg.GPIO.DebounceMs != 10 {
		t.Errorf("gpio defaults wrong: %+v", cfg.GPIO)
	}
	if cfg.LongPress() != 3*time.Second {
		t.Errorf("long press should default to 3s, got %v", cfg.LongPress())
	}
	if cfg.RenewInterval() != 9*time.Second {
		t.Errorf("renewal should default to 9s, got %v", cfg.RenewInterval())
	}
	if cfg.FlashConfirmed() != 200*time.Millisecond || cfg.FlashLocal() != 100*time.Millisecond {
		t.Errorf("flash defaults wrong: %v / %v", cfg.FlashConfirmed(), cfg.FlashLocal())
	}
	if len(cfg.Widgets) != 4 {
		t.Fatalf("expected 4 widgets, got %d", len(cfg.Widgets))
	}
	if cfg.Heartbeat() != 0 {
		t.Errorf("omitted heartbeat should stay disabled, got %v", cfg.Heartbeat())
	}
}

func TestValidate_NegativeHeartbeatDefaults(t *testing.T) {
	withHB := strings.Replace(validConfig, `"widgets": [`,
		`"heartbeatInterval": -1,
  "widgets": [`, 1)
	cfg, err := LoadFromReader(strings.NewReader(withHB))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Heartbeat() != 60*time.Second {
		t.Errorf("negative heartbeat should default to 60s, got %v", cfg.Heartbeat())
	}
}

func TestLoad_RejectsUnknownFields(t *testing.T) {
	bad := strings.Replace(validConfig, `"serial"`, `"serail"`, 1)
	if _, err := LoadFromReader(strings.NewReader(bad)); err == nil {
		t.Fatalf("misspelled field should be rejected")
	}
}

func TestValidate_MissingConsoleAddress(t *testing.T) {
	bad := strings.Replace(validConfig, `"address": "192.168.1.64"`, `"address": ""`, 1)
	_, err := LoadFromReader(strings.NewReader(bad))
	if err == nil || !strings.Contains(err.Error(), "console.address") {
		t.Fatalf("expected console.address error, got %v", err)
	}
}

func TestValidate_WidgetRules(t *testing.T) {
	cases := map[string]struct {
		mutate func(string) string
		want   string
	}{
		"duplicate name": {
			func(s string) string { return strings.Replace(s, `"snippet99"`, `"snippet13"`, 1) },
			"duplicate name",
		},
		"address without slash": {
			func(s string) string { return strings.Replace(s, `"/dca/5/on"`, `"dca/5/on"`, 1) },
			"must start with '/'",
		},
		"same trigger twice on one pin": {
			func(s string) string { return strings.Replace(s, `"trigger": "long"`, `"trigger": "short"`, 1) },
			"already used on pin",
		},
		"fader without value": {
			func(s string) string { return strings.Replace(s, `, "value": 0.75`, ``, 1) },
			"require a value",
		},
		"fader value out of range": {
			func(s string) string { return strings.Replace(s, `"value": 0.75`, `"value": 1.5`, 1) },
			"within [0,1]",
		},
		"fire without payload or index": {
			func(s string) string {
				return strings.Replace(s, `"payload": "snippet", "index": 99`, `"index": null`, 1)
			},
			"require a payload",
		},
		"toggle with payload": {
			func(s string) string {
				return strings.Replace(s, `"reverseLed": true,`, `"payload": "ON",`, 1)
			},
			"no payload",
		},
		"unknown kind": {
			func(s string) string { return strings.Replace(s, `"kind": "fader"`, `"kind": "slider"`, 1) },
			"kind must be one of",
		},
	}
	for name, tc := range cases {
		_, err := LoadFromReader(strings.NewReader(tc.mutate(validConfig)))
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%s: expected error containing %q, got %v", name, tc.want, err)
		}
	}
}

func TestValidate_FrameBound(t *testing.T) {
	long := strings.Repeat("x", 80)
	bad := strings.Replace(validConfig, `"payload": "snippet", "index": 13`,
		`"payload": "`+long+`", "index": 13`, 1)
	_, err := LoadFromReader(strings.NewReader(bad))
	if err == nil || !strings.Contains(err.Error(), "frame bound") {
		t.Fatalf("oversized worst-case frame should be rejected, got %v", err)
	}
}

func TestWidgetConfigs_Conversion(t *testing.T) {
	cfg := loadValid(t)
	ws := cfg.WidgetConfigs()
	if len(ws) != 4 {
		t.Fatalf("expected 4 widgets, got %d", len(ws))
	}
	if ws[0].Trigger != widget.TriggerShort || ws[0].Kind != widget.KindFire {
		t.Errorf("widget 0 conversion wrong: %+v", ws[0])
	}
	if ws[0].Index == nil || *ws[0].Index != 13 {
		t.Errorf("widget 0 index should survive conversion")
	}
	if ws[1].Trigger != widget.TriggerLong {
		t.Errorf("widget 1 should be long trigger, got %v", ws[1].Trigger)
	}
	if ws[2].Kind != widget.KindToggle || !ws[2].ReverseLed {
		t.Errorf("widget 2 conversion wrong: %+v", ws[2])
	}
	if ws[3].Kind != widget.KindFader || ws[3].Value != 0.75 {
		t.Errorf("widget 3 conversion wrong: %+v", ws[3])
	}
}
