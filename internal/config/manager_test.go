package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestParseYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
telegram:
  token: "123:abc"
  poll_timeout: 10s
logging:
  level: debug
  console: true
broadcast:
  enabled: false
  at: "09:15"
  timezone: Europe/Moscow
registry:
  driver: file
  path: ./subs.json
data:
  path: ./birthdays.xlsx
  sheet: Лист1
`)

	m := NewManager(path)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.Token != "123:abc" {
		t.Fatalf("token = %q", cfg.Telegram.Token)
	}
	if cfg.Broadcast == nil || cfg.Broadcast.Enabled == nil || *cfg.Broadcast.Enabled {
		t.Fatalf("broadcast.enabled = %+v, want explicit false", cfg.Broadcast)
	}
	if cfg.Broadcast.At != "09:15" {
		t.Fatalf("broadcast.at = %q", cfg.Broadcast.At)
	}
	if cfg.Data.Sheet != "Лист1" {
		t.Fatalf("data.sheet = %q", cfg.Data.Sheet)
	}
	if got := m.Get(); got != cfg {
		t.Fatalf("Get returned a different config")
	}
}

func TestParseOmittedBroadcastSection(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
telegram:
  token: "123:abc"
`)
	cfg, err := NewManager(path).Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Broadcast != nil {
		t.Fatalf("omitted broadcast section parsed as %+v, want nil", cfg.Broadcast)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
telegram:
  token: "123:abc"
  tokne_typo: "oops"
`)
	if _, err := NewManager(path).Parse(); err == nil {
		t.Fatalf("unknown field accepted")
	}
}

func TestParseJSONAlsoAccepted(t *testing.T) {
	path := writeConfig(t, "config.json", `{"telegram":{"token":"123:abc"}}`)
	cfg, err := NewManager(path).Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Telegram.Token != "123:abc" {
		t.Fatalf("token = %q", cfg.Telegram.Token)
	}
}

func TestParseDurationField(t *testing.T) {
	cases := []struct {
		raw     string
		want    time.Duration
		wantErr bool
	}{
		{"", 0, false},
		{"10s", 10 * time.Second, false},
		{"1m30s", 90 * time.Second, false},
		{"-5s", 0, true},
		{"soon", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseDurationField("x.y", tc.raw)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseDurationField(%q): want error", tc.raw)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseDurationField(%q): %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("ParseDurationField(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestParseDurationOrDefault(t *testing.T) {
	if got, err := ParseDurationOrDefault("x.y", "", 7*time.Second); err != nil || got != 7*time.Second {
		t.Fatalf("empty = %v, %v", got, err)
	}
	if got, err := ParseDurationOrDefault("x.y", "3s", 7*time.Second); err != nil || got != 3*time.Second {
		t.Fatalf("explicit = %v, %v", got, err)
	}
}
