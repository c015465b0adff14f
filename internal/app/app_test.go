package app

import (
	"strings"
	"testing"
	"time"

	"bdaybot/internal/config"
)

func boolPtr(b bool) *bool { return &b }

func TestMapBroadcastConfigDefaults(t *testing.T) {
	ncfg, scfg, err := mapBroadcastConfig(&config.Config{})
	if err != nil {
		t.Fatalf("mapBroadcastConfig: %v", err)
	}
	if !scfg.Enabled {
		t.Fatalf("broadcast disabled by default")
	}
	if scfg.At != "08:00" {
		t.Fatalf("At = %q, want 08:00", scfg.At)
	}
	if scfg.Timezone != "Europe/Moscow" {
		t.Fatalf("Timezone = %q, want Europe/Moscow", scfg.Timezone)
	}
	if ncfg.Location == nil || ncfg.Location.String() != "Europe/Moscow" {
		t.Fatalf("Location = %v, want Europe/Moscow", ncfg.Location)
	}
}

func TestMapBroadcastConfigOverrides(t *testing.T) {
	cfg := &config.Config{
		Broadcast: &config.BroadcastConfig{
			Enabled:     boolPtr(false),
			At:          "21:30",
			Timezone:    "UTC",
			Workers:     8,
			RatePerSec:  2,
			SendTimeout: "5s",
		},
	}
	ncfg, scfg, err := mapBroadcastConfig(cfg)
	if err != nil {
		t.Fatalf("mapBroadcastConfig: %v", err)
	}
	if scfg.Enabled {
		t.Fatalf("explicit enabled=false not honored")
	}
	if scfg.At != "21:30" || scfg.Timezone != "UTC" {
		t.Fatalf("schedule = %q %q", scfg.At, scfg.Timezone)
	}
	if ncfg.Workers != 8 || ncfg.RatePerSec != 2 || ncfg.SendTimeout != 5*time.Second {
		t.Fatalf("delivery config = %+v", ncfg)
	}
}

func TestMapBroadcastConfigRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		bc   config.BroadcastConfig
		want string
	}{
		{"bad time", config.BroadcastConfig{At: "8 o'clock"}, "broadcast.at"},
		{"bad timezone", config.BroadcastConfig{Timezone: "Mars/Olympus"}, "broadcast.timezone"},
		{"bad duration", config.BroadcastConfig{SendTimeout: "fast"}, "broadcast.send_timeout"},
		{"negative workers", config.BroadcastConfig{Workers: -1}, "broadcast.workers"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bc := tc.bc
			_, _, err := mapBroadcastConfig(&config.Config{Broadcast: &bc})
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want mention of %s", err, tc.want)
			}
		})
	}
}

func TestValidateConfig(t *testing.T) {
	good := &config.Config{Telegram: config.TelegramConfig{Token: "123:abc", PollTimeout: "10s"}}
	if err := validateConfig(good); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	if err := validateConfig(&config.Config{}); err == nil {
		t.Fatalf("missing token accepted")
	}

	bad := &config.Config{
		Telegram: config.TelegramConfig{Token: "123:abc"},
		Registry: config.RegistryConfig{BusyTimeout: "soonish"},
	}
	if err := validateConfig(bad); err == nil {
		t.Fatalf("bad registry.busy_timeout accepted")
	}
}
