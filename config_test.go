package main

import (
	"flag"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/dotside-studios/davi-card-agent/card"
)

func parse(t *testing.T, args ...string) (Config, error) {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return ParseConfig(fs, args)
}

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := parse(t)
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if cfg.Port != defaultPort {
		t.Errorf("Port = %d, want %d", cfg.Port, defaultPort)
	}
	if cfg.ShareURL != card.DefaultShareURL {
		t.Errorf("ShareURL = %q", cfg.ShareURL)
	}
	if cfg.RequestTimeout != 30*time.Second || cfg.PollInterval != 250*time.Millisecond {
		t.Errorf("timing = %v / %v", cfg.RequestTimeout, cfg.PollInterval)
	}
	if cfg.CLI || cfg.NoMDNS {
		t.Error("boolean flags should default to false")
	}
}

func TestParseConfig_EnvAndFlags(t *testing.T) {
	t.Setenv("CARD_AGENT_PORT", "9000")
	t.Setenv("CARD_AGENT_DEVICE", "pn532_uart:/dev/ttyUSB0")
	t.Setenv("CARD_AGENT_POLL_INTERVAL", "100ms")

	cfg, err := parse(t, "-port", "9100", "-cli", "-share-url", "https://example.com/card")
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if cfg.Port != 9100 {
		t.Errorf("flag should override env, Port = %d", cfg.Port)
	}
	if cfg.DevicePath != "pn532_uart:/dev/ttyUSB0" {
		t.Errorf("DevicePath = %q", cfg.DevicePath)
	}
	if cfg.PollInterval != 100*time.Millisecond {
		t.Errorf("PollInterval = %v", cfg.PollInterval)
	}
	if !cfg.CLI {
		t.Error("expected CLI mode")
	}
	if got := cfg.Profile().ShareURL; got != "https://example.com/card" {
		t.Errorf("profile share URL = %q", got)
	}
}

func TestParseConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"port out of range", []string{"-port", "70000"}, "out of range"},
		{"negative timeout", []string{"-request-timeout", "-1s"}, "request timeout"},
		{"zero poll interval", []string{"-poll-interval", "0s"}, "poll interval"},
		{"negative max views", []string{"-max-views", "-2"}, "max views"},
		{"relative share url", []string{"-share-url", "/card"}, "card profile"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ParseConfig() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseConfig_BadEnv(t *testing.T) {
	t.Setenv("CARD_AGENT_PORT", "not-a-port")
	if _, err := parse(t); err == nil || !strings.Contains(err.Error(), "parse env") {
		t.Errorf("expected env parse error, got %v", err)
	}
}
