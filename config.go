package main

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/dotside-studios/davi-card-agent/card"
)

const defaultPort = 18080

// Config holds the agent configuration. Values come from the environment
// first and are then overridden by command line flags.
type Config struct {
	DevicePath     string        `env:"CARD_AGENT_DEVICE"`
	Port           int           `env:"CARD_AGENT_PORT"            envDefault:"18080"`
	CLI            bool          `env:"CARD_AGENT_CLI"`
	APISecret      string        `env:"CARD_AGENT_API_SECRET"`
	ShareURL       string        `env:"CARD_AGENT_SHARE_URL"       envDefault:"https://nextlinkinternet.com/fiber-internet-to-the-home/"`
	RequestTimeout time.Duration `env:"CARD_AGENT_REQUEST_TIMEOUT" envDefault:"30s"`
	PollInterval   time.Duration `env:"CARD_AGENT_POLL_INTERVAL"   envDefault:"250ms"`
	MaxViews       int           `env:"CARD_AGENT_MAX_VIEWS"`
	NoMDNS         bool          `env:"CARD_AGENT_NO_MDNS"`
}

// ParseConfig reads the environment, then parses args with fs.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	fs.StringVar(&cfg.DevicePath, "device", cfg.DevicePath, "Path to NFC device (optional)")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "Port to listen on for card views")
	fs.BoolVar(&cfg.CLI, "cli", cfg.CLI, "Run in CLI mode (default: system tray mode)")
	fs.StringVar(&cfg.APISecret, "api-secret", cfg.APISecret, "API secret required from WebSocket views (optional)")
	fs.StringVar(&cfg.ShareURL, "share-url", cfg.ShareURL, "URL encoded in the card QR code")
	fs.DurationVar(&cfg.RequestTimeout, "request-timeout", cfg.RequestTimeout, "How long an NFC read waits for a tag (0 waits until cancelled)")
	fs.DurationVar(&cfg.PollInterval, "poll-interval", cfg.PollInterval, "How often the reader is polled for tags")
	fs.IntVar(&cfg.MaxViews, "max-views", cfg.MaxViews, "Maximum connected WebSocket views (0 for no limit)")
	fs.BoolVar(&cfg.NoMDNS, "no-mdns", cfg.NoMDNS, "Disable mDNS advertisement")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.RequestTimeout < 0 {
		return errors.New("request timeout must not be negative")
	}
	if c.PollInterval <= 0 {
		return errors.New("poll interval must be positive")
	}
	if c.MaxViews < 0 {
		return errors.New("max views must not be negative")
	}
	if err := c.Profile().Validate(); err != nil {
		return fmt.Errorf("card profile: %w", err)
	}
	return nil
}

// Profile returns the card profile for the configured share URL.
func (c Config) Profile() card.Profile {
	return card.DefaultProfile(c.ShareURL)
}
