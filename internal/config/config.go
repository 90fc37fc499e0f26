package config

import (
	"fmt"
	"time"
)

type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Log       LogConfig
	Contact   ContactConfig
	Chat      ChatConfig
	Knowledge KnowledgeConfig
	Resume    ResumeConfig
	Admin     AdminConfig
}

type ServerConfig struct {
	Host     string
	Port     int
	MaxConns int
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

type ContactConfig struct {
	RelayURL      string
	Timeout       string
	RatePerMinute int
	Timezone      string
}

type ChatConfig struct {
	MinDelay  string
	MaxDelay  string
	Record    bool
	Retention string
}

type KnowledgeConfig struct {
	Path string
}

type ResumeConfig struct {
	Path string
}

type AdminConfig struct {
	Token string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Host:     "127.0.0.1",
			Port:     4100,
			MaxConns: 256,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
		Contact: ContactConfig{
			Timeout:       "10s",
			RatePerMinute: 5,
			Timezone:      "Local",
		},
		Chat: ChatConfig{
			MinDelay:  "1s",
			MaxDelay:  "2s",
			Record:    true,
			Retention: "2160h",
		},
	}
}

// Load reads configuration from the JSON config file at
// $XDG_CONFIG_HOME/folio/config.json, then applies FOLIO_* environment
// overrides. The admin token is only read from FOLIO_ADMIN_TOKEN.
func Load() (Config, error) {
	return loadWith(newPlatformBackend(), newSecretStore())
}

func loadWith(b ConfigBackend, secrets SecretStore) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}
	applySecrets(&cfg, secrets)

	applyEnvOverrides(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if _, err := c.ContactTimeout(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	minDelay, maxDelay, err := c.ChatDelays()
	if err != nil {
		return err
	}
	if maxDelay < minDelay {
		return fmt.Errorf("chat.max_delay %s is shorter than chat.min_delay %s", maxDelay, minDelay)
	}
	if _, err := c.ChatRetention(); err != nil {
		return err
	}
	if c.Contact.RatePerMinute < 0 {
		return fmt.Errorf("contact.rate_per_minute must not be negative")
	}
	return nil
}

// Addr returns the host:port the HTTP server listens on.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ContactTimeout parses contact.timeout.
func (c Config) ContactTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Contact.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid contact.timeout %q: %w", c.Contact.Timeout, err)
	}
	return d, nil
}

// Location resolves contact.timezone, used to stamp relayed submissions.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Contact.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid contact.timezone %q: %w", c.Contact.Timezone, err)
	}
	return loc, nil
}

// ChatDelays parses chat.min_delay and chat.max_delay.
func (c Config) ChatDelays() (minDelay, maxDelay time.Duration, err error) {
	minDelay, err = time.ParseDuration(c.Chat.MinDelay)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid chat.min_delay %q: %w", c.Chat.MinDelay, err)
	}
	maxDelay, err = time.ParseDuration(c.Chat.MaxDelay)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid chat.max_delay %q: %w", c.Chat.MaxDelay, err)
	}
	return minDelay, maxDelay, nil
}

// ChatRetention parses chat.retention. Zero or an empty value keeps
// interactions forever.
func (c Config) ChatRetention() (time.Duration, error) {
	if c.Chat.Retention == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Chat.Retention)
	if err != nil {
		return 0, fmt.Errorf("invalid chat.retention %q: %w", c.Chat.Retention, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("chat.retention must not be negative")
	}
	return d, nil
}
