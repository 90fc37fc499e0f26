package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kBool
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.host", typ: kString, env: "FOLIO_SERVER_HOST",
		apply:   func(cfg *Config, v any) { cfg.Server.Host = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.Host },
	},
	{
		key: "server.port", typ: kInt, env: "FOLIO_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.max_conns", typ: kInt, env: "FOLIO_SERVER_MAX_CONNS",
		apply:   func(cfg *Config, v any) { cfg.Server.MaxConns = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.MaxConns },
	},
	{
		key: "storage.data_dir", typ: kString, env: "FOLIO_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "log.level", typ: kString, env: "FOLIO_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
	{
		key: "contact.relay_url", typ: kString, env: "FOLIO_CONTACT_RELAY_URL",
		apply:   func(cfg *Config, v any) { cfg.Contact.RelayURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Contact.RelayURL },
	},
	{
		key: "contact.timeout", typ: kString, env: "FOLIO_CONTACT_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.Contact.Timeout = v.(string) },
		extract: func(cfg Config) any { return cfg.Contact.Timeout },
	},
	{
		key: "contact.rate_per_minute", typ: kInt, env: "FOLIO_CONTACT_RATE_PER_MINUTE",
		apply:   func(cfg *Config, v any) { cfg.Contact.RatePerMinute = v.(int) },
		extract: func(cfg Config) any { return cfg.Contact.RatePerMinute },
	},
	{
		key: "contact.timezone", typ: kString, env: "FOLIO_CONTACT_TIMEZONE",
		apply:   func(cfg *Config, v any) { cfg.Contact.Timezone = v.(string) },
		extract: func(cfg Config) any { return cfg.Contact.Timezone },
	},
	{
		key: "chat.min_delay", typ: kString, env: "FOLIO_CHAT_MIN_DELAY",
		apply:   func(cfg *Config, v any) { cfg.Chat.MinDelay = v.(string) },
		extract: func(cfg Config) any { return cfg.Chat.MinDelay },
	},
	{
		key: "chat.max_delay", typ: kString, env: "FOLIO_CHAT_MAX_DELAY",
		apply:   func(cfg *Config, v any) { cfg.Chat.MaxDelay = v.(string) },
		extract: func(cfg Config) any { return cfg.Chat.MaxDelay },
	},
	{
		key: "chat.record", typ: kBool, env: "FOLIO_CHAT_RECORD",
		apply:   func(cfg *Config, v any) { cfg.Chat.Record = v.(bool) },
		extract: func(cfg Config) any { return cfg.Chat.Record },
	},
	{
		key: "chat.retention", typ: kString, env: "FOLIO_CHAT_RETENTION",
		apply:   func(cfg *Config, v any) { cfg.Chat.Retention = v.(string) },
		extract: func(cfg Config) any { return cfg.Chat.Retention },
	},
	{
		key: "knowledge.path", typ: kString, env: "FOLIO_KNOWLEDGE_PATH",
		apply:   func(cfg *Config, v any) { cfg.Knowledge.Path = v.(string) },
		extract: func(cfg Config) any { return cfg.Knowledge.Path },
	},
	{
		key: "resume.path", typ: kString, env: "FOLIO_RESUME_PATH",
		apply:   func(cfg *Config, v any) { cfg.Resume.Path = v.(string) },
		extract: func(cfg Config) any { return cfg.Resume.Path },
	},
	{
		key: "admin.token", typ: kString, env: "FOLIO_ADMIN_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Admin.Token = v.(string) },
		extract: func(cfg Config) any { return cfg.Admin.Token },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kBool:
			v, ok, err := b.GetBool(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		case kBool:
			if b, err := strconv.ParseBool(raw); err == nil {
				s.apply(cfg, b)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse bool from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
