package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

var ErrNotFound = errors.New("no config file")

// Candidates are looked up in the home directory, first match wins.
var Candidates = []string{"config.yaml", "config.yml", "config.json"}

// Environment overrides. They win over the config file and over .env.
const (
	EnvTelegramToken  = "PRONOTE2TG_TELEGRAM_TOKEN"
	EnvTelegramChatID = "PRONOTE2TG_TELEGRAM_CHAT_ID"
	EnvPortalURL      = "PRONOTE2TG_PORTAL_URL"
)

// Find returns the config file path in home or ErrNotFound.
func Find(home string) (string, error) {
	for _, name := range Candidates {
		p := filepath.Join(home, name)
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w in %s (looked for %s)", ErrNotFound, home, strings.Join(Candidates, ", "))
}

// Load reads, overlays and validates the configuration of home.
//
// <home>/.env is loaded first when present; variables already set in the
// process environment are kept.
func Load(home string) (*Config, error) {
	path, err := Find(home)
	if err != nil {
		return nil, err
	}

	envFile := filepath.Join(home, ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg, err := Parse(path)
	if err != nil {
		return nil, err
	}
	cfg.Home = home
	cfg.applyEnv(os.LookupEnv)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes one config file. YAML is coerced to JSON so both formats go
// through the same strict decoder.
func Parse(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	jb, format, err := coerceToJSONBytes(path, b)
	if err != nil {
		return nil, err
	}

	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode %s config %s: %w", format, path, err)
	}
	// reject trailing tokens (e.g. concatenated JSON)
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("invalid config: trailing data")
		}
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set(&c.Telegram.Token, EnvTelegramToken)
	set(&c.Telegram.ChatID, EnvTelegramChatID)
	set(&c.Portal.URL, EnvPortalURL)
}
