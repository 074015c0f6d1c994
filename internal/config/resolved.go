package config

import (
	"path/filepath"
	"strings"
	"time"
)

const (
	DefaultThrottling    = 1500 * time.Millisecond
	DefaultTelegramTO    = 20 * time.Second
	DefaultRetryMax      = 5
	DefaultPortalTimeout = 30 * time.Second
	DefaultLocale        = "en"
	DefaultHistoryDriver = "file"
)

// TelegramSettings is TelegramConfig with defaults applied and durations
// parsed.
type TelegramSettings struct {
	Token      string
	ChatID     string
	APIURL     string
	Throttling time.Duration
	Timeout    time.Duration
	RetryMax   int
}

func (t TelegramConfig) Settings() (TelegramSettings, error) {
	throttle, err := ParseDurationOrDefault("telegram.throttling", t.Throttling, DefaultThrottling)
	if err != nil {
		return TelegramSettings{}, err
	}
	timeout, err := ParseDurationOrDefault("telegram.timeout", t.Timeout, DefaultTelegramTO)
	if err != nil {
		return TelegramSettings{}, err
	}
	retry := DefaultRetryMax
	if t.RetryMax != nil {
		retry = *t.RetryMax
	}
	return TelegramSettings{
		Token:      strings.TrimSpace(t.Token),
		ChatID:     strings.TrimSpace(t.ChatID),
		APIURL:     strings.TrimSpace(t.APIURL),
		Throttling: throttle,
		Timeout:    timeout,
		RetryMax:   retry,
	}, nil
}

func (p PortalConfig) TimeoutOrDefault() (time.Duration, error) {
	return ParseDurationOrDefault("portal.timeout", p.Timeout, DefaultPortalTimeout)
}

// LocaleOrDefault returns the configured locale, "en" when unset.
func (c *Config) LocaleOrDefault() string {
	if c.Locale == "" {
		return DefaultLocale
	}
	return c.Locale
}

// DriverOrDefault returns the storage driver, "file" when unset.
func (h HistoryConfig) DriverOrDefault() string {
	if h.Driver == "" {
		return DefaultHistoryDriver
	}
	return h.Driver
}

// HistoryPath resolves history.path against the home directory. Empty
// stays empty so the storage layer picks its own default.
func (c *Config) HistoryPath() string {
	p := strings.TrimSpace(c.History.Path)
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Home, p)
}

// CredentialsPath is the login.json of the home directory.
func (c *Config) CredentialsPath() string { return filepath.Join(c.Home, "login.json") }
