package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const validYAML = `
run:
  grades: true
telegram:
  token: "123:abc"
  chat_id: "-10042"
  throttling: 2s
portal:
  url: http://127.0.0.1:8080
locale: fr
timezone: UTC
history:
  driver: sqlite
  path: data/history.db
`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadYAML(t *testing.T) {
	unsetEnv(t, EnvTelegramToken, EnvTelegramChatID, EnvPortalURL)
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", validYAML)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Run.Grades || cfg.Run.News {
		t.Fatalf("run toggles: %+v", cfg.Run)
	}
	if cfg.Telegram.ChatID != "-10042" || cfg.LocaleOrDefault() != "fr" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if got, want := cfg.HistoryPath(), filepath.Join(dir, "data", "history.db"); got != want {
		t.Fatalf("history path = %q, want %q", got, want)
	}

	ts, err := cfg.Telegram.Settings()
	if err != nil {
		t.Fatal(err)
	}
	if ts.Throttling != 2*time.Second || ts.Timeout != DefaultTelegramTO || ts.RetryMax != DefaultRetryMax {
		t.Fatalf("telegram settings: %+v", ts)
	}
}

func TestLoadJSON(t *testing.T) {
	unsetEnv(t, EnvTelegramToken, EnvTelegramChatID, EnvPortalURL)
	dir := t.TempDir()
	writeFile(t, dir, "config.json", `{
		"telegram": {"token": "1:a", "chat_id": "1", "retry_max": 0, "throttling": "0s"},
		"portal": {"url": "https://bridge.example"}
	}`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	ts, err := cfg.Telegram.Settings()
	if err != nil {
		t.Fatal(err)
	}
	if ts.RetryMax != 0 || ts.Throttling != 0 {
		t.Fatalf("explicit zero values lost: %+v", ts)
	}
	if cfg.LocaleOrDefault() != "en" || cfg.History.DriverOrDefault() != "file" {
		t.Fatalf("defaults: %+v", cfg)
	}
}

func TestParseYAMLUnquotedScalars(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yml", "telegram: {token: t, chat_id: -10042}\nportal: {url: 'http://x', school_year_start: 2025-09-01}\n")

	cfg, err := Parse(filepath.Join(dir, "config.yml"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Telegram.ChatID != "-10042" {
		t.Fatalf("chat_id = %q", cfg.Telegram.ChatID)
	}
	if cfg.Portal.SchoolYearStart != "2025-09-01" {
		t.Fatalf("school_year_start = %q", cfg.Portal.SchoolYearStart)
	}
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(t.TempDir())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", validYAML+"unknown_key: 1\n")
	if _, err := Load(dir); err == nil || !strings.Contains(err.Error(), "unknown_key") {
		t.Fatalf("got %v, want unknown field error", err)
	}
}

func TestValidationErrors(t *testing.T) {
	unsetEnv(t, EnvTelegramToken, EnvTelegramChatID, EnvPortalURL)
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"missing token", "telegram: {chat_id: '1'}\nportal: {url: 'http://x'}\n", "telegram.token"},
		{"bad locale", "telegram: {token: t, chat_id: '1'}\nportal: {url: 'http://x'}\nlocale: de\n", "locale"},
		{"bad portal url", "telegram: {token: t, chat_id: '1'}\nportal: {url: 'not a url'}\n", "portal.url"},
		{"bad duration", "telegram: {token: t, chat_id: '1', timeout: soon}\nportal: {url: 'http://x'}\n", "telegram.timeout"},
		{"bad driver", "telegram: {token: t, chat_id: '1'}\nportal: {url: 'http://x'}\nhistory: {driver: redis}\n", "history.driver"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "config.yaml", tt.yaml)
			_, err := Load(dir)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("got %v, want error mentioning %q", err, tt.want)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	unsetEnv(t, EnvTelegramChatID, EnvPortalURL)
	t.Setenv(EnvTelegramToken, "from-env")
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", validYAML)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Telegram.Token != "from-env" {
		t.Fatalf("token = %q", cfg.Telegram.Token)
	}
}

func TestDotEnvFillsSecrets(t *testing.T) {
	unsetEnv(t, EnvTelegramToken, EnvTelegramChatID, EnvPortalURL)
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", "portal: {url: 'http://x'}\n")
	writeFile(t, dir, ".env", EnvTelegramToken+"=secret\n"+EnvTelegramChatID+"=77\n")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Telegram.Token != "secret" || cfg.Telegram.ChatID != "77" {
		t.Fatalf("telegram = %+v", cfg.Telegram)
	}
}

func TestApplyToggles(t *testing.T) {
	cfg := &Config{Run: RunConfig{Grades: true}}
	cfg.ApplyToggles(Toggles{News: true})
	if !cfg.Run.Grades || !cfg.Run.News || cfg.Run.Timetable {
		t.Fatalf("run = %+v", cfg.Run)
	}
	if !cfg.Run.Any() {
		t.Fatal("Any() = false")
	}
}

func TestParseDurationOrDefault(t *testing.T) {
	d, err := ParseDurationOrDefault("x", "", time.Second)
	if err != nil || d != time.Second {
		t.Fatalf("empty: %v %v", d, err)
	}
	d, err = ParseDurationOrDefault("x", "0s", time.Second)
	if err != nil || d != 0 {
		t.Fatalf("zero: %v %v", d, err)
	}
	if _, err := ParseDurationOrDefault("x", "-1s", time.Second); err == nil {
		t.Fatal("negative accepted")
	}
}
