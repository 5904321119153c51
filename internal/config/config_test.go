package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("HASS_TOKEN", "env-token")

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.HomeAssistant.URL != defaultURL {
		t.Fatalf("URL = %q, want %q", cfg.HomeAssistant.URL, defaultURL)
	}
	if cfg.HomeAssistant.Token != "env-token" {
		t.Fatalf("Token = %q, want %q", cfg.HomeAssistant.Token, "env-token")
	}
	wantLog, err := ExpandPath(defaultLogPath)
	if err != nil {
		t.Fatalf("ExpandPath(defaultLogPath) returned error: %v", err)
	}
	if cfg.Logging.Path != wantLog {
		t.Fatalf("Logging.Path = %q, want %q", cfg.Logging.Path, wantLog)
	}
	if cfg.Logging.Level != defaultLogLevel {
		t.Fatalf("Logging.Level = %q, want %q", cfg.Logging.Level, defaultLogLevel)
	}
	if len(cfg.Cards) != 0 {
		t.Fatalf("Cards = %d, want 0", len(cfg.Cards))
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("MY_HA_TOKEN", "  from-env  ")

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
[home_assistant]
url = "  10.0.0.5:8123  "
token_env = "MY_HA_TOKEN"

[logging]
path = "  ~/logs/tminus.log  "
level = " DEBUG "

[[cards]]
title = "  New year "
target_date = " 2027-01-01T00:00:00 "
show_days = true
show_hours = false
color = " #ff0000 "

[[cards]]
timer_entity = "timer.washer"
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.HomeAssistant.URL != "10.0.0.5:8123" {
		t.Fatalf("URL = %q, want %q", cfg.HomeAssistant.URL, "10.0.0.5:8123")
	}
	if cfg.HomeAssistant.Token != "from-env" {
		t.Fatalf("Token = %q, want %q", cfg.HomeAssistant.Token, "from-env")
	}
	if !strings.HasPrefix(cfg.Logging.Path, home) {
		t.Fatalf("Logging.Path = %q, want it under HOME %q", cfg.Logging.Path, home)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if len(cfg.Cards) != 2 {
		t.Fatalf("Cards = %d, want 2", len(cfg.Cards))
	}

	first := cfg.Cards[0]
	if first.Title != "New year" || first.TargetDate != "2027-01-01T00:00:00" || first.Color != "#ff0000" {
		t.Fatalf("first card = %+v, want trimmed values", first)
	}
	if first.ShowDays == nil || !*first.ShowDays {
		t.Fatalf("ShowDays = %v, want true", first.ShowDays)
	}
	if first.ShowHours == nil || *first.ShowHours {
		t.Fatalf("ShowHours = %v, want explicit false", first.ShowHours)
	}
	if first.ShowMinutes != nil {
		t.Fatalf("ShowMinutes = %v, want nil", first.ShowMinutes)
	}
	if !first.UnitsConfigured() {
		t.Fatalf("UnitsConfigured = false, want true")
	}

	second := cfg.Cards[1]
	if second.UnitsConfigured() {
		t.Fatalf("UnitsConfigured = true for a card without show_* flags")
	}
	if second.Name() != "timer.washer" {
		t.Fatalf("Name = %q, want timer.washer", second.Name())
	}
}

func TestLoad_ExplicitTokenWins(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("HASS_TOKEN", "env-token")

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
[home_assistant]
token = "file-token"
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.HomeAssistant.Token != "file-token" {
		t.Fatalf("Token = %q, want file-token", cfg.HomeAssistant.Token)
	}
}

func TestLoad_EmptyValuesUseDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
[home_assistant]
url = "   "

[logging]
path = ""
level = " "
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.HomeAssistant.URL != defaultURL {
		t.Fatalf("URL = %q, want %q", cfg.HomeAssistant.URL, defaultURL)
	}
	wantLog, err := ExpandPath(defaultLogPath)
	if err != nil {
		t.Fatalf("ExpandPath(defaultLogPath) returned error: %v", err)
	}
	if cfg.Logging.Path != wantLog {
		t.Fatalf("Logging.Path = %q, want %q", cfg.Logging.Path, wantLog)
	}
	if cfg.Logging.Level != defaultLogLevel {
		t.Fatalf("Logging.Level = %q, want %q", cfg.Logging.Level, defaultLogLevel)
	}
}

func TestLoad_InvalidTOMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`[[cards]
title = `), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err := Load(path)
	if err == nil {
		t.Fatalf("Load returned nil error, want parse error")
	}
	if !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("Load error = %q, want it to mention parse config", err.Error())
	}
}

func TestCardName(t *testing.T) {
	tests := []struct {
		card Card
		want string
	}{
		{Card{Title: "Trip", TargetDate: "2027-01-01"}, "Trip"},
		{Card{TargetDate: "sensor.next_alarm"}, "sensor.next_alarm"},
		{Card{}, "countdown"},
	}
	for _, tt := range tests {
		if got := tt.card.Name(); got != tt.want {
			t.Fatalf("Name(%+v) = %q, want %q", tt.card, got, tt.want)
		}
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := ExpandPath("~/a/b")
	if err != nil {
		t.Fatalf("ExpandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("ExpandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := ExpandPath("   "); err == nil {
		t.Fatalf("ExpandPath returned nil error, want error")
	}
}
