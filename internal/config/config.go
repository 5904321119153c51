package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Config is the tminus configuration file.
type Config struct {
	HomeAssistant HomeAssistant
	Logging       Logging
	Cards         []Card
}

// HomeAssistant locates the backend instance.
type HomeAssistant struct {
	URL   string
	Token string
}

// Logging controls the zap file sink.
type Logging struct {
	Path  string
	Level string
}

// Card is one countdown card as written in the config file. Styling fields
// are passed through to the renderer untouched.
type Card struct {
	Title        string `toml:"title"`
	TargetDate   string `toml:"target_date" validate:"required_without=TimerEntity"`
	TimerEntity  string `toml:"timer_entity" validate:"omitempty,entityref"`
	CreationDate string `toml:"creation_date"`

	ShowMonths  *bool `toml:"show_months"`
	ShowDays    *bool `toml:"show_days"`
	ShowHours   *bool `toml:"show_hours"`
	ShowMinutes *bool `toml:"show_minutes"`
	ShowSeconds *bool `toml:"show_seconds"`

	ExpiredText string `toml:"expired_text"`
	Icon        string `toml:"icon"`

	Color           string `toml:"color" validate:"omitempty,csscolor"`
	BackgroundColor string `toml:"background_color" validate:"omitempty,csscolor"`
	ProgressColor   string `toml:"progress_color" validate:"omitempty,csscolor"`
	Width           string `toml:"width" validate:"omitempty,cssdimension"`
	Height          string `toml:"height" validate:"omitempty,cssdimension"`
	BarHeight       string `toml:"bar_height" validate:"omitempty,cssdimension"`
	AspectRatio     string `toml:"aspect_ratio" validate:"omitempty,aspectratio"`
}

// UnitsConfigured reports whether any show_* flag was written explicitly.
func (c Card) UnitsConfigured() bool {
	return c.ShowMonths != nil || c.ShowDays != nil || c.ShowHours != nil ||
		c.ShowMinutes != nil || c.ShowSeconds != nil
}

// Name returns the title, or the target when the card has none.
func (c Card) Name() string {
	for _, v := range []string{c.Title, c.TargetDate, c.TimerEntity} {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return "countdown"
}

const (
	defaultConfigPath = "~/.config/tminus/config.toml"
	defaultLogPath    = "~/.local/state/tminus/tminus.log"
	defaultLogLevel   = "info"
	defaultTokenEnv   = "HASS_TOKEN"
	defaultURL        = "http://homeassistant.local:8123"
)

// DefaultPath is where Load looks when no path is given.
func DefaultPath() string {
	return mustExpand(defaultConfigPath)
}

// Load locates and parses the config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		HomeAssistant: HomeAssistant{URL: defaultURL, Token: strings.TrimSpace(os.Getenv(defaultTokenEnv))},
		Logging:       Logging{Path: mustExpand(defaultLogPath), Level: defaultLogLevel},
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		HomeAssistant struct {
			URL      string `toml:"url"`
			Token    string `toml:"token"`
			TokenEnv string `toml:"token_env"`
		} `toml:"home_assistant"`
		Logging struct {
			Path  string `toml:"path"`
			Level string `toml:"level"`
		} `toml:"logging"`
		Cards []Card `toml:"cards"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if url := strings.TrimSpace(raw.HomeAssistant.URL); url != "" {
		cfg.HomeAssistant.URL = url
	}
	cfg.HomeAssistant.Token = strings.TrimSpace(raw.HomeAssistant.Token)
	if cfg.HomeAssistant.Token == "" {
		env := strings.TrimSpace(raw.HomeAssistant.TokenEnv)
		if env == "" {
			env = defaultTokenEnv
		}
		cfg.HomeAssistant.Token = strings.TrimSpace(os.Getenv(env))
	}

	if p := strings.TrimSpace(raw.Logging.Path); p != "" {
		cfg.Logging.Path = mustExpand(p)
	}
	if level := strings.ToLower(strings.TrimSpace(raw.Logging.Level)); level != "" {
		cfg.Logging.Level = level
	}

	for _, c := range raw.Cards {
		cfg.Cards = append(cfg.Cards, trimCard(c))
	}
	return cfg, nil
}

func trimCard(c Card) Card {
	for _, field := range []*string{
		&c.Title, &c.TargetDate, &c.TimerEntity, &c.CreationDate, &c.ExpiredText, &c.Icon,
		&c.Color, &c.BackgroundColor, &c.ProgressColor, &c.Width, &c.Height, &c.BarHeight, &c.AspectRatio,
	} {
		*field = strings.TrimSpace(*field)
	}
	return c
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return ExpandPath(defaultConfigPath)
	}
	return ExpandPath(path)
}

func mustExpand(path string) string {
	expanded, err := ExpandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading ~ to the home directory and makes path
// absolute.
func ExpandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
