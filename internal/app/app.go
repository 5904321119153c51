package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/five82/tminus/internal/config"
	"github.com/five82/tminus/internal/hass"
	"github.com/five82/tminus/internal/logging"
	"github.com/five82/tminus/internal/notice"
	"github.com/five82/tminus/internal/prefs"
	"github.com/five82/tminus/internal/state"
	"github.com/five82/tminus/internal/ui"
)

// Options configure the tminus application.
type Options struct {
	ConfigPath string // empty uses ~/.config/tminus/config.toml
	PrefsPath  string // empty uses ~/.config/tminus/prefs.toml
	LogLevel   string // overrides [logging].level when set
}

// Run boots the tminus TUI until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		cfg.Logging.Level = level
	}

	logger, err := logging.New(cfg.Logging.Path, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Sugar()

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		log.Warnw("prefs unreadable, using defaults", "error", err)
	}

	conn, err := hass.Dial(cfg.HomeAssistant.URL, cfg.HomeAssistant.Token, log.Named("hass"))
	if err != nil {
		return fmt.Errorf("init home assistant connection: %w", err)
	}
	defer func() { _ = conn.Close() }()
	if cfg.HomeAssistant.Token == "" {
		log.Warnw("no home assistant token configured; entity and template values will fail")
	}

	store := &state.Store{}
	board := notice.NewBoard(notice.OnChange(store.Notify))

	deck := startCards(ctx, cfg.Cards, conn, store, board, log)
	defer deck.Close()

	StartPoller(ctx, conn, board, log, defaultPollInterval)

	log.Infow("tminus started", "cards", len(cfg.Cards), "url", conn.BaseURL())
	return ui.Run(ui.Options{
		Context:   ctx,
		Store:     store,
		Board:     board,
		Refresh:   deck.Refresh,
		LogPath:   cfg.Logging.Path,
		ThemeName: userPrefs.Theme,
		PrefsPath: opts.PrefsPath,
		Selected:  userPrefs.Selected,
	})
}
