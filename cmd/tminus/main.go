package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/tminus/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "config file path (optional, defaults to ~/.config/tminus/config.toml)")
	prefsPath := flag.String("prefs", "", "prefs file path (optional, defaults to ~/.config/tminus/prefs.toml)")
	logLevel := flag.String("log-level", "", "log level: debug, info, warn or error (optional)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		PrefsPath:  *prefsPath,
		LogLevel:   *logLevel,
	}
	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "tminus: %v\n", err)
		return 1
	}
	return 0
}
