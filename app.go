package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/openclaw/qrconsent/config"
	"github.com/openclaw/qrconsent/generate"
	"github.com/openclaw/qrconsent/notify"
	"github.com/openclaw/qrconsent/store"
)

// app wires configuration, logging, history and the generator together.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	history *store.HistoryStore
	gen     *generate.Generator
}

// withApp builds an app from flags, runs fn and releases the app afterwards.
func withApp(flags *globalFlags, fn func(a *app) error) error {
	a, err := newApp(flags)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(a)
}

func newApp(flags *globalFlags) (*app, error) {
	// 1. Load config
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if flags.outDir != "" {
		cfg.OutputDir = flags.outDir
	}

	// 2. Setup logger
	level := cfg.LogLevel
	if flags.verbose {
		level = "debug"
	}
	log := newLogger(level)
	slog.SetDefault(log)

	a := &app{cfg: cfg, log: log}

	// 3. Open history store. A broken store only disables history.
	var recorder generate.Recorder
	if cfg.History.Enabled {
		if h, err := openHistory(cfg); err != nil {
			log.Warn("history disabled", "path", cfg.HistoryPath(), "error", err)
		} else {
			a.history = h
			recorder = h
		}
	}

	// 4. Webhook and generator
	webhook := notify.NewWebhookSender(cfg.WebhookURL, cfg.WebhookTimeout.Duration, log)
	a.gen = generate.New(cfg, recorder, webhook, log)

	log.Debug("configured", "output_dir", cfg.OutputDir, "history", cfg.History.Enabled, "webhook", webhook.Enabled())
	return a, nil
}

func openHistory(cfg *config.Config) (*store.HistoryStore, error) {
	if err := cfg.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}
	h, err := store.NewHistoryStore(cfg.HistoryPath())
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}
	return h, nil
}

func (a *app) close() {
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			a.log.Warn("close history store", "error", err)
		}
	}
}

// newLogger returns a text logger on stderr; user-facing output stays on
// stdout.
func newLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
