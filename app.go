package main

import (
	"fmt"
	"os"

	"github.com/gigurra/subsight/internal"
	"github.com/gigurra/subsight/internal/store"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// app holds everything a command needs, built from config and environment
type app struct {
	cfg     *internal.Config
	log     *logrus.Logger
	locale  internal.Locale
	tracker internal.Tracker
	backend store.Backend
	repo    *store.Repository
}

// loadConfig reads the config file (default path when empty), then applies
// .env and SUBSIGHT_* overrides and validates the result
func loadConfig(path string) (*internal.Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = internal.DefaultConfigPath()
	}
	cfg, err := internal.LoadConfigOrDefault(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openApp(configPath string) (*app, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	log := internal.NewLogger(cfg.Log, os.Stderr)

	backend, err := store.Open(cfg.Store, log)
	if err != nil {
		return nil, err
	}

	var tracker internal.Tracker = internal.NopTracker{}
	if cfg.Telemetry.Enabled {
		tracker = internal.NewLogTracker(log, true)
	}

	opts := []store.Option{store.WithTracker(tracker)}
	if cfg.Store.MaxRecords > 0 {
		opts = append(opts, store.WithMaxRecords(cfg.Store.MaxRecords))
	}

	return &app{
		cfg:     cfg,
		log:     log,
		locale:  internal.DetectLocale(cfg.Display.Locale),
		tracker: tracker,
		backend: backend,
		repo:    store.NewRepository(backend, log, opts...),
	}, nil
}

func (a *app) Close() {
	if err := a.backend.Close(); err != nil {
		a.log.WithError(err).Warn("closing store")
	}
}

// money formats summary figures in the display currency for subs
func (a *app) money(subs []internal.Subscription) internal.Money {
	return internal.NewMoney(internal.DisplayCurrency(a.cfg.DisplayCurrencyCode(), subs), a.locale.Tag)
}
