package cli

import (
	"context"
	"fmt"
	"os"

	"modeldeck/internal/backend"
	"modeldeck/internal/catalog"
	"modeldeck/internal/config"
	"modeldeck/internal/domain"
	"modeldeck/internal/eventbus"
	"modeldeck/internal/logging"
)

// app holds the long-lived pieces every command needs
type app struct {
	cfg     *config.Config
	bus     eventbus.EventBus
	store   *catalog.Store
	backend *backend.Service
	stats   domain.CatalogStats
}

// openApp loads config, starts logging, opens and seeds the catalog and
// builds the backend. Flags override config values.
func openApp(ctx context.Context, flags *rootFlags) (*app, error) {
	bus := eventbus.New()

	cs := config.NewConfigService()
	if flags.configPath != "" {
		cs = config.NewConfigServiceAt(flags.configPath)
	}
	cs = config.WithBus(cs, bus)

	cfg, err := cs.Load()
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("load config: %w", err)
	}
	flags.apply(cfg)

	if err := logging.Init(cfg.LogPath, cfg.LogLevel); err != nil {
		bus.Close()
		return nil, fmt.Errorf("init logging: %w", err)
	}
	logging.Debug("invoked", "args", os.Args, "config", cs.Path())

	store, err := catalog.Open(cfg.CatalogPath)
	if err != nil {
		bus.Close()
		logging.Close()
		return nil, fmt.Errorf("open catalog %s: %w", cfg.CatalogPath, err)
	}

	stats, err := catalog.Bootstrap(ctx, store, cfg.SeedPath)
	if err != nil {
		store.Close()
		bus.Close()
		logging.Close()
		return nil, fmt.Errorf("seed catalog: %w", err)
	}
	svc := backend.New(store, bus, backend.Options{
		Workers:       cfg.Backend.Workers,
		Timeout:       cfg.Backend.Timeout.Duration,
		RatePerSecond: cfg.Backend.RatePerSecond,
		Burst:         cfg.Backend.Burst,
		ResultLimit:   cfg.Backend.ResultLimit,
	})

	return &app{cfg: cfg, bus: bus, store: store, backend: svc, stats: stats}, nil
}

// announce publishes the catalog stats; call it once subscribers are in place
func (a *app) announce() {
	a.bus.Publish(eventbus.CatalogLoadedEvent{Path: a.cfg.CatalogPath, Stats: a.stats})
}

func (a *app) Close() {
	a.bus.Close()
	if err := a.store.Close(); err != nil {
		logging.Warn("closing catalog", "err", err)
	}
	logging.Close()
}
