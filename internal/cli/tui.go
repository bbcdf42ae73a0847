package cli

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"modeldeck/internal/catalog"
	"modeldeck/internal/eventbus"
	"modeldeck/internal/logging"
	"modeldeck/internal/search"
	"modeldeck/internal/ui"
)

// runTUI runs the browser until the user quits or ctx is cancelled
func runTUI(ctx context.Context, flags *rootFlags) error {
	a, err := openApp(ctx, flags)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	waker := ui.NewProgramWaker()
	coord := search.New(a.backend.Commands(), waker)
	model := ui.NewModel(coord, a.cfg)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	waker.Attach(p)

	// Forward catalog events to the UI
	forward := func(e eventbus.DomainEvent) { p.Send(ui.EventMsg{Event: e}) }
	for _, t := range []eventbus.EventType{
		eventbus.EventCatalogLoaded,
		eventbus.EventCatalogReloaded,
		eventbus.EventError,
	} {
		unsubscribe := a.bus.Subscribe(t, forward)
		defer unsubscribe()
	}
	a.announce()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.backend.Run(gctx)
	})

	if a.cfg.SeedPath != "" {
		w, err := catalog.NewWatcher(a.store, a.cfg.SeedPath, a.bus, 0)
		if err != nil {
			logging.Warn("seed watcher disabled", "err", err)
		} else {
			g.Go(func() error { return w.Run(gctx) })
		}
	}

	g.Go(func() error {
		defer cancel()
		logging.Info("starting UI")
		if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("run UI: %w", err)
		}
		logging.Info("UI exited normally")
		return nil
	})

	return g.Wait()
}
