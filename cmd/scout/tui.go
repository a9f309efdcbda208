package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/localscout/internal/analytics"
	"github.com/abelbrown/localscout/internal/controller"
	"github.com/abelbrown/localscout/internal/geo"
	"github.com/abelbrown/localscout/internal/logging"
	"github.com/abelbrown/localscout/internal/persist"
	"github.com/abelbrown/localscout/internal/store"
	"github.com/abelbrown/localscout/internal/ui"
)

// refreshInterval reloads places so time buckets track the clock.
const refreshInterval = 5 * time.Minute

// recentEvents is how many events the activity overlay keeps.
const recentEvents = 256

func runInteractive(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	st, err := store.Open(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	// Analytics
	svc, stopAnalytics, err := startAnalytics(ctx)
	if err != nil {
		return err
	}
	defer stopAnalytics()
	recent := analytics.NewRecent(recentEvents)
	tracker := analytics.Multi(svc, recent)
	tracker.Track(analytics.Event{Kind: analytics.KindStartup, Value: cfg.Filters.Session})

	// Filter state, restored from the session snapshot
	snap := newSnapshotter(st, tracker)
	defer snap.Close()

	ctrl := controller.New(
		controller.WithDefaults(cfg.DefaultFilters()),
		controller.WithSnapshotter(snap),
		controller.WithTracker(tracker),
	)

	app := ui.NewApp(ui.Options{
		Controller: ctrl,
		Tracker:    tracker,
		Recent:     recent,
		Origin:     cfg.Origin,
		ZoomKm:     cfg.Map.ZoomKm,
		LoadPlaces: func() tea.Cmd {
			return func() tea.Msg {
				return loadPlaces(st, cfg.Origin)
			}
		},
	})

	program := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))

	go func() {
		ticker := time.NewTicker(refreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				program.Send(ui.RefreshTick{})
			}
		}
	}()

	_, runErr := program.Run()

	tracker.Track(analytics.Event{
		Kind:  analytics.KindShutdown,
		Count: ctrl.ActiveCount(),
	})
	if runErr != nil && ctx.Err() == nil {
		logging.Error("program exited with error", "err", runErr)
		return fmt.Errorf("run program: %w", runErr)
	}
	return nil
}

// loadPlaces reads the catalog and computes distances from origin.
func loadPlaces(st *store.Store, origin geo.Point) ui.PlacesLoaded {
	places, err := st.GetPlaces(0)
	if err != nil {
		logging.Error("load places failed", "err", err)
		return ui.PlacesLoaded{Err: err}
	}
	cats, err := st.Categories()
	if err != nil {
		logging.Error("load categories failed", "err", err)
		return ui.PlacesLoaded{Err: err}
	}
	return ui.PlacesLoaded{
		Places:     geo.WithDistances(places, origin),
		Categories: cats,
	}
}

// newSnapshotter persists applied filters under the configured session.
// Write failures are logged by the snapshotter and reported to analytics.
func newSnapshotter(st *store.Store, tracker analytics.Tracker) *persist.Snapshotter {
	if tracker == nil {
		tracker = analytics.Nop{}
	}
	return persist.NewSnapshotter(
		st.SnapshotStorage(cfg.Filters.Session),
		cfg.Filters.Key,
		persist.WithLogger(logging.WithPrefix("persist")),
		persist.WithErrorHook(func(err error) {
			tracker.Track(analytics.Event{Kind: analytics.KindPersistError, Err: err.Error()})
		}),
	)
}

// startAnalytics opens the event log and starts the batching service. With
// analytics disabled it returns a no-op tracker.
func startAnalytics(ctx context.Context) (analytics.Tracker, func(), error) {
	if !cfg.Analytics.Enabled {
		return analytics.Nop{}, func() {}, nil
	}

	f, err := os.OpenFile(cfg.EventsPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open event log: %w", err)
	}

	svc := analytics.NewService(f, cfg.AnalyticsService(), logging.WithPrefix("analytics"))
	svc.Start(ctx)
	logging.Info("analytics started", "session", svc.SessionID(), "path", cfg.EventsPath())

	stop := func() {
		svc.Stop()
		f.Close()
		logging.Debug("analytics stopped", "sent", svc.Sent(), "dropped", svc.Dropped())
	}
	return svc, stop, nil
}
