package cli

import (
	"context"
	"fmt"
	"time"

	"famcal/internal/calendar"
	"famcal/internal/config"
	"famcal/internal/export"
	"famcal/internal/ics"
	appLog "famcal/internal/log"
	"famcal/internal/specialdays"
	"famcal/internal/store"
)

// App is the wired engine shared by every command.
type App struct {
	Config      *config.Config
	Location    *time.Location
	Store       *store.Store
	SpecialDays *specialdays.Calendar
	Events      *ics.Feed
	Closures    *ics.Feed
	Aggregator  *calendar.Aggregator
	Detector    *calendar.Detector
	Renderer    export.Chromium
	now         func() time.Time
}

// NewApp opens the store and wires the special days, the ICS feeds, the
// aggregator and the detector from cfg.
func NewApp(cfg *config.Config) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}
	closures, err := cfg.ClosurePeriods()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(cfg.DBPath, store.WithLocation(loc))
	if err != nil {
		return nil, err
	}

	fetcher := ics.NewFetcher(cfg.CacheDir)
	maxAge := ics.WithMaxAge(time.Duration(cfg.CacheTTLSeconds) * time.Second)
	events := ics.NewFeed(fetcher, cfg.Feeds, maxAge, ics.WithFeedLocation(loc))
	closureFeed := ics.NewFeed(fetcher, cfg.ClosureFeeds, maxAge, ics.WithFeedLocation(loc))

	opts := []specialdays.Option{
		specialdays.WithClosures(closures...),
		specialdays.WithSources(st),
	}
	if len(cfg.ClosureFeeds) > 0 {
		opts = append(opts, specialdays.WithSources(ics.NewClosureFeed(closureFeed)))
	}
	if cfg.DisableBridgeDays {
		opts = append(opts, specialdays.WithoutBridges())
	}
	special := specialdays.New(opts...)

	aggOpts := []calendar.AggregatorOption{
		calendar.WithSpecialDays(special),
		calendar.WithLocation(loc),
	}
	if len(cfg.Feeds) > 0 {
		aggOpts = append(aggOpts, calendar.WithFeeds(ics.NewFeedEvents(events)))
	}

	appLog.Debug("engine wired",
		"db", cfg.DBPath,
		"timezone", loc.String(),
		"feeds", len(cfg.Feeds),
		"closure_feeds", len(cfg.ClosureFeeds),
		"closures", len(closures),
	)
	return &App{
		Config:      cfg,
		Location:    loc,
		Store:       st,
		SpecialDays: special,
		Events:      events,
		Closures:    closureFeed,
		Aggregator:  calendar.NewAggregator(st, aggOpts...),
		Detector:    calendar.NewDetector(cfg.Rules, calendar.WithSpecialDayLookup(special)),
		Renderer: export.Chromium{Options: export.RenderOptions{
			ChromePath: cfg.Render.ChromePath,
			NoSandbox:  cfg.Render.NoSandbox,
			Landscape:  cfg.Render.Landscape,
		}},
		now: time.Now,
	}, nil
}

func (a *App) Close() error {
	return a.Store.Close()
}

// Today is the current date in the configured timezone.
func (a *App) Today() time.Time {
	return calendar.DateOf(a.now().In(a.Location))
}

// Refresh re-downloads every feed. Failures are logged; the previous
// cached bodies keep serving.
func (a *App) Refresh(ctx context.Context) {
	for name, feed := range map[string]*ics.Feed{"events": a.Events, "closures": a.Closures} {
		n, err := feed.Refresh(ctx)
		if err != nil {
			appLog.Error("feed refresh failed", err, "feed", name)
			continue
		}
		appLog.Info("feed refreshed", "feed", name, "events", n)
	}
}

// parseDate reads a YYYY-MM-DD flag value in the app timezone, or today.
func (a *App) parseDate(v string) (time.Time, error) {
	if v == "" {
		return a.Today(), nil
	}
	t, err := time.ParseInLocation("2006-01-02", v, a.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: expected YYYY-MM-DD", v)
	}
	return t, nil
}
