package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	appLog "famcal/internal/log"
	"famcal/internal/web"
)

func newServeCmd(rt *runtime) *cobra.Command {
	var listen string
	var noPrint bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and refresh feeds on schedule",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := rt.app
			if listen != "" {
				app.Config.Listen = listen
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := NewServer(app, !noPrint)
			sched, err := startScheduler(ctx, app, srv)
			if err != nil {
				return err
			}
			defer func() {
				<-sched.Stop().Done()
			}()

			appLog.Info("famcal serving",
				"listen", app.Config.Listen,
				"timezone", app.Location.String(),
				"refresh", app.Config.RefreshCron,
				"feeds", len(app.Config.Feeds),
			)
			return srv.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config)")
	cmd.Flags().BoolVar(&noPrint, "no-print", false, "Disable the PDF and PNG routes (no Chromium on this host)")
	return cmd
}

// NewServer builds the HTTP server over the wired engine.
func NewServer(app *App, withRenderer bool) *web.Server {
	deps := web.Deps{
		Weeks:       app.Aggregator,
		Detector:    app.Detector,
		SpecialDays: app.SpecialDays,
		Location:    app.Location,
	}
	if withRenderer {
		deps.Renderer = app.Renderer
	}
	return web.NewServer(app.Config, deps)
}

// startScheduler refreshes feeds and warms the current week right away,
// then on every tick of the configured cron schedule.
func startScheduler(ctx context.Context, app *App, srv *web.Server) (*cron.Cron, error) {
	refresh := func() {
		app.Refresh(ctx)
		srv.Invalidate()
		srv.Warm(ctx)
	}
	sched := cron.New(cron.WithLocation(app.Location))
	if _, err := sched.AddFunc(app.Config.RefreshCron, refresh); err != nil {
		return nil, fmt.Errorf("schedule %q: %w", app.Config.RefreshCron, err)
	}
	go refresh()
	sched.Start()
	return sched, nil
}
