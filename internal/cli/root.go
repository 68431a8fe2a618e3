// Package cli is the famcal command line: week planning, conflicts,
// exports, recurrence projections and the HTTP server.
package cli

import (
	"github.com/spf13/cobra"

	"famcal/internal/config"
	appLog "famcal/internal/log"
)

const defaultConfigPath = "./famcal.yaml"

// runtime holds what the persistent pre-run loaded for the subcommands.
type runtime struct {
	configPath string
	logLevel   string
	app        *App
}

// NewRootCmd creates the top-level "famcal" command.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&runtime{})
}

func newRootCmd(rt *runtime) *cobra.Command {
	root := &cobra.Command{
		Use:           "famcal",
		Short:         "Household calendar aggregation and conflict detection",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return rt.load()
		},
	}
	root.PersistentFlags().StringVar(&rt.configPath, "config", defaultConfigPath, "Path to config file")
	root.PersistentFlags().StringVar(&rt.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides config")

	root.AddCommand(
		newWeekCmd(rt),
		newConflictsCmd(rt),
		newExportCmd(rt),
		newNextCmd(rt),
		newSpecialDaysCmd(rt),
		newServeCmd(rt),
	)
	// Post-run hooks are skipped when RunE fails, so the store is closed
	// from within each subcommand instead.
	for _, c := range root.Commands() {
		if run := c.RunE; run != nil {
			c.RunE = func(cmd *cobra.Command, args []string) error {
				defer rt.close()
				return run(cmd, args)
			}
		}
	}
	return root
}

func (rt *runtime) load() error {
	cfg, err := config.Load(rt.configPath)
	if err != nil {
		return err
	}
	level := cfg.LogLevel
	if rt.logLevel != "" {
		level = rt.logLevel
	}
	appLog.SetLevel(appLog.ParseLevel(level))

	app, err := NewApp(cfg)
	if err != nil {
		return err
	}
	rt.app = app
	return nil
}

func (rt *runtime) close() {
	if rt.app == nil {
		return
	}
	if err := rt.app.Close(); err != nil {
		appLog.Warn("close store", "err", err)
	}
}
