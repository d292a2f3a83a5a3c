// Command qxenginectl is the thin admin CLI for a qxengine Core: session
// lifecycle, a one-shot predicate evaluation demo, and subquery-cache
// statistics. It follows the teacher's cmd/bd shape (a package-level
// rootCmd, a signal-aware context set up in PersistentPreRunE, subcommands
// added via AddCommand) scaled down to the handful of operations this
// substrate actually exposes administratively — SPEC_FULL.md's Non-goals
// explicitly keep the admin surface thin.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cubrid/qxengine/internal/core"
	"github.com/cubrid/qxengine/internal/sysparam"
	"github.com/cubrid/qxengine/internal/telemetry"
)

var (
	configPath string
	jsonOutput bool

	rootCtx    context.Context
	rootCancel context.CancelFunc

	app *core.Core
)

var rootCmd = &cobra.Command{
	Use:   "qxenginectl",
	Short: "qxenginectl - admin CLI for the query execution core",
	Long:  "Drives and inspects one qxengine Core: session lifecycle, a predicate evaluation demo, and subquery cache stats.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

		params := sysparam.NewManager()
		if configPath != "" {
			loaded, err := sysparam.Load(configPath)
			if err != nil {
				return fmt.Errorf("qxenginectl: load config: %w", err)
			}
			params = loaded
		}

		c, err := core.New(rootCtx, core.Config{
			Params: params,
			Logger: telemetry.NewLogger(os.Stderr, params.Get().ErLogDebug),
		})
		if err != nil {
			return fmt.Errorf("qxenginectl: %w", err)
		}
		c.Start(rootCtx)
		app = c
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if app != nil {
			_ = app.Stop()
		}
		if rootCancel != nil {
			rootCancel()
		}
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a qxengine.yaml/.toml parameter file")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit machine-readable JSON output")

	rootCmd.AddCommand(sessionCmd, evalCmd, cacheStatsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
