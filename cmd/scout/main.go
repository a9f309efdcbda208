// Command scout browses a local catalog of places with a two-phase filter
// panel: edits stay pending until applied, and the list and map always
// render the same applied filters.
//
// Usage:
//
//	scout                   Interactive list and map
//	scout list [flags]      Print places matching filter flags
//	scout seed <file>...    Import places from YAML or JSON files
//	scout events            Analytics event log viewer
//	scout prune             Delete idle filter snapshots
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/abelbrown/localscout/internal/config"
	"github.com/abelbrown/localscout/internal/logging"
)

var (
	configPath string
	dbOverride string
	session    string
	verbose    bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "scout",
	Short: "Browse nearby places with list and map views",
	Long: `scout is a terminal browser for a local catalog of places.

Filters are edited in a panel and only take effect when applied, so the
list and map never disagree and panning the map never re-filters.

Run without arguments to start the interactive interface.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var loadErr error
		cfg, loadErr = config.Load(configPath)
		if loadErr != nil {
			// Defaults are still usable; report and continue.
			fmt.Fprintf(os.Stderr, "warning: %v (using defaults)\n", loadErr)
		}
		if dbOverride != "" {
			cfg.Database = dbOverride
		}
		if session != "" {
			cfg.Filters.Session = session
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}
		if err := logging.Init(cfg.DataDir); err != nil {
			return err
		}
		if verbose {
			logging.Logger.SetLevel(log.DebugLevel)
		} else {
			logging.Logger.SetLevel(log.InfoLevel)
		}
		if loadErr != nil {
			logging.Warn("config load failed, using defaults", "path", configPath, "err", loadErr)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Close()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.ConfigPath(), "config file")
	rootCmd.PersistentFlags().StringVar(&dbOverride, "db", "", "database path (overrides config and SCOUT_DB)")
	rootCmd.PersistentFlags().StringVar(&session, "session", "", "filter snapshot session")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(listCmd, seedCmd, eventsCmd, pruneCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
