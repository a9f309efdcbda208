package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abelbrown/localscout/internal/store"
)

var pruneOlderThan time.Duration

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete filter snapshots from idle sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		age := pruneOlderThan
		if !cmd.Flags().Changed("older-than") {
			age = time.Duration(cfg.Filters.RetainDays) * 24 * time.Hour
		}
		if age <= 0 {
			return fmt.Errorf("--older-than must be positive")
		}

		st, err := store.Open(cfg.DatabasePath())
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		n, err := st.PruneSnapshots(time.Now().Add(-age))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "pruned %d snapshots idle for more than %s\n", n, age)
		return nil
	},
}

func init() {
	pruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 0, "snapshot age to prune (default: config retain_days)")
}
