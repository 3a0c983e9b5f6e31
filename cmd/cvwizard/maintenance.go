package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	cvcmd "github.com/goliatone/go-cvwizard/command"
	"github.com/goliatone/go-cvwizard/cv"
)

func newCleanupCmd(state *cliState) *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove delivered downloads past their retention",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := state.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if cmd.Flags().Changed("older-than") {
				a.Cleanup.Retention = olderThan
			}
			var removed int
			if err := a.Cleanup.Execute(cmd.Context(), cvcmd.CleanupDownloads{Result: &removed}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d downloads\n", removed)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "override downloads.retention")
	return cmd
}

func newHistoryCmd(state *cliState) *cobra.Command {
	var (
		format string
		status string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded exports as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := state.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			records, err := a.History.List(cmd.Context(), cv.HistoryFilter{
				Format: cv.Format(format),
				Status: cv.ExportStatus(status),
				Limit:  limit,
			})
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "filter by format")
	cmd.Flags().StringVar(&status, "status", "", "filter by status (succeeded, failed)")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum records")
	return cmd
}
