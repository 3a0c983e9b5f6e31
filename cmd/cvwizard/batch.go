package main

import (
	"fmt"

	"github.com/spf13/cobra"

	cvcmd "github.com/goliatone/go-cvwizard/command"
	"github.com/goliatone/go-cvwizard/cv"
)

func newBatchCmd(state *cliState) *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Export every profile listed in a YAML or JSON batch file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := firstNonEmpty(from, state.cfg.Batch.File)
			if path == "" {
				return cv.NewError(cv.KindValidation, "batch file is required (--from or batch.file)", nil)
			}
			requests, err := cvcmd.LoadBatchRequests(path)
			if err != nil {
				return err
			}

			a, err := state.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			// Runs in process so the command exits once every export is done.
			count, err := a.Batch.Export(cmd.Context(), requests)
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d documents\n", count)
			return err
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "batch file (defaults to batch.file)")
	return cmd
}
