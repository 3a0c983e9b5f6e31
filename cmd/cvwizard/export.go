package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-cvwizard/config"
	"github.com/goliatone/go-cvwizard/cv"
)

func newExportCmd(state *cliState) *cobra.Command {
	var (
		seed     string
		formats  []string
		out      string
		template string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a seed profile as {name}_CV.{ext} into a directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := config.LoadSeedProfile(firstNonEmpty(seed, state.cfg.Wizard.SeedProfile))
			if err != nil {
				return err
			}
			if err := os.MkdirAll(out, 0o755); err != nil {
				return cv.NewError(cv.KindInternal, "create output directory failed", err)
			}

			a, err := state.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			session, err := a.NewBatchSession(profile)
			if err != nil {
				return err
			}
			if template != "" {
				if err := session.SelectTemplate(template); err != nil {
					return err
				}
			}

			for _, format := range formats {
				outcome, err := session.Export(cmd.Context(), cv.Format(format))
				if err != nil {
					return err
				}
				target := filepath.Join(out, outcome.Artifact.Filename)
				if err := os.WriteFile(target, outcome.Artifact.Data, 0o644); err != nil {
					return cv.NewError(cv.KindInternal, "write export failed", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), target)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&seed, "seed", "", "YAML seed profile (defaults to wizard.seed_profile)")
	cmd.Flags().StringSliceVarP(&formats, "format", "f", []string{string(cv.FormatPDF)}, "formats to export (pdf, html, xlsx, sqlite)")
	cmd.Flags().StringVarP(&out, "out", "o", ".", "output directory")
	cmd.Flags().StringVar(&template, "template", "", "presentation template")
	return cmd
}
