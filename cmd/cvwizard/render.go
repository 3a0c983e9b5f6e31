package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	exporttemplate "github.com/goliatone/go-cvwizard/adapters/template"
	"github.com/goliatone/go-cvwizard/config"
	"github.com/goliatone/go-cvwizard/cv"
)

func newRenderCmd(state *cliState) *cobra.Command {
	var (
		seed     string
		asHTML   bool
		template string
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print the document rendered from a seed profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := config.LoadSeedProfile(firstNonEmpty(seed, state.cfg.Wizard.SeedProfile))
			if err != nil {
				return err
			}
			doc := cv.Render(profile)
			if !asHTML {
				return writeOutline(cmd.OutOrStdout(), doc)
			}

			executor, err := exporttemplate.NewPongo2Executor()
			if err != nil {
				return err
			}
			renderer := exporttemplate.Renderer{Templates: executor, TemplateName: state.cfg.Wizard.DefaultTemplate}
			opts := exporttemplate.OptionsFromExport(state.cfg.ExportDefaults())
			if template != "" {
				opts.TemplateName = template
			}
			_, err = renderer.Render(cmd.Context(), doc, cmd.OutOrStdout(), opts)
			return err
		},
	}
	cmd.Flags().StringVar(&seed, "seed", "", "YAML seed profile (defaults to wizard.seed_profile)")
	cmd.Flags().BoolVar(&asHTML, "html", false, "print HTML instead of the outline")
	cmd.Flags().StringVar(&template, "template", "", "presentation template for --html")
	return cmd
}

func writeOutline(w io.Writer, doc cv.Document) error {
	var b strings.Builder
	if doc.Name != "" {
		fmt.Fprintln(&b, doc.Name)
	}
	for _, section := range doc.Sections {
		fmt.Fprintf(&b, "== %s ==\n", section.Title)
		for _, block := range section.Blocks {
			switch block.Kind {
			case cv.BlockHeading:
				fmt.Fprintf(&b, "  %s\n", block.Heading)
				if block.Subtext != "" {
					fmt.Fprintf(&b, "    %s\n", block.Subtext)
				}
			case cv.BlockBullets:
				for _, line := range block.Lines {
					fmt.Fprintf(&b, "    - %s\n", line)
				}
			default:
				if block.Label != "" {
					fmt.Fprintf(&b, "  %s: %s\n", block.Label, block.Text)
				} else {
					fmt.Fprintf(&b, "  %s\n", block.Text)
				}
			}
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
