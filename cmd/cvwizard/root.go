package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-cvwizard/app"
	"github.com/goliatone/go-cvwizard/config"
)

type cliState struct {
	configFile string
	envFiles   []string
	verbose    bool

	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	state := &cliState{}
	root := &cobra.Command{
		Use:           "cvwizard",
		Short:         "Build, render and export CVs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return state.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if state.logger != nil {
				_ = state.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&state.configFile, "config", "", "YAML configuration file")
	flags.StringSliceVar(&state.envFiles, "env-file", []string{".env"}, "dotenv files loaded before environment overrides")
	flags.BoolVarP(&state.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newRenderCmd(state),
		newExportCmd(state),
		newBatchCmd(state),
		newServeCmd(state),
		newCleanupCmd(state),
		newHistoryCmd(state),
	)
	return root
}

func (s *cliState) init() error {
	cfg, err := config.Load(config.LoadOptions{File: s.configFile, EnvFiles: s.envFiles})
	if err != nil {
		return err
	}
	if s.verbose {
		cfg.Log.Level = "debug"
	}
	logger, err := app.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	s.cfg = cfg
	s.logger = logger
	return nil
}

// open wires the application for a single command run.
func (s *cliState) open(ctx context.Context) (*app.App, error) {
	return app.New(ctx, s.cfg, s.logger)
}
