package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cvhttp "github.com/goliatone/go-cvwizard/adapters/http"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the wizard API over net/http",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := state.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.StartSchedules(); err != nil {
				return err
			}

			mux := http.NewServeMux()
			cvhttp.NewHandler(a.API).RegisterRoutes(mux)

			srv := &http.Server{
				Addr:              net.JoinHostPort(state.cfg.Server.Host, state.cfg.Server.Port),
				Handler:           cvhttp.LogRequests(state.logger, mux),
				ReadHeaderTimeout: 5 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				state.logger.Info("serving wizard api", zap.String("addr", srv.Addr), zap.String("base", state.cfg.Server.BasePath))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			state.logger.Info("shutting down")
			return srv.Shutdown(shutdownCtx)
		},
	}
}
