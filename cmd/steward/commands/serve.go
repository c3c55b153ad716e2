package commands

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/stewardai/steward/responses"
	"github.com/stewardai/steward/supervisor"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the supervisor agent over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		sup, err := buildSupervisor(cfg, logger)
		if err != nil {
			return err
		}

		handler := responses.NewHandler(sup.Runner(), supervisor.FormatterName, logger)
		srv := &http.Server{
			Addr:        cfg.Server.Addr,
			Handler:     handler.Mux(),
			ReadTimeout: 30 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			logger.Info("steward.serve.listening", "addr", cfg.Server.Addr)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		logger.Info("steward.serve.shutdown")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}
