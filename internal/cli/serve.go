package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ttuhina/MuseMe/internal/adapters/audiodb"
	"github.com/ttuhina/MuseMe/internal/adapters/lyricsovh"
	"github.com/ttuhina/MuseMe/internal/adapters/rest"
	"github.com/ttuhina/MuseMe/internal/adapters/static"
	"github.com/ttuhina/MuseMe/internal/adapters/upstream"
	"github.com/ttuhina/MuseMe/internal/config"
	"github.com/ttuhina/MuseMe/internal/core/services"
	"github.com/ttuhina/MuseMe/internal/logging"
)

func newServeCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), v)
		},
	}
}

func runServe(ctx context.Context, v *viper.Viper) error {
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		return err
	}

	srv := newServer(cfg, logger)

	logger.WithFields(logrus.Fields{
		"addr":       srv.Addr,
		"asset_root": cfg.AssetRoot,
	}).Info("MuseMe server running")

	serverErr := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("Server shutting down gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("serve: shutdown: %w", err)
		}
		return nil
	}
}

// newServer wires adapters into the aggregator and the HTTP handler.
func newServer(cfg config.Config, logger *logrus.Logger) *http.Server {
	// 1. Driven adapters: the upstream lookups
	fetcher := upstream.NewClient(&http.Client{}, logger,
		upstream.WithTimeout(cfg.UpstreamTimeout),
		upstream.WithMaxBodyBytes(cfg.UpstreamMaxBodyBytes),
	)
	lyrics := lyricsovh.NewClient(fetcher, cfg.LyricsBaseURL, logger)
	artists := audiodb.NewClient(fetcher, cfg.AudioDBBaseURL, logger)

	// 2. Core
	svc := services.NewAggregator(lyrics, artists, logger)

	// 3. Driving adapter
	var assets http.Handler
	responder, err := static.NewResponder(cfg.AssetRoot, logger)
	if err != nil {
		logger.WithError(err).Warn("static assets disabled")
	} else {
		assets = responder
	}

	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           rest.NewHandler(svc, assets, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
