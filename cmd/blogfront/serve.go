package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"blogfront/internal/server"
	"blogfront/internal/store"
	"blogfront/internal/worker"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server (and the cache worker when caching is on)",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		svc, st := buildContent(true)
		if st != nil {
			defer st.Close()
		}

		var queue store.Queue
		if st != nil {
			queue = st

			var warmer worker.Warmer
			if cfg.Cache.WarmOnPurge {
				warmer = svc
			}
			w := worker.NewWorker(st, warmer, logger)
			go w.Start(ctx)
		}

		srv, err := server.NewServer(svc, queue, server.Config{
			SiteTitle:      cfg.Server.SiteTitle,
			SiteURL:        cfg.Server.SiteURL,
			WebhookSecret:  cfg.Server.WebhookSecret,
			StaticDir:      cfg.Server.StaticDir,
			ReadTimeout:    cfg.Server.ReadTimeout,
			WriteTimeout:   cfg.Server.WriteTimeout,
			RateLimit:      cfg.Server.RateLimit.RPS,
			RateBurst:      cfg.Server.RateLimit.Burst,
			TopPageSize:    cfg.Listing.TopPageSize,
			BlogPageSize:   cfg.Listing.BlogPageSize,
			LoadMoreDelay:  cfg.Listing.LoadMoreDelay,
			TrustedProxies: cfg.Server.TrustedProxies,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to init server", zap.Error(err))
		}

		errc := make(chan error, 1)
		go func() {
			errc <- srv.Start(cfg.Server.Addr)
		}()

		select {
		case err := <-errc:
			if !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Server failed", zap.Error(err))
			}
		case <-ctx.Done():
			logger.Info("Shutting down...")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			logger.Error("Graceful shutdown failed", zap.Error(err))
		}
		logger.Info("Goodbye!")
	},
}
