// The praxis-server command runs the Praxis OS HTTP API.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/praxisos/praxis-server/internal/api"
	"github.com/praxisos/praxis-server/internal/auditstore"
	"github.com/praxisos/praxis-server/internal/config"
	"github.com/praxisos/praxis-server/internal/logging"
	"github.com/praxisos/praxis-server/internal/metrics"
	"github.com/praxisos/praxis-server/internal/pipeline"
	"github.com/praxisos/praxis-server/internal/push"
	"github.com/praxisos/praxis-server/internal/realtime"
	"github.com/praxisos/praxis-server/internal/store"
	"github.com/praxisos/praxis-server/internal/supabase"
)

// version is set at build time.
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("praxis-server", "info", "json").WithError(err).Fatal("load configuration")
	}

	logger := logging.New("praxis-server", cfg.LogLevel, cfg.LogFormat)
	features := config.LoadFeaturesConfigOrDefault()
	m := metrics.New()

	client, err := supabase.New(supabase.Config{
		ProjectURL: cfg.SupabaseURL,
		AnonKey:    cfg.SupabaseAnonKey,
		ServiceKey: cfg.SupabaseServiceKey,
	})
	if err != nil {
		logger.WithError(err).Fatal("create supabase client")
	}

	st := store.New(client, logger)

	var audit *auditstore.Store
	if cfg.AuditDatabaseURL != "" {
		audit, err = auditstore.Open(cfg.AuditDatabaseURL)
		if err != nil {
			logger.WithError(err).Fatal("open audit store")
		}
		defer audit.Close()
	} else {
		logger.Warn("audit store disabled: AUDIT_DATABASE_URL not set")
	}

	var sender *push.Sender
	if cfg.PushVAPIDPublicKey != "" {
		sender, err = push.NewSender(push.Config{
			VAPIDPublicKey:  cfg.PushVAPIDPublicKey,
			VAPIDPrivateKey: cfg.PushVAPIDPrivateKey,
			Contact:         cfg.PushContact,
		}, logger, m)
		if err != nil {
			logger.WithError(err).Fatal("create push sender")
		}
	} else {
		logger.Warn("push disabled: VAPID keys not set")
	}

	var sessions pipeline.SessionResolver
	if cfg.SupabaseJWTSecret != "" {
		sessions = pipeline.NewJWTSessionResolver(cfg.SupabaseJWTSecret)
	} else {
		logger.Warn("SUPABASE_JWT_SECRET not set, resolving sessions upstream")
		sessions = pipeline.NewRemoteSessionResolver(client.Auth())
	}
	pipe := pipeline.New(sessions, st, logger)

	server := api.NewServer(api.Options{
		Store:    st,
		Audit:    audit,
		Sender:   sender,
		Pipeline: pipe,
		Logger:   logger,
		Metrics:  m,
		Config:   cfg,
		Features: features,
		Version:  version,
	})

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if features.IsEnabled("realtime") && sender != nil {
		listener := realtime.NewListener(client.Realtime(), st, sender, logger, m)
		go func() {
			if err := listener.Run(ctx); err != nil && ctx.Err() == nil {
				logger.WithError(err).Error("realtime listener stopped")
			}
		}()
	}

	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	}
}
