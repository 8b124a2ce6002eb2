package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/clubkit/ladderd/internal/club"
	"github.com/clubkit/ladderd/internal/config"
	"github.com/clubkit/ladderd/internal/database"
	server "github.com/clubkit/ladderd/internal/http"
	"github.com/clubkit/ladderd/internal/metrics"
	"github.com/clubkit/ladderd/internal/notifier"
	"github.com/clubkit/ladderd/internal/notifier/email"
	slacknotifier "github.com/clubkit/ladderd/internal/notifier/slack"
	"github.com/clubkit/ladderd/internal/processor"
	"github.com/clubkit/ladderd/internal/pubsub"
	"github.com/clubkit/ladderd/internal/storage"
)

func main() {
	startTime := time.Now()
	log.SetFormatter(log.JSONFormatter)
	cfg := config.Load()

	db, dbTeardown, err := database.InitDB(cfg.DBName, cfg.Turso.PrimaryURL, cfg.Turso.AuthToken, cfg.MigrationsDir)
	dbInitDuration := time.Since(startTime)
	log.Info("Database initialization time recorded", "duration_ms", dbInitDuration.Milliseconds())
	if err != nil {
		log.Fatalf("Failed to initialize database: %s", err)
	}
	defer func() {
		log.Info("Closing database connection")
		dbTeardown()
	}()

	clubStore := club.New(db)
	metricsSvc := metrics.NewService()
	metricsHandler := metrics.NewMetricsHandler()

	// Email is the primary channel; Slack takes over when configured.
	var notif notifier.Notifier = email.NewNotifier(cfg.Email.APIKey, cfg.Email.BaseURL, cfg.Email.From, cfg.Email.ReplyTo, metricsSvc)
	if cfg.Slack.Token != "" && cfg.Slack.ChannelID != "" {
		log.Info("Slack notifier configured", "channel", cfg.Slack.ChannelID)
		notif = slacknotifier.NewNotifier(cfg.Slack.Token, cfg.Slack.ChannelID, metricsSvc)
	}

	var uploader storage.Uploader
	if cfg.R2.AccountID != "" {
		uploader, err = storage.NewR2Uploader(storage.R2Config{
			AccountID:       cfg.R2.AccountID,
			AccessKeyID:     cfg.R2.AccessKeyID,
			SecretAccessKey: cfg.R2.SecretAccessKey,
			BucketName:      cfg.R2.Bucket,
			PublicBaseURL:   cfg.R2.PublicBaseURL,
		})
		if err != nil {
			log.Fatalf("Failed to initialize R2 uploader: %s", err)
		}
	} else {
		log.Warn("R2 not configured, avatar uploads will use the in-memory mock")
		uploader = storage.NewMock()
	}

	pubsubClient := pubsub.New(cfg.ProjectID)
	proc := processor.New(clubStore, notif, metricsSvc, pubsubClient)

	s := server.NewServer(clubStore, metricsHandler, cfg, proc, uploader)

	startupDuration := time.Since(startTime)
	metricsSvc.SetStartupTime(startupDuration.Seconds())
	log.Info("Startup time recorded", "duration_ms", startupDuration.Milliseconds())

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: s,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server started", "port", cfg.Port)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-shutdown:
		log.Info("Shutdown signal received", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Server shutdown failed", "error", err)
		} else {
			log.Info("Server gracefully stopped")
		}
	}

	log.Info("Server process shutting down")
}
