package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"visahub/config"
	"visahub/internal/database"
	"visahub/internal/realtime"
	"visahub/internal/repository"
	"visahub/internal/router"
	"visahub/internal/service"
	"visahub/internal/ws"
	"visahub/pkg/cloudinary"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Debug(".env not found, using process environment")
	}
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg := config.Load()
	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	database.SeedAdmin(db)

	var cloud cloudinary.Client
	if cfg.Cloudinary.CloudName != "" {
		cloud, err = cloudinary.NewClientFromParams(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret)
		if err != nil {
			log.Fatalf("cloudinary: %v", err)
		}
	} else {
		log.Warn("document uploads disabled: Cloudinary not configured")
	}

	fcmSvc := service.NewFCMService(cfg.Firebase.ServiceAccountPath)
	mirror := realtime.NewMirror(cfg.Firebase.ServiceAccountPath, cfg.Firebase.ProjectID)
	if fcmSvc != nil {
		log.Info("push notifications enabled")
	} else {
		log.Info("push notifications disabled: set FIREBASE_SERVICE_ACCOUNT_PATH to enable")
	}
	if mirror == nil {
		log.Info("real-time mirror disabled: live read receipts and toasts will rely on polling")
	}

	hub := ws.NewHub()
	notifier := service.NewNotifier(
		repository.NewNotificationRepository(db),
		repository.NewUserRepository(db),
		fcmSvc,
		mirror,
		hub,
		cfg.Notify.BatchSize,
		cfg.Notify.FlushDelay,
		cfg.Notify.RetryBackoff,
		log,
	)

	engine := router.Setup(cfg, db, cloud, mirror, notifier, hub, log)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Infof("server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("server shutdown: %v", err)
	}
	// Drain queued notifications before the process goes away; items
	// that still fail here are lost, which the logs will show.
	notifier.Stop()
	if err := mirror.Close(); err != nil {
		log.Errorf("mirror close: %v", err)
	}
	log.Info("server stopped")
}
