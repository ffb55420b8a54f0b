package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/handicap-system/config"
	"github.com/Dosada05/handicap-system/db"
	"github.com/Dosada05/handicap-system/handlers"
	"github.com/Dosada05/handicap-system/realtime"
	"github.com/Dosada05/handicap-system/repositories"
	"github.com/Dosada05/handicap-system/routes"
	"github.com/Dosada05/handicap-system/services"
	"github.com/Dosada05/handicap-system/storage"
	"github.com/Dosada05/handicap-system/utils"
	"github.com/go-chi/chi/v5"
)

const (
	appName         = "handicap-system"
	shutdownTimeout = 15 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.NewLogger(appName, "info").WithError(err).Fatal("failed to load configuration")
	}
	logger := utils.NewLogger(appName, cfg.LogLevel)
	handlers.SetLogger(logger)
	logger.WithField("port", cfg.ServerPort).Info("configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool := db.DefaultPoolConfig()
	pool.MaxOpenConns = cfg.DBMaxOpenConns
	pool.MaxIdleConns = cfg.DBMaxOpenConns
	dbConn, err := db.Connect(ctx, cfg.DatabaseURL, pool)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to database")
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.WithError(err).Error("failed to close database connection")
		} else {
			logger.Info("database connection closed")
		}
	}()
	if err := db.Migrate(ctx, dbConn); err != nil {
		logger.WithError(err).Fatal("failed to apply schema")
	}
	logger.Info("database ready")

	var uploader storage.FileUploader
	r2 := storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2.AccountID,
		AccessKeyID:     cfg.R2.AccessKeyID,
		SecretAccessKey: cfg.R2.SecretAccessKey,
		BucketName:      cfg.R2.BucketName,
		PublicBaseURL:   cfg.R2.PublicBaseURL,
	}
	if r2.Enabled() {
		uploader, err = storage.NewCloudflareR2Uploader(ctx, r2)
		if err != nil {
			logger.WithError(err).Fatal("failed to initialize Cloudflare R2 uploader")
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Warn("R2 not configured, scorecard uploads disabled")
	}

	hub := realtime.NewHub(logger)
	go hub.Run(ctx)

	playerRepo := repositories.NewPostgresPlayerRepository(dbConn)
	courseRepo := repositories.NewPostgresCourseRepository(dbConn)
	roundRepo := repositories.NewPostgresRoundRepository(dbConn)
	attestationRepo := repositories.NewPostgresAttestationRepository(dbConn)

	notifier := services.NewNotifier(cfg.SendGrid, cfg.Twilio, cfg.PublicURL, logger)
	authService := services.NewAuthService(playerRepo, logger)
	courseService := services.NewCourseService(dbConn, courseRepo, logger)
	handicapService := services.NewHandicapService(dbConn, playerRepo, roundRepo, courseRepo, cfg.Engine, logger)
	roundService := services.NewRoundService(
		dbConn,
		roundRepo,
		courseRepo,
		playerRepo,
		attestationRepo,
		handicapService,
		uploader,
		hub,
		cfg.Engine,
		logger,
	)
	attestationService := services.NewAttestationService(
		dbConn,
		attestationRepo,
		roundRepo,
		courseRepo,
		playerRepo,
		handicapService,
		notifier,
		hub,
		cfg.Engine,
		logger,
	)

	scheduler, err := services.NewScheduler(handicapService, attestationService, services.SchedulerConfig{
		HandicapRefreshSchedule: cfg.HandicapRefreshSchedule,
		ReminderSchedule:        cfg.ReminderSchedule,
		ReminderAfter:           cfg.ReminderAfter,
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to configure scheduler")
	}
	scheduler.Start()

	router := chi.NewRouter()
	routes.SetupRoutes(router, routes.Handlers{
		Auth:        handlers.NewAuthHandler(authService, cfg.JWTSecretKey),
		Course:      handlers.NewCourseHandler(courseService),
		Round:       handlers.NewRoundHandler(roundService),
		Attestation: handlers.NewAttestationHandler(attestationService),
		Player:      handlers.NewPlayerHandler(handicapService, roundService),
		WebSocket:   handlers.NewWebSocketHandler(hub, cfg.CORSAllowedOrigins),
	}, routes.Options{
		JWTSecret:      cfg.JWTSecretKey,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		RequestTimeout: 30 * time.Second,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.WithField("address", server.Addr).Info("starting server")
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("server error")
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
		if closeErr := server.Close(); closeErr != nil {
			logger.WithError(closeErr).Error("failed to force close server")
		}
	}
	scheduler.Stop(shutdownCtx)
	stop()
	logger.Info("application exited")
}
