package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/careflow/hospital-api/internal/config"
	"github.com/careflow/hospital-api/internal/email"
	healthHandler "github.com/careflow/hospital-api/internal/handler/health"
	patientHandler "github.com/careflow/hospital-api/internal/handler/patient"
	queueHandler "github.com/careflow/hospital-api/internal/handler/queue"
	rosterHandler "github.com/careflow/hospital-api/internal/handler/roster"
	"github.com/careflow/hospital-api/internal/middleware"
	"github.com/careflow/hospital-api/internal/repository/postgres"
	"github.com/careflow/hospital-api/internal/router"
	assignmentService "github.com/careflow/hospital-api/internal/service/assignment"
	notificationService "github.com/careflow/hospital-api/internal/service/notification"
	patientService "github.com/careflow/hospital-api/internal/service/patient"
	queueService "github.com/careflow/hospital-api/internal/service/queue"
	rosterService "github.com/careflow/hospital-api/internal/service/roster"
	"github.com/careflow/hospital-api/pkg/logger"
	redisBroker "github.com/careflow/hospital-api/pkg/messaging/redis"
	"github.com/careflow/hospital-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redisBroker.NewRedisBroker(redisBroker.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, &log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	registry := prometheus.NewRegistry()
	appMetrics := metrics.NewMetricsWithRegistry("careflow", "api", registry)

	queueRepo := postgres.NewQueueRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	clinicianRepo := postgres.NewClinicianRepository(db)

	emailSvc := email.NewService(cfg.SMTP)
	notifier := notificationService.NewService(broker, emailSvc, cfg.Alerts.EmergencyEmail, appMetrics, appLogger)

	queueSvc := queueService.NewService(queueRepo, notifier, appMetrics, appLogger)
	rosterSvc := rosterService.NewService(clinicianRepo)
	assignSvc := assignmentService.NewService()
	patientSvc := patientService.NewService(patientRepo, rosterSvc, assignSvc, queueSvc)

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	r := router.NewRouter(
		authMiddleware,
		healthHandler.NewHandler(db),
		patientHandler.NewHandler(patientSvc),
		queueHandler.NewHandler(queueSvc),
		rosterHandler.NewHandler(rosterSvc),
		registry,
		router.Config{
			RateLimitRPS:  cfg.HTTP.RateLimitRPS,
			RateBurst:     cfg.HTTP.RateBurst,
			CORSConfig:    middleware.DefaultCORSConfig(),
			MetricsPrefix: "careflow_api",
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
