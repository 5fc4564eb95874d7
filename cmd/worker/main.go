package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/careflow/hospital-api/internal/config"
	"github.com/careflow/hospital-api/internal/email"
	"github.com/careflow/hospital-api/internal/repository/postgres"
	notificationService "github.com/careflow/hospital-api/internal/service/notification"
	queueService "github.com/careflow/hospital-api/internal/service/queue"
	"github.com/careflow/hospital-api/internal/worker"
	"github.com/careflow/hospital-api/pkg/logger"
	redisBroker "github.com/careflow/hospital-api/pkg/messaging/redis"
	"github.com/careflow/hospital-api/pkg/metrics"
)

func setupHealthCheck(l *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		if err := http.ListenAndServe(":8081", mux); err != nil {
			l.ZL.Error().Err(err).Msg("Health check server failed")
			os.Exit(1)
		}
	}()
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	appLogger := &logger.Logger{ZL: log.Logger}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		appLogger.ZL.Fatal().Err(err).Msg("Failed to connect to database")
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
		log.Fatal().Err(err).Msg("Failed to create Redis broker")
	}
	defer broker.Close()

	workerMetrics := metrics.NewMetricsWithRegistry("careflow", "worker", prometheus.NewRegistry())

	emailSvc := email.NewService(cfg.SMTP)
	notifier := notificationService.NewService(broker, emailSvc, cfg.Alerts.EmergencyEmail, workerMetrics, appLogger)
	queueSvc := queueService.NewService(postgres.NewQueueRepository(db), notifier, workerMetrics, appLogger)

	sweeper := worker.NewStaleSweeper(queueSvc, cfg.Queue.StaleAfter, cfg.Queue.SweepInterval, appLogger)

	setupHealthCheck(appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		appLogger.ZL.Info().Msg("Shutting down...")
		cancel()
	}()

	sweeper.Start(ctx)
}
