package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/thomas7124/aidentalbackend/internal/api/router"
	"github.com/thomas7124/aidentalbackend/internal/appointment"
	"github.com/thomas7124/aidentalbackend/internal/calcom"
	appconfig "github.com/thomas7124/aidentalbackend/internal/config"
	"github.com/thomas7124/aidentalbackend/internal/http/handlers"
	"github.com/thomas7124/aidentalbackend/internal/observability/metrics"
	"github.com/thomas7124/aidentalbackend/pkg/logging"
)

func main() {
	// Load .env in development; environment variables win in production.
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting appointment booking API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"dedup_backend", cfg.DedupBackend,
		"dry_run", cfg.CalDryRun,
	)

	if cfg.CalAPIKey == "" && !cfg.CalDryRun {
		logger.Error("CAL_API_KEY is required unless CAL_DRY_RUN is set")
		os.Exit(1)
	}

	sweeperCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()

	var guard appointment.Guard
	switch cfg.DedupBackend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer client.Close()
		guard = appointment.NewRedisGuard(client, cfg.DedupTTL, logger)
	default:
		memGuard := appointment.NewMemoryGuard(cfg.DedupTTL, logger)
		go memGuard.Run(sweeperCtx)
		guard = memGuard
	}

	gateway := calcom.NewClient(
		cfg.CalAPIKey,
		cfg.CalEventTypeID,
		cfg.BookingTimezone,
		logger,
		calcom.WithBaseURL(cfg.CalBaseURL),
		calcom.WithDryRun(cfg.CalDryRun),
	)

	bookingMetrics := metrics.NewBookingMetrics(nil)

	appointmentHandler := handlers.NewAppointmentHandler(handlers.AppointmentHandlerConfig{
		Validator: appointment.NewValidator(cfg.BookingUTCOffset),
		Guard:     guard,
		Gateway:   gateway,
		Metrics:   bookingMetrics,
		Logger:    logger,
	})

	r := router.New(&router.Config{
		Logger:             logger,
		AppointmentHandler: appointmentHandler,
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// In-flight bookings get the write timeout to finish; the dedup sweeper
	// stops with them.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
