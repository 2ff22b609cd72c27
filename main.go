package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskboard/config"
	"taskboard/database"
	authapi "taskboard/internal/api/auth"
	routes "taskboard/internal/app/http"
	"taskboard/internal/auth"
	"taskboard/internal/infra/stripe"
	"taskboard/internal/observability"
	"taskboard/internal/payments"
	"taskboard/internal/repository"
	"taskboard/internal/scheduler"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := observability.NewLogger(observability.LogConfig{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.StripeWebhookSecret == "" {
		logger.Warn("STRIPE_WEBHOOK_SECRET not set: webhook signatures are not verified")
	}

	db, err := database.Open(cfg.DBURL)
	if err != nil {
		logger.Error("database init failed", "error", err)
		os.Exit(1)
	}
	repos := repository.NewRepositories(db)

	catalog, err := cfg.Catalog()
	if err != nil {
		logger.Error("plan catalog invalid", "error", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	svc := payments.NewService(payments.Options{
		Catalog: catalog,
		Ledger:  repos.Transactions,
		Users:   repos.Users,
		Provider: stripe.NewProvider(stripe.Config{
			SecretKey:     cfg.StripeSecretKey,
			WebhookSecret: cfg.StripeWebhookSecret,
			Timeout:       cfg.StripeTimeout,
		}),
		Logger:          logger,
		Metrics:         metrics,
		GrantPeriod:     cfg.SubscriptionPeriod,
		ProviderTimeout: cfg.StripeTimeout,
	})

	var google *authapi.GoogleConfig
	if cfg.GoogleEnabled() {
		google = &authapi.GoogleConfig{
			ClientID:         cfg.GoogleClientID,
			ClientSecret:     cfg.GoogleClientSecret,
			RedirectURL:      cfg.GoogleRedirectURL,
			FrontendRedirect: cfg.GoogleFrontendRedirect,
			SecureCookie:     cfg.IsProduction(),
		}
	}

	r := gin.Default()

	// CORS before routes
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: !containsWildcard(cfg.CORSOrigins),
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, routes.Deps{
		Repos:              repos,
		Issuer:             auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL),
		Payments:           svc,
		Logger:             logger,
		Gatherer:           reg,
		Google:             google,
		SlackSigningSecret: cfg.SlackSigningSecret,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched := scheduler.New(scheduler.Config{
		Schedule: cfg.ExpirySweepSchedule,
		Users:    repos.Users,
		Metrics:  metrics,
		Logger:   logger,
	})
	if err := sched.Start(ctx); err != nil {
		logger.Error("scheduler init failed", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("http server listening", "addr", srv.Addr, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	sched.Stop()

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
