package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mwestcott/stackpad/internal"
	"github.com/mwestcott/stackpad/internal/authcore"
	"github.com/mwestcott/stackpad/internal/billing"
	"github.com/mwestcott/stackpad/internal/domain"
	"github.com/mwestcott/stackpad/internal/email"
	"github.com/mwestcott/stackpad/internal/handler"
	"github.com/mwestcott/stackpad/internal/metrics"
	"github.com/mwestcott/stackpad/internal/middleware"
	"github.com/mwestcott/stackpad/internal/repository"
	"github.com/mwestcott/stackpad/internal/service"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database connection
	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Run migrations
	if err := internal.RunMigrations(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database ready")

	// Initialize repository and services
	repo := repository.New(db)
	userService := service.NewUserService(repo, logger)

	billingService := billing.NewStripeService(cfg.StripeSecretKey, cfg.StripeWebhookSecret, domain.DefaultPlans)
	planService := service.NewPlanService(billingService, domain.DefaultPlans, logger)

	mailer, err := email.NewSMTPMailer(email.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
	}, "web/templates/email", logger)
	if err != nil {
		return fmt.Errorf("mailer initialization failed: %w", err)
	}

	isSecure := cfg.Env != "development"

	// Embedded auth engine, reached only through the relay
	engine := authcore.New(userService, mailer, billingService, authcore.Config{
		BaseURL:            cfg.BaseURL,
		ClientOrigin:       cfg.ClientOrigin,
		IsSecure:           isSecure,
		GithubClientID:     cfg.GithubClientID,
		GithubClientSecret: cfg.GithubClientSecret,
		SessionSecret:      cfg.SessionSecret,
		WebhookEnabled:     cfg.StripeWebhookSecret != "",
	}, logger)

	// Initialize middleware
	authMw := middleware.NewAuthMiddleware(userService, logger, isSecure)
	corsMw := middleware.NewCORSMiddleware(cfg.ClientOrigin)
	securityMw := middleware.NewSecurityHeadersMiddleware(isSecure)
	loggingMw := middleware.NewRequestLoggingMiddleware(logger)
	metricsAuthMw := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword)

	authLimiter := middleware.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateLimitWindow, logger)
	authRateMw := middleware.NewRateLimitMiddleware(authLimiter, logger)

	// Initialize handlers
	relay := handler.NewAuthRelay(engine, logger)
	planHandler := handler.NewPlanHandler(planService, logger)
	accountHandler := handler.NewAccountHandler(userService, billingService, cfg.BaseURL, logger)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus metrics (basic auth when configured)
	mux.Handle("GET /metrics", metricsAuthMw.Handler(promhttp.Handler()))

	// Auth relay: the webhook route is exempt from rate limiting so Stripe
	// retries are never throttled.
	if cfg.StripeWebhookSecret != "" {
		mux.HandleFunc("POST "+authcore.WebhookPath, relay.HandleWebhook)
	}
	mux.Handle(authcore.BasePath+"/", authRateMw.Limit(http.HandlerFunc(relay.HandleAuth)))

	// Public plan catalog
	planHandler.RegisterRoutes(mux)

	// Signed-in account surface
	requireUser := middleware.Stack(authMw.WithUser, authMw.RequireUser)
	accountHandler.RegisterRoutes(mux, requireUser)

	// Outer stack: logging and metrics wrap everything, CORS and security
	// headers apply to every response.
	root := middleware.Stack(
		loggingMw.Handler,
		metrics.Middleware,
		securityMw.Handler,
		corsMw.Handler,
	)(mux)

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: root,
	}

	// Expired session and token sweeper
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go sweepExpired(sweepCtx, userService, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
		}
	}()

	<-sigChan
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

// sweepExpired periodically deletes expired sessions and auth tokens.
func sweepExpired(ctx context.Context, users service.UserService, logger *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := users.DeleteExpiredSessions(ctx); err != nil {
				logger.Error("session sweep failed", "error", err)
			}
			if err := users.DeleteExpiredTokens(ctx); err != nil {
				logger.Error("token sweep failed", "error", err)
			}
		}
	}
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
