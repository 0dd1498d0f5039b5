// Package app ties configuration, wiring, and the startup modes
// together.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/dquezada/titula/internal/academic"
	"github.com/dquezada/titula/internal/auth"
	"github.com/dquezada/titula/internal/config"
	"github.com/dquezada/titula/internal/database"
	"github.com/dquezada/titula/internal/defense"
	"github.com/dquezada/titula/internal/handler"
	"github.com/dquezada/titula/internal/logger"
	"github.com/dquezada/titula/internal/metrics"
	"github.com/dquezada/titula/internal/middleware"
	"github.com/dquezada/titula/internal/repository"
	"github.com/dquezada/titula/internal/security"
	"github.com/dquezada/titula/internal/student"
	"github.com/dquezada/titula/internal/user"
	"github.com/dquezada/titula/internal/worker/cleanup"
)

// Init loads the Config from environment variables and sets up JSON
// structured logging on the given writer.
func Init(w io.Writer) (*config.Config, error) {
	// 1. logging first, so config errors are structured too
	logger.SetupDefault(w)

	// 2. environment config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run is the application entry point. args takes os.Args[1:].
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck skips full initialization
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe starts the API server: opens the database, wires every
// dependency, and serves until SIGINT or SIGTERM triggers a graceful
// shutdown.
func runServe(cfg *config.Config) error {
	// 1. database
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. repositories
	userRepo := repository.NewPostgresUserRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	resetRepo := repository.NewPostgresResetTokenRepo(db)
	periodRepo := repository.NewPostgresPeriodRepo(db)
	careerRepo := repository.NewPostgresCareerRepo(db)
	studentRepo := repository.NewPostgresStudentRepo(db)
	defenseRepo := repository.NewPostgresDefenseRepo(db)

	// 3. security services
	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewContentSanitizer()
	photoFetcher := security.NewPhotoFetcher(ssrfGuard, cfg.PhotoFetchTimeout, cfg.PhotoMaxSize)

	// 4. metrics
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 5. domain services
	authService := auth.NewService(userRepo, sessionRepo, resetRepo, auth.ServiceConfig{
		SessionMaxAge: cfg.SessionMaxAge,
		ResetTokenTTL: cfg.ResetTokenTTL,
		BcryptCost:    cfg.BcryptCost,
	})
	userService := user.NewService(userRepo, sessionRepo, photoFetcher, user.ServiceConfig{
		BcryptCost: cfg.BcryptCost,
	})
	academicService := academic.NewService(periodRepo, careerRepo)
	studentService := student.NewService(studentRepo, careerRepo, periodRepo, userRepo, sanitizer)
	defenseService := defense.NewService(defenseRepo, studentRepo, periodRepo, collector)

	// 6. rate limiting from config (req/min -> req/sec)
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	if cfg.RateLimitGeneral > 0 {
		rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
		rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	}
	if cfg.RateLimitLogin > 0 {
		rateLimiterCfg.LoginRate = rate.Limit(float64(cfg.RateLimitLogin) / 60.0)
		rateLimiterCfg.LoginBurst = cfg.RateLimitLogin
	}
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	// 7. router
	router := handler.NewRouter(&handler.RouterDeps{
		IdentityResolver:  authService,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Logger:            slog.Default(),

		AuthService:     authService,
		UserService:     userService,
		AcademicService: academicService,
		StudentService:  studentService,
		DefenseService:  defenseService,

		Metrics:       collector,
		StatusMetrics: collector,
		Gatherer:      registry,
	})

	// 8. HTTP server with graceful shutdown
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker starts the auth hygiene worker: the cleanup job deletes
// expired sessions and reset tokens hourly until SIGINT or SIGTERM.
func runWorker(cfg *config.Config) error {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	sessionRepo := repository.NewPostgresSessionRepo(db)
	cleanupJob := cleanup.NewCleanupJob(sessionRepo, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting")

	// run once at startup, then hourly
	if err := cleanupJob.Run(ctx); err != nil {
		slog.Error("cleanup job failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopped gracefully")
			return nil
		case <-ticker.C:
			if err := cleanupJob.Run(ctx); err != nil {
				slog.Error("cleanup job failed", slog.String("error", err.Error()))
			}
		}
	}
}

// runMigrate applies every pending database migration in order.
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck hits the /health endpoint; used as the Docker
// healthcheck in distroless images.
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL hides credentials in the database URL.
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
