package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/hris-timetracking-go/internal/config"
	appHTTP "github.com/cmlabs-hris/hris-timetracking-go/internal/handler/http"
	"github.com/cmlabs-hris/hris-timetracking-go/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-timetracking-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-timetracking-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-timetracking-go/internal/pkg/sse"
	"github.com/cmlabs-hris/hris-timetracking-go/internal/repository/postgresql"
	timetrackingService "github.com/cmlabs-hris/hris-timetracking-go/internal/service/timetracking"
	"github.com/go-chi/httplog/v3"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logger := newLogger(cfg.App)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolConfig{
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		StatementTimeout: cfg.Database.StatementTimeout,
	})
	if err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}
	defer db.Close()

	transactor := postgresql.NewTransactor(db)
	timeEntryRepo := postgresql.NewTimeEntryRepository(db)
	breakEntryRepo := postgresql.NewBreakEntryRepository(db)
	timeStatusRepo := postgresql.NewTimeStatusRepository(db)
	auditRepo := postgresql.NewAuditRepository(db)

	timeTrackingSvc, err := timetrackingService.NewTimeTrackingService(
		cfg.TimeTracking.Engine,
		transactor,
		timeEntryRepo,
		breakEntryRepo,
		timeStatusRepo,
		timetrackingService.WithLogger(logger),
		timetrackingService.WithSweepConcurrency(cfg.TimeTracking.SweepConcurrency),
	)
	if err != nil {
		return fmt.Errorf("error creating time tracking service: %w", err)
	}

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	hub := sse.NewHub()

	scheduler := cron.NewScheduler(logger)
	cron.NewTimeTrackingJobs(timeTrackingSvc, auditRepo, hub, cfg.TimeTracking.AutoClockOutEvery, logger).RegisterJobs(scheduler)
	scheduler.Start()
	defer scheduler.Stop()

	timeTrackingHandler := appHTTP.NewTimeTrackingHandler(timeTrackingSvc, auditRepo, hub, JWTService)
	router := appHTTP.NewRouter(JWTService, timeTrackingHandler, appHTTP.RouterOptions{
		Logger:         logger,
		LogLevel:       parseLevel(cfg.App.LogLevel),
		AllowedOrigins: []string{cfg.App.FrontendURL},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server running", "addr", server.Addr, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	return nil
}

func newLogger(app config.AppConfig) *slog.Logger {
	logFormat := httplog.SchemaECS.Concise(app.Env != "development")
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       parseLevel(app.LogLevel),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "hris-timetracking"),
		slog.String("env", app.Env),
	)
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
