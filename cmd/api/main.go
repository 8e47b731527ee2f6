package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/medibook/medibook/internal/config"
	"github.com/medibook/medibook/internal/domain/appointment"
	v1 "github.com/medibook/medibook/internal/handler/v1"
	"github.com/medibook/medibook/internal/repository/memory"
	"github.com/medibook/medibook/internal/repository/postgres"
	"github.com/medibook/medibook/internal/service"
	"github.com/medibook/medibook/pkg/auth"
	"github.com/medibook/medibook/pkg/database"
	"github.com/medibook/medibook/pkg/logger"
	"github.com/medibook/medibook/pkg/metrics"
	"github.com/medibook/medibook/pkg/tracer"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("building logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := tracer.Init(cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			zlog.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	loc, err := time.LoadLocation(cfg.Scheduling.Timezone)
	if err != nil {
		return err
	}

	collector := metrics.NewCollector("medibook")

	var (
		appointments appointment.Repository
		users        service.UserDirectory
	)

	switch cfg.Scheduling.StorageDriver {
	case "memory":
		zlog.Warn("using in-memory storage; all data is lost on restart")
		store := memory.NewStore()
		appointments = store.Appointments()
		users = store.Directory()
	default:
		db, err := database.Connect(cfg.Database)
		if err != nil {
			return err
		}
		if err := database.Migrate(db, zlog); err != nil {
			return err
		}
		if cfg.App.Environment == "development" {
			if err := database.Seed(db, zlog); err != nil {
				return err
			}
		}
		appointments = postgres.NewAppointmentRepository(db)
		users = postgres.NewUserDirectory(db)

		if sqlDB, err := db.DB(); err == nil {
			go func() {
				ticker := time.NewTicker(15 * time.Second)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						collector.DBConnections.Set(float64(sqlDB.Stats().OpenConnections))
					}
				}
			}()
		}
	}

	validator := service.NewBookingValidator(loc)
	queries := service.NewQueryEngine(appointments, loc, cfg.Scheduling.PageSize)
	scheduler := service.NewSchedulingService(
		appointments, users, validator, queries,
		cfg.Scheduling.StorageTimeout, zlog,
	)

	jwtManager := auth.NewJWTManager(cfg.JWT)
	router := v1.NewRouter(cfg, scheduler, jwtManager, collector, zlog)

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.App.Environment),
			zap.String("timezone", cfg.Scheduling.Timezone),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zlog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
