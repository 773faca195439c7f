// Package main is the entrypoint for the user management API server.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"userdesk/m/internal/api"
	"userdesk/m/internal/config"
	"userdesk/m/internal/database"
	"userdesk/m/internal/migrations"
	"userdesk/m/internal/seed"
	"userdesk/m/internal/server"
	"userdesk/m/internal/service"
	"userdesk/m/internal/store"
	"userdesk/m/internal/upload"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	if err := run(cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	logger.Info("connected to database", slog.String("driver", cfg.DBDriver))

	if err := migrations.Run(db); err != nil {
		db.Close()
		return err
	}
	if _, err := seed.Users(ctx, db, logger); err != nil {
		db.Close()
		return err
	}

	repo, err := store.NewUserStore(db)
	if err != nil {
		db.Close()
		return err
	}
	if n, err := repo.Count(ctx); err == nil {
		logger.Info("users table ready", slog.Int64("users", n))
	}
	files, err := upload.New(cfg.UploadDir)
	if err != nil {
		db.Close()
		return err
	}

	users := service.NewUserService(repo, files, logger)
	h := api.New(users, repo, files.Handler(), api.Options{
		Logger:             logger,
		AllowedOrigins:     cfg.AllowedOrigins(),
		MaxMultipartMemory: cfg.MaxMultipartMemory,
	})

	srv := server.New(
		h.Router(),
		cfg.HTTPPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)
	srv.OnShutdown("database", func(context.Context) error {
		return db.Close()
	})

	logger.Info("starting server",
		"port", cfg.HTTPPort,
		"env", cfg.AppEnv,
		"upload_dir", files.Root(),
	)
	return srv.Run(ctx)
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     parseLogLevel(cfg.LogLevel),
		AddSource: cfg.IsDevelopment(),
	}

	var h slog.Handler
	if cfg.LogFormat == "text" {
		h = slog.NewTextHandler(os.Stdout, opts)
	} else {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
