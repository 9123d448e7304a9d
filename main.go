package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/giygas/rxu-api/config"
	"github.com/giygas/rxu-api/logging"
	"github.com/joho/godotenv"
)

func main() {
	// Read the .env of the working directory, then of the executable directory
	if err := godotenv.Load(); err != nil {
		if ex, err := os.Executable(); err == nil {
			exPath := filepath.Dir(ex)
			if err := godotenv.Load(filepath.Join(exPath, ".env")); err == nil {
				if err := os.Chdir(exPath); err != nil {
					fmt.Fprintf(os.Stderr, "Failed to change directory: %v\n", err)
					os.Exit(1)
				}
			}
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logging.InitLoggerWithOptions(logging.Options{
		Dir:            cfg.LogDir,
		Env:            cfg.Env,
		Level:          cfg.LogLevel,
		RetentionWeeks: cfg.LogRetentionWeeks,
		MaxFileSize:    cfg.MaxLogFileSize,
	})

	if err := run(cfg); err != nil {
		logging.Error("Server stopped with an error", "error", err)
		logging.Close()
		os.Exit(1)
	}
	logging.Close()
}

func run(cfg *config.Config) error {
	app, err := newApplication(cfg)
	if err != nil {
		return err
	}

	// The catalog must be loaded before the first request
	if err := app.scheduler.Start(); err != nil {
		app.close()
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		app.scheduler.Stop()
		app.close()
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case sig := <-quit:
		logging.Info("Received signal", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return app.shutdown(ctx)
}
