package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/phleb-loss-tracker/internal/config"
	"github.com/phleb-loss-tracker/internal/domain"
	"github.com/phleb-loss-tracker/internal/logging"
	"github.com/phleb-loss-tracker/internal/service"
	"github.com/phleb-loss-tracker/internal/session"
	"github.com/phleb-loss-tracker/internal/storage"
)

// app holds the wired components shared by the subcommands.
type app struct {
	configManager *config.Manager
	logger        *logrus.Logger
	store         storage.Store
	calc          domain.Calculator
	session       *session.Session
	paths         config.DataPaths
}

// loadConfig reads and validates the configuration and builds the logger.
func loadConfig() (*config.Manager, *logrus.Logger, error) {
	configManager, err := config.NewManager(configFile)
	if err != nil {
		return nil, nil, err
	}
	if err := configManager.Validate(); err != nil {
		return nil, nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	cfg := configManager.GetConfig()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if used := configManager.ConfigFileUsed(); used != "" {
		logger.WithField("config_file", used).Debug("Configuration loaded")
	}
	return configManager, logger, nil
}

// openApp opens storage and loads the live session.
func openApp(ctx context.Context) (*app, error) {
	configManager, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}
	cfg := configManager.GetConfig()

	paths := config.NewDataPaths(cfg.Storage.DataDir)
	if cfg.Storage.Driver == storage.DriverSQLite {
		if err := paths.EnsureDataDir(); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	store, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	calc := service.NewCalculator(logger)
	sess, err := session.New(ctx,
		storage.NewConfigRepository(store, logger),
		storage.NewStateRepository(store, logger),
		calc,
		logger,
	)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	return &app{
		configManager: configManager,
		logger:        logger,
		store:         store,
		calc:          calc,
		session:       sess,
		paths:         paths,
	}, nil
}

func (a *app) evaluator() *session.Evaluator {
	return session.NewEvaluator(a.calc, a.logger)
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.WithError(err).Warn("Failed to close storage")
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(logger *logrus.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigChan:
			logger.Info("Shutdown signal received, gracefully shutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}
