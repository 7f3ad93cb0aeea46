package main

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"bgmsync/internal/config"
	"bgmsync/internal/history"
	"bgmsync/internal/logging"
	"bgmsync/internal/runlock"
	"bgmsync/internal/services"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// runFunc performs the body of a recorded run and reports what to store.
type runFunc func(ctx context.Context, store *history.Store, logger *slog.Logger) (history.Outcome, error)

// recordRun holds the run lock for the duration of fn and records the run in
// history. The run id is attached to the context for logging.
func (c *commandContext) recordRun(ctx context.Context, kind history.Kind, fn runFunc) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}

	lock, err := runlock.Acquire(cfg.LockPath())
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("failed to release run lock", logging.Error(err))
		}
	}()

	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.Begin(ctx, kind)
	if err != nil {
		return err
	}
	runCtx := services.WithRunID(ctx, id)
	runLogger := logging.WithContext(runCtx, logger)
	runLogger.Info("run started", logging.String("kind", string(kind)))

	outcome, runErr := fn(runCtx, store, runLogger)
	outcome.Status = services.RunStatus(runErr)
	if runErr != nil {
		outcome.Message = runErr.Error()
		runLogger.Error("run failed", logging.Error(runErr))
	}
	if err := store.Finish(context.WithoutCancel(ctx), id, outcome); err != nil {
		runLogger.Warn("failed to record run", logging.Error(err))
	}
	return runErr
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
