package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	repository "github.com/chow-chow/rubik/internal/adapters/repository"
	service "github.com/chow-chow/rubik/internal/app"
	"github.com/chow-chow/rubik/internal/config"
	"github.com/chow-chow/rubik/pkg/logger"
)

type commandContext struct {
	configFlag *string
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

// loadConfig layers the command's flags over file and env, then points the
// global logger at stderr.
func (c *commandContext) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var path string
	if c.configFlag != nil {
		path = strings.TrimSpace(*c.configFlag)
	}
	cfg, err := config.LoadWithFlags(cmd.Context(), path, cmd.Flags())
	if err != nil {
		return nil, err
	}

	if err := logger.InitWithWriter(cmd.ErrOrStderr(), logger.Format(cfg.LogFormat)); err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(cmd.Context(), "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return cfg, nil
}

// withService opens the configured store, runs fn and closes the store.
func (c *commandContext) withService(cmd *cobra.Command, fn func(*service.Service, *config.Config) error) error {
	cfg, err := c.loadConfig(cmd)
	if err != nil {
		return err
	}

	store, err := repository.Open(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}

	svc := service.New(store,
		service.WithLogger(logger.Named("linker")),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithEnrich(cfg.Enrich),
		service.WithLockPath(cfg.LockPath()),
	)
	defer svc.Stop()

	return fn(svc, cfg)
}
