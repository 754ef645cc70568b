package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/recipeatlas/server/internal/infrastructure/config"
	"github.com/recipeatlas/server/internal/infrastructure/container"
	"github.com/recipeatlas/server/pkg/logger"
)

type commandContext struct {
	configFlag *string
	envFlag    *string

	configOnce sync.Once
	config     *config.Config
	logger     *zap.Logger
	configErr  error
}

func newCommandContext(configFlag, envFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		envFlag:    envFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		if c.envFlag != nil {
			if env := strings.TrimSpace(*c.envFlag); env != "" {
				if err := godotenv.Load(env); err != nil && !errors.Is(err, fs.ErrNotExist) {
					c.configErr = fmt.Errorf("load environment file %s: %w", env, err)
					return
				}
			}
		}

		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}

		log, err := logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      "console",
			Development: cfg.App.Debug,
			OutputPaths: []string{"stderr"},
		})
		if err != nil {
			c.configErr = err
			return
		}

		c.config = cfg
		c.logger = log
	})
	return c.config, c.configErr
}

// withDatabase opens the configured database for the duration of fn
func (c *commandContext) withDatabase(ctx context.Context, fn func(*gorm.DB) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	db, closeDB, err := container.Connect(ctx, cfg, c.logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer func() {
		if cerr := closeDB(); cerr != nil {
			c.logger.Warn("Failed to close database", zap.Error(cerr))
		}
	}()
	return fn(db)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
