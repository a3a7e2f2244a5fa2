package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"jigsawreveal/internal/config"
	"jigsawreveal/internal/history"
	"jigsawreveal/internal/logging"
	"jigsawreveal/internal/render"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.ToLower(strings.TrimSpace(*c.logLevelFlag))
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configExists = exists
	})
	return c.config, c.configErr
}

// loggerFor returns the process logger, falling back to a no-op logger when
// the configured sinks cannot be opened.
func (c *commandContext) loggerFor(cfg *config.Config) *slog.Logger {
	c.loggerOnce.Do(func() {
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			logger = logging.NewNop()
		}
		c.logger = logger
	})
	return c.logger
}

// newDriver builds the render driver; tests replace it to avoid real media
// tools.
var newDriver = func(cfg *config.Config, logger *slog.Logger, store *history.Store) *render.Driver {
	opts := []render.Option{}
	if store != nil {
		opts = append(opts, render.WithHistory(store))
	}
	return render.New(cfg, logger, opts...)
}

// openHistory opens the run history when one is configured.
func openHistory(cfg *config.Config) (*history.Store, error) {
	if strings.TrimSpace(cfg.Paths.HistoryDB) == "" {
		return nil, nil
	}
	return history.Open(cfg.Paths.HistoryDB)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
