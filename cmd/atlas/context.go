package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"memoryatlas/internal/assets"
	"memoryatlas/internal/auditlog"
	"memoryatlas/internal/config"
	"memoryatlas/internal/lockfile"
	"memoryatlas/internal/logging"
	"memoryatlas/internal/services"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string
	verbose      *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag, logLevelFlag *string, verbose *bool) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
		verbose:      verbose,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = services.WithHint(
				services.Wrap(services.ErrConfiguration, "config", "load", path, err),
				"run 'atlas init --config-sample' to write a starting config",
			)
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "config", "ensure directories", "", err)
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) logLevel() string {
	if c.verbose != nil && *c.verbose {
		return "debug"
	}
	if c.logLevelFlag != nil {
		return strings.TrimSpace(*c.logLevelFlag)
	}
	return ""
}

func (c *commandContext) getLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, _ := c.ensureConfig()
		logger, err := logging.NewFromConfig(cfg, c.logLevel())
		if err != nil {
			logger, _ = logging.New(logging.Options{Level: c.logLevel(), Format: "console"})
		}
		c.logger = logger
	})
	return c.logger
}

// openStore opens the asset database. Callers close it.
func (c *commandContext) openStore() (*assets.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := assets.Open(cfg.Paths.DBPath)
	if err != nil {
		return nil, services.WithHint(errors.Wrap(err, "open asset database"), "run 'atlas doctor' to inspect the database")
	}
	return store, nil
}

// openTrail opens the JSONL audit trail.
func (c *commandContext) openTrail() (*auditlog.Trail, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	trail, err := auditlog.Open(cfg.Paths.JSONLPath)
	if err != nil {
		return nil, errors.Wrap(err, "open audit trail")
	}
	return trail, nil
}

// pipeline opens the store and trail together for mutating commands. The
// caller closes the store.
func (c *commandContext) pipeline() (*assets.Store, *auditlog.Trail, error) {
	store, err := c.openStore()
	if err != nil {
		return nil, nil, err
	}
	trail, err := c.openTrail()
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return store, trail, nil
}

// withLock runs fn while holding the single-instance lock.
func (c *commandContext) withLock(fn func() error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	lock, err := lockfile.Acquire(cfg.LockPath())
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			c.getLogger().Warn("lock not released", logging.String("path", lock.Path()), logging.Error(err))
		}
	}()
	return fn()
}

func newOrigin(command string) assets.Origin {
	return assets.Origin{Command: command, RunID: uuid.NewString()}
}

func logTrail(logger *slog.Logger, trail *auditlog.Trail, origin assets.Origin, action, assetID string, detail map[string]any) {
	if err := trail.Log(origin, action, assetID, detail); err != nil {
		logger.Warn("audit trail not written", logging.String("action", action), logging.Error(err))
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

// formatError renders err with any operator hints on following lines.
func formatError(err error) string {
	details := services.Details(err)
	if details.Hint == "" {
		return "Error: " + details.Message
	}
	return "Error: " + details.Message + "\nHint: " + details.Hint
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
