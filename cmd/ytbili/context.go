package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"ytbili/internal/config"
	"ytbili/internal/daemonctl"
	"ytbili/internal/logging"
	"ytbili/internal/queue"
	"ytbili/internal/queueaccess"
)

// commandContext is shared by every subcommand. The config is loaded at most
// once per invocation, after flags are parsed.
type commandContext struct {
	configFlag *string
	load       func() (*config.Config, error)
}

func newCommandContext(configFlag *string) *commandContext {
	c := &commandContext{configFlag: configFlag}
	c.load = sync.OnceValues(c.loadConfig)
	return c
}

func (c *commandContext) loadConfig() (*config.Config, error) {
	path := ""
	if c.configFlag != nil {
		path = strings.TrimSpace(*c.configFlag)
	}
	cfg, _, _, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *commandContext) ensureConfig() (*config.Config, error) { return c.load() }

// configValue is for callers that already passed PersistentPreRunE.
func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.load()
	return cfg
}

func (c *commandContext) client() *daemonctl.Client {
	return daemonctl.NewClient(c.configValue())
}

// withAccess runs fn against the daemon API, or against the queue database
// when the daemon does not answer.
func (c *commandContext) withAccess(ctx context.Context, fn func(queueaccess.Session) error) error {
	cfg, err := c.load()
	if err != nil {
		return err
	}
	session, err := queueaccess.OpenWithFallback(ctx, cfg, daemonctl.NewClient(cfg))
	if err != nil {
		return err
	}
	defer session.Close()
	return fn(session)
}

func (c *commandContext) withStore(_ context.Context, fn func(*queue.Store) error) error {
	cfg, err := c.load()
	if err != nil {
		return err
	}
	store, err := queue.Open(cfg)
	if err != nil {
		return fmt.Errorf("open queue: %w", err)
	}
	defer store.Close()
	return fn(store)
}

// cliLogger logs to stderr so stdout stays parseable. verbose forces debug.
func (c *commandContext) cliLogger(verbose bool) (*slog.Logger, error) {
	opts := logging.Options{Level: "info", Format: "console", OutputPaths: []string{"stderr"}}
	if cfg := c.configValue(); cfg != nil && cfg.Logging.Level != "" {
		opts.Level = cfg.Logging.Level
	}
	if verbose {
		opts.Level = "debug"
	}
	logger, err := logging.New(opts)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}

// shouldSkipConfig reports whether cmd or an ancestor opts out of config loading.
func shouldSkipConfig(cmd *cobra.Command) bool {
	for ; cmd != nil; cmd = cmd.Parent() {
		if cmd.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
