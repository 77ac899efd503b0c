package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"ytbili/internal/config"
	"ytbili/internal/daemon"
	"ytbili/internal/daemonrun"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	var logLevel string
	var development bool

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the ytbili daemon in the foreground",
		Long:  "Run the ytbili daemon in the foreground. This is what ytbilid does; use it under a process supervisor.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				LogLevel:    logLevel,
				Development: development,
				Version:     version,
			})
		},
	}
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override logging.level")
	cmd.Flags().BoolVar(&development, "development", false, "Include source locations in logs")
	return cmd
}

func daemonLockPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.LogDir, daemon.LockFileName)
}

// acquireDaemonLock takes the lock a daemon holds while it runs so a
// foreground job and a daemon never process the same queue.
func acquireDaemonLock(cfg *config.Config) (*flock.Flock, error) {
	lock := flock.New(daemonLockPath(cfg))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", lock.Path(), err)
	}
	if !ok {
		return nil, errors.New("ytbilid is running; submit the video with `ytbili submit` instead")
	}
	return lock, nil
}

func daemonRunning(cfg *config.Config) bool {
	if cfg == nil {
		return false
	}
	lock, err := acquireDaemonLock(cfg)
	if err != nil {
		return true
	}
	_ = lock.Unlock()
	return false
}
