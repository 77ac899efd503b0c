package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"ytbili/internal/config"
	"ytbili/internal/daemon"
	"ytbili/internal/deps"
	"ytbili/internal/logging"
	"ytbili/internal/metrics"
	"ytbili/internal/notifications"
	"ytbili/internal/queue"
	"ytbili/internal/workdir"
	"ytbili/internal/workflow"
)

// Names of the files the daemon keeps in the log directory.
const (
	CurrentLogName = "ytbilid.log"
	PIDFileName    = "ytbilid.pid"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
	Version     string
}

// Run starts the ytbili daemon and blocks until SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("ytbilid-%s.log", runID))
	level := opts.LogLevel
	if strings.TrimSpace(level) == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update %s link: %v\n", CurrentLogName, err)
	}
	logging.PruneRunLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays, logPath)
	dependencies := logDependencySnapshot(logger, cfg)

	pidPath := filepath.Join(cfg.Paths.LogDir, PIDFileName)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		return err
	}
	defer store.Close()

	if reset, err := store.ResetStuckProcessing(signalCtx); err != nil {
		logger.Warn("reset stuck jobs failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "reset_stuck_failed"),
			logging.String(logging.FieldErrorHint, "run ytbili queue reset-stuck"),
			logging.String(logging.FieldImpact, "jobs interrupted by the last shutdown wait for heartbeat reclaim"),
		)
	} else if reset > 0 {
		logger.Info("requeued jobs interrupted by the last shutdown",
			logging.Int64("count", reset),
			logging.String(logging.FieldEventType, "stuck_jobs_reset"),
		)
	}

	pruneWorkDirs(signalCtx, cfg, store, logger)

	notifier := notifications.NewService(cfg)
	mtr := metrics.New(store.Stats)
	workflowManager := workflow.NewManager(cfg, store, logger,
		workflow.WithNotifier(notifier),
		workflow.WithMetrics(mtr),
	)
	stages, cleanup, err := BuildStages(signalCtx, cfg, store, logger)
	if err != nil {
		logger.Error("build pipeline stages",
			logging.Error(err),
			logging.String(logging.FieldEventType, "stage_build_failed"),
			logging.String(logging.FieldErrorHint, "check transcription and translation provider settings"),
		)
		return err
	}
	defer cleanup()
	workflowManager.ConfigureStages(stages)

	d, err := daemon.New(cfg, store, logger, workflowManager,
		daemon.WithNotifier(notifier),
		daemon.WithMetrics(mtr),
		daemon.WithLogPath(logPath),
		daemon.WithVersion(opts.Version),
	)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()
	d.SetDependencies(dependencies)

	if err := d.Start(signalCtx); err != nil {
		logger.Error("daemon start failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_start_failed"),
			logging.String(logging.FieldErrorHint, "check for another ytbilid instance and the api_bind address"),
		)
		return err
	}

	<-signalCtx.Done()
	logger.Info("ytbili daemon shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
	return nil
}

// pruneWorkDirs drops job directories of completed and deleted jobs once
// they are older than workflow.work_dir_retention_days.
func pruneWorkDirs(ctx context.Context, cfg *config.Config, store *queue.Store, logger *slog.Logger) {
	days := cfg.Workflow.WorkDirRetentionDays
	if days <= 0 {
		return
	}
	result, err := workdir.Clean(ctx, cfg.Paths.WorkDir, store, workdir.CleanOptions{
		MaxAge:           time.Duration(days) * 24 * time.Hour,
		IncludeCompleted: true,
	}, logger)
	if err != nil {
		logger.Warn("work dir cleanup failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "workdir_cleanup_failed"),
			logging.String(logging.FieldErrorHint, "run ytbili cleanup --dry-run to inspect paths.work_dir"),
		)
		return
	}
	if len(result.Removed) > 0 {
		logger.Info("pruned job directories",
			logging.Int("count", len(result.Removed)),
			logging.Int64("freed_bytes", result.FreedBytes),
			logging.String(logging.FieldEventType, "workdir_cleanup"),
		)
	}
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, CurrentLogName)
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) []deps.Status {
	statuses := deps.CheckPipeline(cfg)
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.String("transcription_provider", cfg.Transcription.Provider),
		logging.String("translation_provider", cfg.Translation.Provider),
		logging.Bool("openai_key_present", strings.TrimSpace(cfg.OpenAI.APIKey) != ""),
		logging.Bool("bilibili_enabled", cfg.Bilibili.Enabled),
	}
	for _, status := range statuses {
		attrs = append(attrs, logging.Bool(strings.ToLower(strings.ReplaceAll(status.Name, " ", "_"))+"_available", status.Available))
	}
	logger.Info("dependency snapshot", logging.Args(attrs...)...)
	for _, missing := range deps.Missing(statuses) {
		logging.WarnWithContext(logger, "required dependency missing", "dependency_missing",
			logging.String("dependency", missing.Name),
			logging.String("command", missing.Command),
			logging.String(logging.FieldErrorHint, missing.Detail),
			logging.String(logging.FieldImpact, "jobs fail at the stage that needs it"),
		)
	}
	return statuses
}
