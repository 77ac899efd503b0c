package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"ytbili/internal/config"
	"ytbili/internal/logging"
	"ytbili/internal/metrics"
	"ytbili/internal/notifications"
	"ytbili/internal/preflight"
	"ytbili/internal/queue"
	"ytbili/internal/stageexec"
)

// Manager coordinates queue processing using registered stage handlers.
type Manager struct {
	cfg          *config.Config
	store        *queue.Store
	logger       *slog.Logger
	pollInterval time.Duration
	notifier     notifications.Service
	metrics      *metrics.Metrics
	observer     *stageexec.Observer

	heartbeat *HeartbeatMonitor
	jobLogs   *JobLogs

	lanes     map[queue.ProcessingLane]*laneState
	laneOrder []queue.ProcessingLane

	mu        sync.RWMutex
	running   bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	lastErr   error
	lastItem  *queue.Item
	preflight []preflight.Result

	// batchStart is set while a run of queued jobs is in flight.
	batchStart time.Time
}

// Option configures optional Manager behavior.
type Option func(*Manager)

// WithNotifier overrides the notifier built from config.
func WithNotifier(notifier notifications.Service) Option {
	return func(m *Manager) {
		m.notifier = notifier
	}
}

// WithMetrics records stage timings and upload outcomes.
func WithMetrics(mtr *metrics.Metrics) Option {
	return func(m *Manager) {
		m.metrics = mtr
	}
}

// NewManager constructs a new workflow manager.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Manager{
		cfg:          cfg,
		store:        store,
		logger:       logging.NewComponentLogger(logger, "workflow-manager"),
		pollInterval: time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		heartbeat: NewHeartbeatMonitor(
			store,
			logger,
			time.Duration(cfg.Workflow.HeartbeatInterval)*time.Second,
			time.Duration(cfg.Workflow.HeartbeatTimeout)*time.Second,
		),
		jobLogs: NewJobLogs(cfg),
		lanes:   make(map[queue.ProcessingLane]*laneState),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.notifier == nil {
		m.notifier = notifications.NewService(cfg)
	}
	if m.pollInterval <= 0 {
		m.pollInterval = 50 * time.Millisecond
	}
	m.observer = &stageexec.Observer{Notifier: m.notifier, Metrics: m.metrics, Logger: m.logger}
	return m
}
