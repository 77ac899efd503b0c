package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ytbili/internal/api"
	"ytbili/internal/config"
	"ytbili/internal/logging"
	"ytbili/internal/queue"
	"ytbili/internal/services"
)

// User-facing messages shared with the web front end.
const (
	msgProcessingStarted = "视频处理已开始"
	msgURLRequired       = "YouTube链接不能为空"
	msgBusy              = "已有视频正在处理中，请稍后再试"
	msgDuplicate         = "该视频已在处理队列中"
	serviceName          = "YouTube到B站智能体API"
	maxRequestBody       = 1 << 20
)

type apiServer struct {
	bind     string
	logger   *slog.Logger
	daemon   *Daemon
	queueSvc *api.QueueService
	actions  *api.StoreActions
	handler  http.Handler

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:     strings.TrimSpace(cfg.Paths.APIBind),
		logger:   logging.NewComponentLogger(logger, "api-server"),
		daemon:   d,
		queueSvc: api.NewQueueService(d.store),
		actions:  api.NewStoreActions(d.store),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", srv.handleIndex)
	mux.HandleFunc("GET /api/health", srv.handleHealth)
	mux.HandleFunc("POST /api/process", srv.handleProcess)
	mux.HandleFunc("GET /api/status", srv.handleStatus)
	mux.HandleFunc("GET /api/queue", srv.handleQueue)
	mux.HandleFunc("GET /api/queue/stats", srv.handleQueueStats)
	mux.HandleFunc("GET /api/queue/{id}", srv.handleQueueItem)
	mux.HandleFunc("POST /api/queue/{id}/retry", srv.handleQueueRetry)
	mux.HandleFunc("DELETE /api/queue/{id}", srv.handleQueueRemove)
	if d.metrics != nil {
		mux.Handle("GET /metrics", d.metrics.Handler())
	}

	srv.handler = corsMiddleware(cfg.API.CORSOrigins, authMiddleware(cfg.Paths.APIToken, mux))
	return srv
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil || s.bind == "" {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error",
				logging.Error(err),
				logging.String(logging.FieldEventType, "api_serve_failed"),
				logging.String(logging.FieldImpact, "HTTP submissions and status are unavailable"),
			)
		}
	}()

	go func() {
		<-ctx.Done()
		s.stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil || s.server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

func (s *apiServer) handleIndex(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, api.ServiceInfo{
		Name:    serviceName,
		Version: s.daemon.version,
		Endpoints: map[string]string{
			"/api/process":          "POST - 开始视频处理",
			"/api/status":           "GET - 获取处理状态",
			"/api/health":           "GET - 健康检查",
			"/api/queue":            "GET - 任务队列",
			"/api/queue/{id}":       "GET|DELETE - 单个任务",
			"/api/queue/{id}/retry": "POST - 重试失败任务",
			"/metrics":              "GET - Prometheus指标",
		},
	})
}

func (s *apiServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *apiServer) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req api.ProcessRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, api.ErrorResponse{Error: "invalid JSON body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.YouTubeURL) == "" {
		s.writeError(w, http.StatusBadRequest, api.ErrorResponse{Error: msgURLRequired})
		return
	}

	item, err := s.daemon.Submit(r.Context(), SubmitRequest{
		URL:            req.YouTubeURL,
		Title:          req.VideoTitle,
		Description:    req.VideoDescription,
		Tags:           ParseTags(req.VideoTags),
		SourceLanguage: req.SourceLanguage,
		TargetLanguage: req.TargetLanguage,
	})
	switch {
	case err == nil:
		s.writeJSON(w, http.StatusAccepted, api.ProcessResponse{
			Message: msgProcessingStarted,
			JobID:   item.ID,
			Job:     api.FromQueueItem(item),
		})
	case errors.Is(err, ErrBusy):
		s.writeError(w, http.StatusConflict, api.ErrorResponse{Error: msgBusy, Hint: services.Details(err).Hint})
	case errors.Is(err, queue.ErrDuplicate):
		resp := api.ErrorResponse{Error: msgDuplicate}
		if item != nil {
			resp.JobID = item.ID
		}
		s.writeError(w, http.StatusConflict, resp)
	case errors.Is(err, services.ErrValidation):
		details := services.Details(err)
		s.writeError(w, http.StatusBadRequest, api.ErrorResponse{Error: details.Message, Hint: details.Hint})
	default:
		s.internalError(w, "submit job", err)
	}
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	var id int64
	if raw := strings.TrimSpace(r.URL.Query().Get("job")); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			s.writeError(w, http.StatusBadRequest, api.ErrorResponse{Error: "invalid job id"})
			return
		}
		id = parsed
	}
	jobStatus, job, err := s.queueSvc.JobStatus(r.Context(), id)
	if err != nil {
		s.internalError(w, "read job status", err)
		return
	}
	daemonStatus := daemonStatusPayload(s.daemon.Status(r.Context()))
	s.writeJSON(w, http.StatusOK, api.StatusResponse{
		JobStatus: jobStatus,
		Job:       job,
		Daemon:    &daemonStatus,
	})
}

func (s *apiServer) handleQueue(w http.ResponseWriter, r *http.Request) {
	var statuses []queue.Status
	for _, value := range r.URL.Query()["status"] {
		for _, part := range strings.Split(value, ",") {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			status, ok := queue.ParseStatus(trimmed)
			if !ok {
				s.writeError(w, http.StatusBadRequest, api.ErrorResponse{Error: "unknown status " + strconv.Quote(trimmed)})
				return
			}
			statuses = append(statuses, status)
		}
	}

	items, err := s.queueSvc.List(r.Context(), statuses...)
	if err != nil {
		s.internalError(w, "list queue", err)
		return
	}
	if items == nil {
		items = []api.QueueItem{}
	}
	s.writeJSON(w, http.StatusOK, api.QueueListResponse{Items: items})
}

func (s *apiServer) handleQueueStats(w http.ResponseWriter, r *http.Request) {
	counts, err := s.queueSvc.Stats(r.Context())
	if err != nil {
		s.internalError(w, "queue stats", err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.QueueStatsResponse{Counts: counts})
}

func (s *apiServer) handleQueueItem(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	item, err := s.queueSvc.Describe(r.Context(), id)
	if err != nil {
		s.internalError(w, "describe job", err)
		return
	}
	if item == nil {
		s.writeError(w, http.StatusNotFound, api.ErrorResponse{Error: "queue item not found"})
		return
	}
	s.writeJSON(w, http.StatusOK, api.QueueItemResponse{Item: *item})
}

func (s *apiServer) handleQueueRetry(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	result, err := api.RetryFailedItemsByID(r.Context(), s.actions, []int64{id})
	if err != nil {
		s.internalError(w, "retry job", err)
		return
	}
	switch result.Items[0].Outcome {
	case api.RetryItemNotFound:
		s.writeError(w, http.StatusNotFound, api.ErrorResponse{Error: "queue item not found"})
	case api.RetryItemNotFailed:
		s.writeError(w, http.StatusConflict, api.ErrorResponse{Error: "only failed jobs can be retried", JobID: id})
	default:
		s.logger.Info("job retry requested",
			logging.Int64(logging.FieldItemID, id),
			logging.String("resume_status", result.Items[0].NewStatus),
			logging.String(logging.FieldEventType, "job_retry"),
		)
		s.writeJSON(w, http.StatusOK, result)
	}
}

func (s *apiServer) handleQueueRemove(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	result, err := api.RemoveItemsByID(r.Context(), s.actions, []int64{id})
	if err != nil {
		s.internalError(w, "remove job", err)
		return
	}
	switch result.Items[0].Outcome {
	case api.RemoveItemNotFound:
		s.writeError(w, http.StatusNotFound, api.ErrorResponse{Error: "queue item not found"})
	case api.RemoveItemBusy:
		s.writeError(w, http.StatusConflict, api.ErrorResponse{Error: "job is being processed", JobID: id})
	default:
		s.logger.Info("job removed",
			logging.Int64(logging.FieldItemID, id),
			logging.String(logging.FieldEventType, "job_removed"),
		)
		s.writeJSON(w, http.StatusOK, result)
	}
}

func (s *apiServer) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		s.writeError(w, http.StatusBadRequest, api.ErrorResponse{Error: "invalid queue item id"})
		return 0, false
	}
	return id, true
}

func daemonStatusPayload(status Status) api.DaemonStatus {
	return api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		Version:      status.Version,
		QueueDBPath:  status.QueueDBPath,
		LockFilePath: status.LockFilePath,
		LogPath:      status.LogPath,
		Workflow:     api.FromStatusSummary(status.Workflow),
		Dependencies: api.FromDependencyStatuses(status.Dependencies),
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, resp api.ErrorResponse) {
	s.writeJSON(w, status, resp)
}

func (s *apiServer) internalError(w http.ResponseWriter, operation string, err error) {
	s.logger.Error("api request failed",
		logging.String(logging.FieldErrorOperation, operation),
		logging.Error(err),
		logging.String(logging.FieldEventType, "api_request_failed"),
	)
	s.writeError(w, http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
}
