// internal/api/handler/api/jobs.go
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/newthinker/crossover/internal/api/job"
	"github.com/newthinker/crossover/internal/api/response"
	"github.com/newthinker/crossover/internal/core"
	"go.uber.org/zap"
)

// DefaultJobTimeout bounds a single background job.
const DefaultJobTimeout = 10 * time.Minute

// Job kinds accepted by POST /api/jobs/{kind}.
const (
	KindBacktest   = "backtest"
	KindOptimize   = "optimize"
	KindMonteCarlo = "montecarlo"
)

// JobsHandler runs backtests, searches and simulations in the background.
type JobsHandler struct {
	svc     Service
	store   *job.Store
	timeout time.Duration
	logger  *zap.Logger
}

// NewJobsHandler creates a new jobs handler. timeout <= 0 uses
// DefaultJobTimeout.
func NewJobsHandler(svc Service, store *job.Store, timeout time.Duration, logger *zap.Logger) *JobsHandler {
	if timeout <= 0 {
		timeout = DefaultJobTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobsHandler{svc: svc, store: store, timeout: timeout, logger: logger}
}

// Create validates the body for the requested kind and starts the job.
func (h *JobsHandler) Create(w http.ResponseWriter, r *http.Request) {
	kind := r.PathValue("kind")

	var run func(ctx context.Context) (any, error)
	switch kind {
	case KindBacktest:
		req := h.svc.NewBacktestRequest()
		if err := decodeJSON(w, r, &req); err != nil {
			response.Fail(w, err)
			return
		}
		run = func(ctx context.Context) (any, error) { return h.svc.Backtest(ctx, req) }
	case KindOptimize:
		req := h.svc.NewOptimizeRequest()
		if err := decodeJSON(w, r, &req); err != nil {
			response.Fail(w, err)
			return
		}
		run = func(ctx context.Context) (any, error) { return h.svc.Optimize(ctx, req) }
	case KindMonteCarlo:
		req := h.svc.NewMonteCarloRequest()
		if err := decodeJSON(w, r, &req); err != nil {
			response.Fail(w, err)
			return
		}
		run = func(ctx context.Context) (any, error) { return h.svc.MonteCarlo(ctx, req) }
	default:
		response.Fail(w, core.Errorf(core.ErrInvalidParameters, "unknown job kind %q", kind))
		return
	}

	j, err := h.store.Create(kind)
	if err != nil {
		response.Fail(w, err)
		return
	}
	go h.execute(j.ID, kind, run)

	response.JSON(w, http.StatusAccepted, map[string]any{
		"job_id": j.ID,
		"status": j.Status,
	})
}

// execute runs the job and records its outcome.
func (h *JobsHandler) execute(jobID, kind string, run func(ctx context.Context) (any, error)) {
	h.update(jobID, func(j *job.Job) {
		j.Status = job.StatusRunning
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	start := time.Now()
	result, err := run(ctx)
	if err != nil {
		h.logger.Warn("job failed",
			zap.String("job_id", jobID),
			zap.String("kind", kind),
			zap.Error(err),
		)
		h.update(jobID, func(j *job.Job) {
			j.Status = job.StatusFailed
			j.Error = asCoreError(err)
		})
		return
	}

	h.logger.Info("job complete",
		zap.String("job_id", jobID),
		zap.String("kind", kind),
		zap.Duration("elapsed", time.Since(start)),
	)
	h.update(jobID, func(j *job.Job) {
		j.Status = job.StatusComplete
		j.Progress = 100
		j.Result = result
	})
}

// update logs instead of dropping a failed store write, e.g. a job pruned
// while it ran.
func (h *JobsHandler) update(jobID string, fn func(*job.Job)) {
	if err := h.store.Update(jobID, fn); err != nil {
		h.logger.Warn("job update failed", zap.String("job_id", jobID), zap.Error(err))
	}
}

// GetStatus returns the status of a job and, once finished, its result or
// error.
func (h *JobsHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	j, err := h.store.Get(r.PathValue("id"))
	if err != nil {
		response.Fail(w, err)
		return
	}

	resp := map[string]any{
		"job_id":   j.ID,
		"type":     j.Type,
		"status":   j.Status,
		"progress": j.Progress,
	}
	if j.Status == job.StatusComplete {
		resp["result"] = j.Result
	}
	if j.Status == job.StatusFailed && j.Error != nil {
		resp["error"] = response.Detail(j.Error)
	}

	response.JSON(w, http.StatusOK, resp)
}

// List returns every live job, oldest first, without results.
func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	jobs := h.store.List()
	out := make([]map[string]any, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, map[string]any{
			"job_id":     j.ID,
			"type":       j.Type,
			"status":     j.Status,
			"created_at": j.CreatedAt,
		})
	}
	response.JSON(w, http.StatusOK, map[string]any{"jobs": out, "count": len(out)})
}

// asCoreError keeps coded errors. Anything else is reduced to its generic
// code so internal error text stays out of job status.
func asCoreError(err error) *core.Error {
	var ce *core.Error
	if errors.As(err, &ce) {
		return ce
	}
	d := response.Detail(err)
	return &core.Error{Code: d.Code, Message: d.Message}
}
