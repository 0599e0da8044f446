package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yungbote/hermes-backend/internal/config"
	"github.com/yungbote/hermes-backend/internal/data/repos"
	"github.com/yungbote/hermes-backend/internal/domain/jobs"
	"github.com/yungbote/hermes-backend/internal/jobs/runtime"
	"github.com/yungbote/hermes-backend/internal/observability"
	"github.com/yungbote/hermes-backend/internal/platform/dbctx"
	"github.com/yungbote/hermes-backend/internal/platform/logger"
)

type Worker struct {
	log      *logger.Logger
	repo     repos.JobRunRepo
	registry *runtime.Registry
	cfg      config.WorkerConfig
	wg       sync.WaitGroup
}

func NewWorker(baseLog *logger.Logger, repo repos.JobRunRepo, registry *runtime.Registry, cfg config.WorkerConfig) *Worker {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 5
	}
	if cfg.StaleRunning <= 0 {
		cfg.StaleRunning = 30 * time.Minute
	}
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = 15 * time.Second
	}
	return &Worker{
		log:      baseLog.With("component", "JobWorker"),
		repo:     repo,
		registry: registry,
		cfg:      cfg,
	}
}

// Start launches the pool. Loops exit when ctx is canceled; Wait blocks until they have.
func (w *Worker) Start(ctx context.Context) {
	w.log.Info("Starting job worker pool", "concurrency", w.cfg.Concurrency, "job_types", w.registry.Types())
	for i := 0; i < w.cfg.Concurrency; i++ {
		workerID := i + 1
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.runLoop(ctx, workerID)
		}()
	}
}

func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) runLoop(ctx context.Context, workerID int) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Worker loop stopped", "worker_id", workerID)
			return
		case <-ticker.C:
			// Drain runnable jobs before waiting for the next tick.
			for ctx.Err() == nil && w.RunOnce(ctx, workerID) {
			}
		}
	}
}

// RunOnce claims and runs at most one job. It reports whether a job was claimed.
func (w *Worker) RunOnce(ctx context.Context, workerID int) bool {
	job, err := w.repo.ClaimNextRunnable(dbctx.Context{Ctx: ctx}, w.cfg.MaxAttempts, w.cfg.RetryDelay, w.cfg.StaleRunning)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Warn("ClaimNextRunnable failed", "worker_id", workerID, "error", err)
		}
		return false
	}
	if job == nil {
		return false
	}

	log := w.log.With("worker_id", workerID, "job_id", job.ID, "job_type", job.JobType, "attempt", job.Attempts)
	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	jc := runtime.NewContext(jobCtx, job, w.repo, log, w.cfg.MaxAttempts)

	h, ok := w.registry.Get(job.JobType)
	if !ok {
		log.Warn("No handler registered for job_type")
		jc.Fail("dispatch", runtime.Permanent(&missingHandlerError{JobType: job.JobType}))
		observability.Current().ObserveJob(job.JobType, jobs.StatusFailed, 0)
		return true
	}

	hbDone := make(chan struct{})
	go func() {
		defer close(hbDone)
		w.heartbeat(jobCtx, cancel, job.ID.String(), jc)
	}()

	start := time.Now()
	w.run(log, h, jc)
	cancel()
	<-hbDone

	status := job.Status
	if status == jobs.StatusRunning {
		// The handler returned without a terminal write; the row was canceled underneath it.
		status = jobs.StatusCanceled
	}
	log.Info("Job finished", "status", status, "duration_ms", time.Since(start).Milliseconds())
	observability.Current().ObserveJob(job.JobType, status, time.Since(start))
	return true
}

func (w *Worker) run(log *logger.Logger, h runtime.Handler, jc *runtime.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Job handler panic", "panic", r)
			jc.Fail("panic", &panicError{Val: r})
		}
	}()
	if runErr := h.Run(jc); runErr != nil {
		// Handlers usually call jc.Fail themselves; this covers the rest.
		if jc.Job.Status == jobs.StatusRunning {
			jc.Fail("run", runErr)
		}
	}
}

// heartbeat keeps the claim fresh and cancels the handler once the row is
// canceled by its owner.
func (w *Worker) heartbeat(ctx context.Context, cancel context.CancelFunc, jobID string, jc *runtime.Context) {
	t := time.NewTicker(w.cfg.Heartbeat)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			dbc := dbctx.Context{Ctx: ctx}
			if err := w.repo.Heartbeat(dbc, jc.Job.ID); err != nil && ctx.Err() == nil {
				w.log.Warn("Heartbeat failed", "job_id", jobID, "error", err)
				continue
			}
			row, err := w.repo.GetByID(dbc, jc.Job.ID)
			if err != nil || row == nil {
				continue
			}
			if row.Status == jobs.StatusCanceled {
				w.log.Info("Job canceled, stopping handler", "job_id", jobID)
				cancel()
				return
			}
		}
	}
}

type missingHandlerError struct{ JobType string }

func (e *missingHandlerError) Error() string { return "no handler registered for job_type=" + e.JobType }

type panicError struct{ Val any }

func (e *panicError) Error() string { return fmt.Sprintf("panic: %v", e.Val) }
