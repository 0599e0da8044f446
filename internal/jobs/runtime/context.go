package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/hermes-backend/internal/data/repos"
	"github.com/yungbote/hermes-backend/internal/domain/jobs"
	"github.com/yungbote/hermes-backend/internal/platform/ctxutil"
	"github.com/yungbote/hermes-backend/internal/platform/dbctx"
	"github.com/yungbote/hermes-backend/internal/platform/logger"
)

/*
Context is the handle a handler gets for one claimed job_run.
	- Ctx carries cancellation, the owner's identity and the enqueuing request's trace ids
	- Job is the in-memory row; it is kept in sync with every write made here
	- Progress/Fail/Succeed are the only lifecycle writes handlers should make
Writes are guarded so a job canceled by its owner is never overwritten.
*/
type Context struct {
	Ctx         context.Context
	Job         *jobs.JobRun
	Repo        repos.JobRunRepo
	Log         *logger.Logger
	MaxAttempts int
	payload     map[string]any
}

var unlessCanceled = []string{jobs.StatusCanceled}

func NewContext(ctx context.Context, job *jobs.JobRun, repo repos.JobRunRepo, log *logger.Logger, maxAttempts int) *Context {
	c := &Context{
		Ctx:         ctxutil.Default(ctx),
		Job:         job,
		Repo:        repo,
		Log:         log,
		MaxAttempts: maxAttempts,
	}
	_ = c.decodePayload()
	c.applyRequestData()
	return c
}

func (c *Context) decodePayload() error {
	if c.Job == nil || len(c.Job.Payload) == 0 {
		c.payload = map[string]any{}
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(c.Job.Payload, &m); err != nil || m == nil {
		c.payload = map[string]any{}
		return err
	}
	c.payload = m
	return nil
}

func (c *Context) applyRequestData() {
	if c.Job == nil {
		return
	}
	c.Ctx = ctxutil.WithRequestData(c.Ctx, &ctxutil.RequestData{UserID: c.Job.OwnerUserID})
	traceID := c.PayloadString("trace_id")
	reqID := c.PayloadString("request_id")
	if traceID == "" && reqID == "" {
		return
	}
	c.Ctx = ctxutil.WithTraceData(c.Ctx, &ctxutil.TraceData{
		TraceID:   traceID,
		RequestID: reqID,
	})
}

// Payload never returns nil.
func (c *Context) Payload() map[string]any {
	if c.payload == nil {
		c.payload = map[string]any{}
	}
	return c.payload
}

func (c *Context) PayloadString(key string) string {
	v, ok := c.Payload()[key]
	if !ok || v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func (c *Context) PayloadUUID(key string) (uuid.UUID, bool) {
	s := c.PayloadString(key)
	if s == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(s)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

func (c *Context) update(updates map[string]interface{}) bool {
	if c.Repo == nil || c.Job == nil || c.Job.ID == uuid.Nil {
		return true
	}
	// Lifecycle writes must land even when the handler's context was canceled.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Ctx), 5*time.Second)
	defer cancel()
	ok, err := c.Repo.UpdateFieldsUnlessStatus(dbctx.Context{Ctx: ctx}, c.Job.ID, unlessCanceled, updates)
	if err != nil && c.Log != nil {
		c.Log.Warn("job_run update failed", "job_id", c.Job.ID, "error", err)
	}
	return ok && err == nil
}

// Progress records a non-terminal stage and percentage.
func (c *Context) Progress(stage string, pct int, msg string) {
	if c == nil {
		return
	}
	if pct < 0 {
		pct = 0
	}
	if pct > 99 {
		pct = 99
	}
	now := time.Now().UTC()
	if !c.update(map[string]interface{}{
		"stage":        stage,
		"progress":     pct,
		"message":      msg,
		"heartbeat_at": now,
		"updated_at":   now,
	}) {
		return
	}
	if c.Job != nil {
		c.Job.Stage = stage
		c.Job.Progress = pct
		c.Job.Message = msg
		c.Job.HeartbeatAt = &now
		c.Job.UpdatedAt = now
	}
}

/*
Fail marks the run failed and clears its lock. The worker retries failed runs
until attempts reaches MaxAttempts; a Permanent error exhausts the attempts at once.
*/
func (c *Context) Fail(stage string, err error) {
	if c == nil {
		return
	}
	now := time.Now().UTC()
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	updates := map[string]interface{}{
		"status":        jobs.StatusFailed,
		"stage":         stage,
		"message":       "",
		"error":         msg,
		"last_error_at": now,
		"locked_at":     nil,
		"updated_at":    now,
	}
	permanent := IsPermanent(err) && c.MaxAttempts > 0
	if permanent {
		updates["attempts"] = c.MaxAttempts
	}
	if !c.update(updates) {
		return
	}
	if c.Job != nil {
		c.Job.Status = jobs.StatusFailed
		c.Job.Stage = stage
		c.Job.Message = ""
		c.Job.Error = msg
		c.Job.LastErrorAt = &now
		c.Job.LockedAt = nil
		c.Job.UpdatedAt = now
		if permanent {
			c.Job.Attempts = c.MaxAttempts
		}
	}
}

// Succeed marks the run succeeded and stores result as JSON.
func (c *Context) Succeed(finalStage string, result any) {
	if c == nil {
		return
	}
	now := time.Now().UTC()
	res := datatypes.JSON([]byte(`{}`))
	if result != nil {
		if b, err := json.Marshal(result); err == nil {
			res = datatypes.JSON(b)
		}
	}
	if !c.update(map[string]interface{}{
		"status":       jobs.StatusSucceeded,
		"stage":        finalStage,
		"progress":     100,
		"message":      "",
		"error":        "",
		"result":       res,
		"locked_at":    nil,
		"heartbeat_at": now,
		"updated_at":   now,
	}) {
		return
	}
	if c.Job != nil {
		c.Job.Status = jobs.StatusSucceeded
		c.Job.Stage = finalStage
		c.Job.Progress = 100
		c.Job.Message = ""
		c.Job.Error = ""
		c.Job.Result = res
		c.Job.LockedAt = nil
		c.Job.HeartbeatAt = &now
		c.Job.UpdatedAt = now
	}
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}
