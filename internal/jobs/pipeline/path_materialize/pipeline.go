package path_materialize

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/hermes-backend/internal/domain/curriculum"
	jobrt "github.com/yungbote/hermes-backend/internal/jobs/runtime"
	"github.com/yungbote/hermes-backend/internal/modules/mission"
	"github.com/yungbote/hermes-backend/internal/platform/dbctx"
	"github.com/yungbote/hermes-backend/internal/services"
)

type StepResult struct {
	Key       string `json:"key"`
	Title     string `json:"title"`
	Resources int    `json:"resources"`
	Notes     bool   `json:"notes"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
}

type Result struct {
	PathID    string       `json:"path_id"`
	Total     int          `json:"total"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Skipped   bool         `json:"skipped,omitempty"`
	Steps     []StepResult `json:"steps"`
}

func (p *Pipeline) Run(jc *jobrt.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	pathID, ok := jc.PayloadUUID("path_id")
	if !ok || pathID == uuid.Nil {
		jc.Fail("validate", jobrt.Permanent(fmt.Errorf("missing path_id")))
		return nil
	}

	dbc := dbctx.Context{Ctx: jc.Ctx}
	path, err := p.paths.GetByID(dbc, pathID)
	if err != nil {
		jc.Fail("load", err)
		return nil
	}
	if path == nil || path.UserID != jc.Job.OwnerUserID {
		jc.Fail("load", jobrt.Permanent(fmt.Errorf("path %s not found", pathID)))
		return nil
	}
	res := Result{PathID: pathID.String(), Steps: []StepResult{}}
	if path.Mode == curriculum.PathModeDraft {
		// Edited back to draft before the job ran; the next Confirm enqueues again.
		res.Skipped = true
		jc.Succeed("skipped", res)
		return nil
	}

	syl, err := p.syllabi.GetByID(dbc, path.SyllabusID)
	if err != nil {
		jc.Fail("load", err)
		return nil
	}
	if syl == nil {
		jc.Fail("load", jobrt.Permanent(fmt.Errorf("syllabus %s not found", path.SyllabusID)))
		return nil
	}
	content := syl.Content.Data()

	steps := mission.SelectedSteps(path.StepList())
	res.Total = len(steps)
	calls := 0
	for i, step := range steps {
		if err := jc.Ctx.Err(); err != nil {
			jc.Fail("canceled", err)
			return nil
		}
		jc.Progress("materialize", percent(i, len(steps)), fmt.Sprintf("Preparing %q (%d/%d)", step.Title, i+1, len(steps)))

		sr := StepResult{Key: step.Key, Title: step.Title}
		var description string
		if ref, ok := content.FindStep(step.Key); ok {
			description = ref.Description
		}

		if err := p.pause(jc.Ctx, &calls); err != nil {
			jc.Fail("canceled", err)
			return nil
		}
		set, rErr := p.resources.Find(jc.Ctx, services.FindResourcesInput{Topic: syl.Topic, StepTitle: step.Title})
		if rErr == nil && set != nil {
			sr.Resources = len(set.Resources)
		}

		if err := p.pause(jc.Ctx, &calls); err != nil {
			jc.Fail("canceled", err)
			return nil
		}
		notes, nErr := p.notes.Generate(jc.Ctx, services.GenerateNotesInput{
			Topic:           syl.Topic,
			StepTitle:       step.Title,
			StepDescription: description,
		})
		sr.Notes = nErr == nil && notes != nil

		switch {
		case rErr != nil && nErr != nil:
			sr.Error = fmt.Sprintf("resources: %v; notes: %v", rErr, nErr)
		case rErr != nil:
			sr.Error = "resources: " + rErr.Error()
		case nErr != nil:
			sr.Error = "notes: " + nErr.Error()
		default:
			sr.OK = true
		}
		if sr.OK {
			res.Succeeded++
		} else {
			res.Failed++
			p.log.Warn("Step materialization failed", "job_id", jc.Job.ID, "path_id", pathID, "step", step.Key, "error", sr.Error)
		}
		res.Steps = append(res.Steps, sr)
	}

	jc.Succeed("done", res)
	return nil
}

// pause sleeps the configured delay before every provider call but the first.
func (p *Pipeline) pause(ctx context.Context, calls *int) error {
	n := *calls
	*calls = n + 1
	if n == 0 || p.delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(p.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func percent(done, total int) int {
	if total <= 0 {
		return 0
	}
	return done * 100 / total
}
