// Package mission is the Mission Control state machine. A learning path
// starts as a draft where steps are picked, becomes active once confirmed,
// and completes when every selected step is done. Functions here mutate
// the path in memory; persistence belongs to the caller.
package mission

import (
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/hermes-backend/internal/domain/curriculum"
	"github.com/yungbote/hermes-backend/internal/platform/apierr"
)

// NewDraft builds a draft path with one selected, pending step per
// syllabus step.
func NewDraft(userID uuid.UUID, syl *curriculum.Syllabus) *curriculum.LearningPath {
	content := syl.Content.Data()
	refs := content.Steps()
	steps := make([]curriculum.PathStep, 0, len(refs))
	for i, ref := range refs {
		steps = append(steps, curriculum.PathStep{
			Key:         ref.Key,
			Title:       ref.Title,
			ModuleTitle: ref.ModuleTitle,
			Order:       i + 1,
			Selected:    true,
			Status:      curriculum.StepPending,
		})
	}
	p := &curriculum.LearningPath{
		UserID:     userID,
		SyllabusID: syl.ID,
		Title:      syl.Topic,
		Mode:       curriculum.PathModeDraft,
	}
	p.SetSteps(steps)
	return p
}

func requireMode(p *curriculum.LearningPath, mode curriculum.PathMode) error {
	if p.Mode == mode {
		return nil
	}
	code := "path_not_" + string(mode)
	return apierr.Conflict(code, "path not in %s mode", mode)
}

func indexOf(steps []curriculum.PathStep, key string) (int, error) {
	for i := range steps {
		if steps[i].Key == key {
			return i, nil
		}
	}
	return -1, apierr.NotFound("step_not_found", "step "+key)
}

// Toggle flips the selection of one step of a draft.
func Toggle(p *curriculum.LearningPath, key string) error {
	if err := requireMode(p, curriculum.PathModeDraft); err != nil {
		return err
	}
	steps := p.StepList()
	i, err := indexOf(steps, key)
	if err != nil {
		return err
	}
	steps[i].Selected = !steps[i].Selected
	p.SetSteps(steps)
	return nil
}

// SetAll selects or deselects every step of a draft.
func SetAll(p *curriculum.LearningPath, selected bool) error {
	if err := requireMode(p, curriculum.PathModeDraft); err != nil {
		return err
	}
	steps := p.StepList()
	for i := range steps {
		steps[i].Selected = selected
	}
	p.SetSteps(steps)
	return nil
}

// Confirm activates a draft. The first selected step not yet completed
// becomes current. A draft whose selected steps are all completed goes
// straight to completed.
func Confirm(p *curriculum.LearningPath, now time.Time) error {
	if err := requireMode(p, curriculum.PathModeDraft); err != nil {
		return err
	}
	steps := p.StepList()
	if Selected(steps) == 0 {
		return apierr.BadRequest("no_steps_selected", "select at least one step")
	}
	current := -1
	for i := range steps {
		if steps[i].Status == curriculum.StepCompleted {
			continue
		}
		steps[i].Status = curriculum.StepPending
		if steps[i].Selected && current < 0 {
			current = i
		}
	}
	p.ConfirmedAt = &now
	p.CompletedAt = nil
	if current < 0 {
		p.Mode = curriculum.PathModeCompleted
		p.CompletedAt = &now
	} else {
		steps[current].Status = curriculum.StepCurrent
		p.Mode = curriculum.PathModeActive
	}
	p.SetSteps(steps)
	return nil
}

// Edit returns an active path to draft. Completed steps keep their
// status; the current step goes back to pending.
func Edit(p *curriculum.LearningPath) error {
	if err := requireMode(p, curriculum.PathModeActive); err != nil {
		return err
	}
	steps := p.StepList()
	for i := range steps {
		if steps[i].Status == curriculum.StepCurrent {
			steps[i].Status = curriculum.StepPending
		}
	}
	p.Mode = curriculum.PathModeDraft
	p.SetSteps(steps)
	return nil
}

// CompleteStep marks a selected step of an active path as done and moves
// the current marker to the next selected pending step. Completing an
// already completed step is a no-op.
func CompleteStep(p *curriculum.LearningPath, key string, now time.Time) error {
	if err := requireMode(p, curriculum.PathModeActive); err != nil {
		return err
	}
	steps := p.StepList()
	i, err := indexOf(steps, key)
	if err != nil {
		return err
	}
	if !steps[i].Selected {
		return apierr.BadRequest("step_not_selected", "step %s is not part of this mission", key)
	}
	if steps[i].Status == curriculum.StepCompleted {
		return nil
	}
	wasCurrent := steps[i].Status == curriculum.StepCurrent
	steps[i].Status = curriculum.StepCompleted
	completedAt := now
	steps[i].CompletedAt = &completedAt

	if wasCurrent {
		if next := nextPending(steps, i); next >= 0 {
			steps[next].Status = curriculum.StepCurrent
		}
	}
	if Remaining(steps) == 0 {
		p.Mode = curriculum.PathModeCompleted
		p.CompletedAt = &completedAt
	}
	p.SetSteps(steps)
	return nil
}

// nextPending finds the first selected pending step after from, wrapping
// to the start.
func nextPending(steps []curriculum.PathStep, from int) int {
	n := len(steps)
	for off := 1; off <= n; off++ {
		j := (from + off) % n
		if steps[j].Selected && steps[j].Status == curriculum.StepPending {
			return j
		}
	}
	return -1
}

// Current returns the current step, if any.
func Current(steps []curriculum.PathStep) (curriculum.PathStep, bool) {
	for _, s := range steps {
		if s.Status == curriculum.StepCurrent {
			return s, true
		}
	}
	return curriculum.PathStep{}, false
}

func Selected(steps []curriculum.PathStep) int {
	n := 0
	for _, s := range steps {
		if s.Selected {
			n++
		}
	}
	return n
}

// Remaining counts selected steps not yet completed.
func Remaining(steps []curriculum.PathStep) int {
	n := 0
	for _, s := range steps {
		if s.Selected && s.Status != curriculum.StepCompleted {
			n++
		}
	}
	return n
}

// Progress is completed selected steps over selected steps, 0 when
// nothing is selected.
func Progress(steps []curriculum.PathStep) float64 {
	sel := Selected(steps)
	if sel == 0 {
		return 0
	}
	return float64(sel-Remaining(steps)) / float64(sel)
}

// SelectedSteps returns the selected steps in order.
func SelectedSteps(steps []curriculum.PathStep) []curriculum.PathStep {
	var out []curriculum.PathStep
	for _, s := range steps {
		if s.Selected {
			out = append(out, s)
		}
	}
	return out
}
