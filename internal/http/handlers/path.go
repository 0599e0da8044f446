package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/hermes-backend/internal/domain/curriculum"
	"github.com/yungbote/hermes-backend/internal/http/response"
	"github.com/yungbote/hermes-backend/internal/modules/mission"
	"github.com/yungbote/hermes-backend/internal/platform/logger"
	"github.com/yungbote/hermes-backend/internal/services"
)

type PathHandler struct {
	log     *logger.Logger
	mission services.MissionService
}

func NewPathHandler(log *logger.Logger, missionSvc services.MissionService) *PathHandler {
	return &PathHandler{
		log:     log.With("handler", "PathHandler"),
		mission: missionSvc,
	}
}

// pathView adds the derived stepper fields to a path.
type pathView struct {
	*curriculum.LearningPath
	Progress    float64              `json:"progress"`
	Selected    int                  `json:"selected"`
	Remaining   int                  `json:"remaining"`
	CurrentStep *curriculum.PathStep `json:"current_step,omitempty"`
}

func viewOf(p *curriculum.LearningPath) pathView {
	steps := p.StepList()
	v := pathView{
		LearningPath: p,
		Progress:     mission.Progress(steps),
		Selected:     mission.Selected(steps),
		Remaining:    mission.Remaining(steps),
	}
	if cur, ok := mission.Current(steps); ok {
		v.CurrentStep = &cur
	}
	return v
}

type createPathRequest struct {
	SyllabusID uuid.UUID `json:"syllabus_id"`
}

// POST /api/paths
func (h *PathHandler) Create(c *gin.Context) {
	var req createPathRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err, "invalid_request")
		return
	}
	p, err := h.mission.CreateDraft(c.Request.Context(), req.SyllabusID)
	if err != nil {
		response.RespondErr(c, err, "create_path_failed")
		return
	}
	response.RespondCreated(c, gin.H{"path": viewOf(p)})
}

// GET /api/paths
func (h *PathHandler) List(c *gin.Context) {
	list, err := h.mission.ListForUser(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err, "list_paths_failed")
		return
	}
	out := make([]pathView, 0, len(list))
	for _, p := range list {
		out = append(out, viewOf(p))
	}
	response.RespondOK(c, gin.H{"paths": out})
}

// GET /api/paths/:id
func (h *PathHandler) Get(c *gin.Context) {
	h.withPath(c, "get_path_failed", h.mission.Get)
}

// POST /api/paths/:id/steps/:key/toggle
func (h *PathHandler) ToggleStep(c *gin.Context) {
	key := c.Param("key")
	h.withPath(c, "toggle_step_failed", func(ctx context.Context, id uuid.UUID) (*curriculum.LearningPath, error) {
		return h.mission.Toggle(ctx, id, key)
	})
}

// POST /api/paths/:id/select-all
func (h *PathHandler) SelectAll(c *gin.Context) {
	h.withPath(c, "select_all_failed", func(ctx context.Context, id uuid.UUID) (*curriculum.LearningPath, error) {
		return h.mission.SetAll(ctx, id, true)
	})
}

// POST /api/paths/:id/deselect-all
func (h *PathHandler) DeselectAll(c *gin.Context) {
	h.withPath(c, "deselect_all_failed", func(ctx context.Context, id uuid.UUID) (*curriculum.LearningPath, error) {
		return h.mission.SetAll(ctx, id, false)
	})
}

// POST /api/paths/:id/confirm
func (h *PathHandler) Confirm(c *gin.Context) {
	h.withPath(c, "confirm_path_failed", h.mission.Confirm)
}

// POST /api/paths/:id/edit
func (h *PathHandler) Edit(c *gin.Context) {
	h.withPath(c, "edit_path_failed", h.mission.Edit)
}

// POST /api/paths/:id/steps/:key/complete
func (h *PathHandler) CompleteStep(c *gin.Context) {
	key := c.Param("key")
	h.withPath(c, "complete_step_failed", func(ctx context.Context, id uuid.UUID) (*curriculum.LearningPath, error) {
		return h.mission.CompleteStep(ctx, id, key)
	})
}

func (h *PathHandler) withPath(c *gin.Context, code string, fn func(ctx context.Context, id uuid.UUID) (*curriculum.LearningPath, error)) {
	id, err := uuidParam(c, "id", "invalid_path_id")
	if err != nil {
		response.RespondErr(c, err, "invalid_path_id")
		return
	}
	p, err := fn(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err, code)
		return
	}
	response.RespondOK(c, gin.H{"path": viewOf(p)})
}
