package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/hermes-backend/internal/http/response"
	"github.com/yungbote/hermes-backend/internal/services"
)

// GenerationHandler serves the stateless generation endpoints: pillars,
// resources and notes. Results come from the generation cache when present.
type GenerationHandler struct {
	pillars   services.PillarService
	resources services.ResourceService
	notes     services.NotesService
}

func NewGenerationHandler(pillars services.PillarService, resources services.ResourceService, notes services.NotesService) *GenerationHandler {
	return &GenerationHandler{pillars: pillars, resources: resources, notes: notes}
}

type pillarsRequest struct {
	Titles []string `json:"titles"`
	Force  bool     `json:"force"`
}

// POST /api/pillars
func (h *GenerationHandler) Pillars(c *gin.Context) {
	var req pillarsRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err, "invalid_request")
		return
	}
	out, err := h.pillars.Infer(c.Request.Context(), req.Titles, req.Force)
	if err != nil {
		response.RespondErr(c, err, "infer_pillars_failed")
		return
	}
	response.RespondOK(c, gin.H{"pillars": out})
}

type resourcesRequest struct {
	Topic     string `json:"topic"`
	StepTitle string `json:"step_title"`
	Force     bool   `json:"force"`
}

// POST /api/resources
func (h *GenerationHandler) Resources(c *gin.Context) {
	var req resourcesRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err, "invalid_request")
		return
	}
	set, err := h.resources.Find(c.Request.Context(), services.FindResourcesInput{
		Topic:     req.Topic,
		StepTitle: req.StepTitle,
		Force:     req.Force,
	})
	if err != nil {
		response.RespondErr(c, err, "find_resources_failed")
		return
	}
	response.RespondOK(c, gin.H{"resources": set})
}

type notesRequest struct {
	Topic           string `json:"topic"`
	StepTitle       string `json:"step_title"`
	StepDescription string `json:"step_description"`
	Force           bool   `json:"force"`
}

// POST /api/notes
func (h *GenerationHandler) Notes(c *gin.Context) {
	var req notesRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err, "invalid_request")
		return
	}
	notes, err := h.notes.Generate(c.Request.Context(), services.GenerateNotesInput{
		Topic:           req.Topic,
		StepTitle:       req.StepTitle,
		StepDescription: req.StepDescription,
		Force:           req.Force,
	})
	if err != nil {
		response.RespondErr(c, err, "generate_notes_failed")
		return
	}
	response.RespondOK(c, gin.H{"notes": notes})
}
