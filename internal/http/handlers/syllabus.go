package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/hermes-backend/internal/http/response"
	"github.com/yungbote/hermes-backend/internal/services"
)

type SyllabusHandler struct {
	syllabi services.SyllabusService
	grammar services.GrammarService
}

func NewSyllabusHandler(syllabi services.SyllabusService, grammar services.GrammarService) *SyllabusHandler {
	return &SyllabusHandler{syllabi: syllabi, grammar: grammar}
}

type createSyllabusRequest struct {
	Topic        string     `json:"topic"`
	DisciplineID *uuid.UUID `json:"discipline_id"`
	Level        string     `json:"level"`
	Force        bool       `json:"force"`
}

// POST /api/syllabi
func (h *SyllabusHandler) Create(c *gin.Context) {
	var req createSyllabusRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err, "invalid_request")
		return
	}
	syl, err := h.syllabi.Generate(c.Request.Context(), services.GenerateSyllabusInput{
		Topic:        req.Topic,
		DisciplineID: req.DisciplineID,
		Level:        req.Level,
		Force:        req.Force,
	})
	if err != nil {
		response.RespondErr(c, err, "generate_syllabus_failed")
		return
	}
	response.RespondCreated(c, gin.H{"syllabus": syl})
}

// GET /api/syllabi?limit=
func (h *SyllabusHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	list, err := h.syllabi.ListForUser(c.Request.Context(), limit)
	if err != nil {
		response.RespondErr(c, err, "list_syllabi_failed")
		return
	}
	response.RespondOK(c, gin.H{"syllabi": list})
}

// GET /api/syllabi/:id
func (h *SyllabusHandler) Get(c *gin.Context) {
	id, err := uuidParam(c, "id", "invalid_syllabus_id")
	if err != nil {
		response.RespondErr(c, err, "invalid_syllabus_id")
		return
	}
	syl, err := h.syllabi.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err, "get_syllabus_failed")
		return
	}
	response.RespondOK(c, gin.H{"syllabus": syl})
}

// POST /api/syllabi/:id/grammar?force=true
func (h *SyllabusHandler) Grammar(c *gin.Context) {
	id, err := uuidParam(c, "id", "invalid_syllabus_id")
	if err != nil {
		response.RespondErr(c, err, "invalid_syllabus_id")
		return
	}
	force, _ := strconv.ParseBool(c.Query("force"))
	g, err := h.grammar.Generate(c.Request.Context(), id, force)
	if err != nil {
		response.RespondErr(c, err, "generate_grammar_failed")
		return
	}
	response.RespondOK(c, gin.H{"grammar": g})
}
