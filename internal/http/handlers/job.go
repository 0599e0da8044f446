package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/hermes-backend/internal/http/response"
	"github.com/yungbote/hermes-backend/internal/services"
)

type JobHandler struct {
	jobs services.JobService
}

func NewJobHandler(jobs services.JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// GET /api/jobs/:id
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID, err := uuidParam(c, "id", "invalid_job_id")
	if err != nil {
		response.RespondErr(c, err, "invalid_job_id")
		return
	}
	job, err := h.jobs.GetByIDForRequestUser(c.Request.Context(), jobID)
	if err != nil {
		response.RespondErr(c, err, "get_job_failed")
		return
	}
	response.RespondOK(c, gin.H{"job": job})
}

// POST /api/jobs/:id/cancel
func (h *JobHandler) CancelJob(c *gin.Context) {
	jobID, err := uuidParam(c, "id", "invalid_job_id")
	if err != nil {
		response.RespondErr(c, err, "invalid_job_id")
		return
	}
	job, err := h.jobs.CancelForRequestUser(c.Request.Context(), jobID)
	if err != nil {
		response.RespondErr(c, err, "cancel_job_failed")
		return
	}
	response.RespondOK(c, gin.H{"job": job})
}
