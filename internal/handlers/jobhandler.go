package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/studylink/internal/dtos"
	"github.com/justsurfingit/studylink/internal/services"
	"go.uber.org/zap"
)

// JobHandler serves job offers. LLMService may be nil when no Gemini key is
// configured; extraction then answers FEATURE_DISABLED.
type JobHandler struct {
	LLMService *services.LLMService
	JobService *services.JobService
	Companies  *services.CompanyService
	Log        *zap.Logger
}

// NewJobHandler creates the handler with dependencies
func NewJobHandler(llm *services.LLMService, j *services.JobService, companies *services.CompanyService, log *zap.Logger) *JobHandler {
	return &JobHandler{
		LLMService: llm,
		JobService: j,
		Companies:  companies,
		Log:        log,
	}
}

// ParseJob godoc
// @Summary Extract job fields from a raw posting
// @Tags jobs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dtos.JobExtractionRequest true "Raw posting"
// @Success 200 {object} dtos.ExtractedJob
// @Failure 400 {object} dtos.ErrorResponse
// @Failure 503 {object} dtos.ErrorResponse
// @Router /jobs/extract [post]
func (h *JobHandler) ParseJob(c *gin.Context) {
	var req dtos.JobExtractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	extracted, err := h.LLMService.ExtractJobDetails(c.Request.Context(), req.RawText)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    extracted,
	})
}

// CreateJob godoc
// @Summary Publish a job
// @Tags jobs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dtos.JobCreationRequest true "Job"
// @Success 201 {object} models.Job
// @Failure 400 {object} dtos.ErrorResponse
// @Failure 403 {object} dtos.ErrorResponse
// @Failure 404 {object} dtos.ErrorResponse
// @Router /jobs [post]
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req dtos.JobCreationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := authorize(c, h.Companies.OwnedBy, req.CompanyID); err != nil {
		respondError(c, h.Log, err)
		return
	}

	job, err := h.JobService.CreateJob(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusCreated, job)
}

// List godoc
// @Summary List jobs
// @Tags jobs
// @Produce json
// @Param skill query string false "Skill, case-insensitive"
// @Param companyId query int false "Company ID"
// @Success 200 {array} models.Job
// @Router /jobs [get]
func (h *JobHandler) List(c *gin.Context) {
	var filter dtos.JobFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		badRequest(c, err)
		return
	}
	jobs, err := h.JobService.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}

// Get godoc
// @Summary Get a job
// @Tags jobs
// @Produce json
// @Param id path int true "Job ID"
// @Success 200 {object} models.Job
// @Failure 404 {object} dtos.ErrorResponse
// @Router /jobs/{id} [get]
func (h *JobHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	job, err := h.JobService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// Update godoc
// @Summary Update a job
// @Tags jobs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Job ID"
// @Param body body dtos.JobUpdateRequest true "Fields to change"
// @Success 200 {object} models.Job
// @Failure 403 {object} dtos.ErrorResponse
// @Failure 404 {object} dtos.ErrorResponse
// @Router /jobs/{id} [patch]
func (h *JobHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req dtos.JobUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := authorize(c, h.ownsJob, id); err != nil {
		respondError(c, h.Log, err)
		return
	}

	job, err := h.JobService.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// Delete godoc
// @Summary Delete a job
// @Tags jobs
// @Produce json
// @Security BearerAuth
// @Param id path int true "Job ID"
// @Success 200 {object} dtos.SuccessResponse
// @Failure 403 {object} dtos.ErrorResponse
// @Failure 404 {object} dtos.ErrorResponse
// @Router /jobs/{id} [delete]
func (h *JobHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := authorize(c, h.ownsJob, id); err != nil {
		respondError(c, h.Log, err)
		return
	}
	if err := h.JobService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, dtos.SuccessResponse{Success: true})
}

// ownsJob: a job belongs to whoever owns its company.
func (h *JobHandler) ownsJob(ctx context.Context, jobID, userID uint) (bool, error) {
	job, err := h.JobService.Get(ctx, jobID)
	if err != nil {
		return false, err
	}
	return h.Companies.OwnedBy(ctx, job.CompanyID, userID)
}
