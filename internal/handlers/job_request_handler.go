package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/studylink/internal/dtos"
	"github.com/justsurfingit/studylink/internal/services"
	"go.uber.org/zap"
)

type JobRequestHandler struct {
	Requests  *services.JobRequestService
	Students  *services.StudentService
	Companies *services.CompanyService
	Log       *zap.Logger
}

func NewJobRequestHandler(requests *services.JobRequestService, students *services.StudentService, companies *services.CompanyService, log *zap.Logger) *JobRequestHandler {
	return &JobRequestHandler{Requests: requests, Students: students, Companies: companies, Log: log}
}

// Apply godoc
// @Summary Apply to a job
// @Tags job-requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dtos.JobRequestCreate true "Job"
// @Success 201 {object} models.JobRequest
// @Failure 400 {object} dtos.ErrorResponse
// @Failure 403 {object} dtos.ErrorResponse
// @Failure 404 {object} dtos.ErrorResponse
// @Router /job-requests [post]
func (h *JobRequestHandler) Apply(c *gin.Context) {
	var req dtos.JobRequestCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	student, err := h.Students.ByUserID(c.Request.Context(), claims(c).UserID)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}

	jr, err := h.Requests.Apply(c.Request.Context(), student.ID, req.JobID)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusCreated, jr)
}

// Mine godoc
// @Summary List the current student's applications
// @Tags job-requests
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.JobRequest
// @Failure 403 {object} dtos.ErrorResponse
// @Router /job-requests/me [get]
func (h *JobRequestHandler) Mine(c *gin.Context) {
	student, err := h.Students.ByUserID(c.Request.Context(), claims(c).UserID)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	reqs, err := h.Requests.ListForStudent(c.Request.Context(), student.ID)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, reqs)
}

// ForCompany godoc
// @Summary List applications to a company's jobs
// @Tags job-requests
// @Produce json
// @Security BearerAuth
// @Param id path int true "Company ID"
// @Success 200 {array} models.JobRequest
// @Failure 403 {object} dtos.ErrorResponse
// @Router /companies/{id}/job-requests [get]
func (h *JobRequestHandler) ForCompany(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := authorize(c, h.Companies.OwnedBy, id); err != nil {
		respondError(c, h.Log, err)
		return
	}
	reqs, err := h.Requests.ListForCompany(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, reqs)
}

// UpdateStatus godoc
// @Summary Accept or reject an application
// @Tags job-requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Job request ID"
// @Param body body dtos.JobRequestStatusUpdate true "Status"
// @Success 200 {object} models.JobRequest
// @Failure 400 {object} dtos.ErrorResponse
// @Failure 403 {object} dtos.ErrorResponse
// @Failure 404 {object} dtos.ErrorResponse
// @Router /job-requests/{id}/status [patch]
func (h *JobRequestHandler) UpdateStatus(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req dtos.JobRequestStatusUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := authorize(c, h.ownsJob, id); err != nil {
		respondError(c, h.Log, err)
		return
	}

	jr, err := h.Requests.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, jr)
}

// Withdraw godoc
// @Summary Withdraw an application
// @Tags job-requests
// @Produce json
// @Security BearerAuth
// @Param id path int true "Job request ID"
// @Success 200 {object} dtos.SuccessResponse
// @Failure 403 {object} dtos.ErrorResponse
// @Failure 404 {object} dtos.ErrorResponse
// @Router /job-requests/{id} [delete]
func (h *JobRequestHandler) Withdraw(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := authorize(c, h.isApplicant, id); err != nil {
		respondError(c, h.Log, err)
		return
	}
	if err := h.Requests.Withdraw(c.Request.Context(), id); err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, dtos.SuccessResponse{Success: true})
}

// ownsJob: the company owner of the job applied to.
func (h *JobRequestHandler) ownsJob(ctx context.Context, requestID, userID uint) (bool, error) {
	jr, err := h.Requests.Get(ctx, requestID)
	if err != nil {
		return false, err
	}
	if jr.Job == nil {
		return false, nil
	}
	return h.Companies.OwnedBy(ctx, jr.Job.CompanyID, userID)
}

func (h *JobRequestHandler) isApplicant(ctx context.Context, requestID, userID uint) (bool, error) {
	jr, err := h.Requests.Get(ctx, requestID)
	if err != nil {
		return false, err
	}
	student, err := h.Students.ByUserID(ctx, userID)
	if errors.Is(err, services.ErrNoStudentProfile) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return jr.StudentID == student.ID, nil
}
