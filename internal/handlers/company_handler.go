package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/studylink/internal/dtos"
	"github.com/justsurfingit/studylink/internal/models"
	"github.com/justsurfingit/studylink/internal/services"
	"go.uber.org/zap"
)

type CompanyHandler struct {
	Companies *services.CompanyService
	Jobs      *services.JobService
	Log       *zap.Logger
}

func NewCompanyHandler(companies *services.CompanyService, jobs *services.JobService, log *zap.Logger) *CompanyHandler {
	return &CompanyHandler{Companies: companies, Jobs: jobs, Log: log}
}

// List godoc
// @Summary List companies
// @Tags companies
// @Produce json
// @Success 200 {array} models.Company
// @Router /companies [get]
func (h *CompanyHandler) List(c *gin.Context) {
	companies, err := h.Companies.List(c.Request.Context())
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, companies)
}

// Get godoc
// @Summary Get a company with its jobs
// @Tags companies
// @Produce json
// @Param id path int true "Company ID"
// @Success 200 {object} models.Company
// @Failure 404 {object} dtos.ErrorResponse
// @Router /companies/{id} [get]
func (h *CompanyHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	company, err := h.Companies.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

// Create godoc
// @Summary Create a company
// @Description A company owner becomes the owner of the new company; one company per owner.
// @Tags companies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dtos.CompanyRequest true "Company"
// @Success 201 {object} models.Company
// @Failure 400 {object} dtos.ErrorResponse
// @Failure 409 {object} dtos.ErrorResponse
// @Router /companies [post]
func (h *CompanyHandler) Create(c *gin.Context) {
	var req dtos.CompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	var ownerID *uint
	if cl := claims(c); cl.Role == models.RoleCompanyOwner {
		ownerID = &cl.UserID
	}
	company, err := h.Companies.Create(c.Request.Context(), &req, ownerID)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusCreated, company)
}

// Update godoc
// @Summary Update a company
// @Tags companies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Company ID"
// @Param body body dtos.CompanyUpdateRequest true "Fields to change"
// @Success 200 {object} models.Company
// @Failure 403 {object} dtos.ErrorResponse
// @Failure 404 {object} dtos.ErrorResponse
// @Router /companies/{id} [patch]
func (h *CompanyHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req dtos.CompanyUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := authorize(c, h.Companies.OwnedBy, id); err != nil {
		respondError(c, h.Log, err)
		return
	}

	company, err := h.Companies.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

// Delete godoc
// @Summary Delete a company and its jobs
// @Tags companies
// @Produce json
// @Security BearerAuth
// @Param id path int true "Company ID"
// @Success 200 {object} dtos.SuccessResponse
// @Failure 403 {object} dtos.ErrorResponse
// @Failure 404 {object} dtos.ErrorResponse
// @Router /companies/{id} [delete]
func (h *CompanyHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := authorize(c, h.Companies.OwnedBy, id); err != nil {
		respondError(c, h.Log, err)
		return
	}
	if err := h.Companies.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, dtos.SuccessResponse{Success: true})
}

// ListJobs godoc
// @Summary List a company's jobs
// @Tags companies
// @Produce json
// @Param id path int true "Company ID"
// @Success 200 {array} models.Job
// @Failure 404 {object} dtos.ErrorResponse
// @Router /companies/{id}/jobs [get]
func (h *CompanyHandler) ListJobs(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if _, err := h.Companies.Get(c.Request.Context(), id); err != nil {
		respondError(c, h.Log, err)
		return
	}
	jobs, err := h.Jobs.List(c.Request.Context(), dtos.JobFilter{CompanyID: id})
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}
