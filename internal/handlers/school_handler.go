package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/studylink/internal/dtos"
	"github.com/justsurfingit/studylink/internal/services"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type SchoolHandler struct {
	Schools *services.SchoolService
	Export  *services.ExportService
	Log     *zap.Logger
}

func NewSchoolHandler(schools *services.SchoolService, export *services.ExportService, log *zap.Logger) *SchoolHandler {
	return &SchoolHandler{Schools: schools, Export: export, Log: log}
}

// CreateWithDomain godoc
// @Summary Provision a school with its domain and owner
// @Tags schools
// @Accept json
// @Produce json
// @Param body body dtos.CreateSchoolWithDomainRequest true "School, domain and owner"
// @Success 201 {object} dtos.CreateSchoolWithDomainResponse
// @Failure 400 {object} dtos.ErrorResponse
// @Router /schools/create-with-domain [post]
func (h *SchoolHandler) CreateWithDomain(c *gin.Context) {
	var req dtos.CreateSchoolWithDomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	school, domain, err := h.Schools.CreateWithDomain(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusCreated, dtos.CreateSchoolWithDomainResponse{School: school, Domain: domain})
}

// List godoc
// @Summary List schools
// @Tags schools
// @Produce json
// @Success 200 {array} models.School
// @Router /schools [get]
func (h *SchoolHandler) List(c *gin.Context) {
	schools, err := h.Schools.List(c.Request.Context())
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, schools)
}

// Get godoc
// @Summary Get a school
// @Tags schools
// @Produce json
// @Param id path int true "School ID"
// @Success 200 {object} models.School
// @Failure 404 {object} dtos.ErrorResponse
// @Router /schools/{id} [get]
func (h *SchoolHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	school, err := h.Schools.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, school)
}

// Update godoc
// @Summary Update a school
// @Tags schools
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "School ID"
// @Param body body dtos.UpdateSchoolRequest true "Fields to change"
// @Success 200 {object} models.School
// @Failure 403 {object} dtos.ErrorResponse
// @Failure 404 {object} dtos.ErrorResponse
// @Router /schools/{id} [patch]
func (h *SchoolHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req dtos.UpdateSchoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := authorize(c, h.Schools.OwnedBy, id); err != nil {
		respondError(c, h.Log, err)
		return
	}

	school, err := h.Schools.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, school)
}

// Delete godoc
// @Summary Delete a school
// @Tags schools
// @Produce json
// @Security BearerAuth
// @Param id path int true "School ID"
// @Success 200 {object} dtos.SuccessResponse
// @Failure 403 {object} dtos.ErrorResponse
// @Failure 404 {object} dtos.ErrorResponse
// @Router /schools/{id} [delete]
func (h *SchoolHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.Schools.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, dtos.SuccessResponse{Success: true})
}

// Students godoc
// @Summary List a school's students
// @Tags schools
// @Produce json
// @Security BearerAuth
// @Param id path int true "School ID"
// @Success 200 {array} models.Student
// @Failure 403 {object} dtos.ErrorResponse
// @Failure 404 {object} dtos.ErrorResponse
// @Router /schools/{id}/students [get]
func (h *SchoolHandler) Students(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := authorize(c, h.Schools.OwnedBy, id); err != nil {
		respondError(c, h.Log, err)
		return
	}

	students, err := h.Schools.Students(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, students)
}

// ExportStudents godoc
// @Summary Download a school's students as a spreadsheet
// @Tags schools
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param id path int true "School ID"
// @Success 200 {file} file
// @Failure 403 {object} dtos.ErrorResponse
// @Failure 404 {object} dtos.ErrorResponse
// @Router /schools/{id}/students/export [get]
func (h *SchoolHandler) ExportStudents(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := authorize(c, h.Schools.OwnedBy, id); err != nil {
		respondError(c, h.Log, err)
		return
	}

	data, err := h.Export.StudentsXLSX(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	filename := fmt.Sprintf("etudiants-%d-%s.xlsx", id, time.Now().Format("20060102"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}
