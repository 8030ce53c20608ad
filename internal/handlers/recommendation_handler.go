package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/studylink/internal/dtos"
	"github.com/justsurfingit/studylink/internal/services"
	"go.uber.org/zap"
)

// RecommendationHandler serves recommendations and the student pages they hang off.
type RecommendationHandler struct {
	Recommendations *services.RecommendationService
	Students        *services.StudentService
	Companies       *services.CompanyService
	Log             *zap.Logger
}

func NewRecommendationHandler(recs *services.RecommendationService, students *services.StudentService, companies *services.CompanyService, log *zap.Logger) *RecommendationHandler {
	return &RecommendationHandler{Recommendations: recs, Students: students, Companies: companies, Log: log}
}

// Create godoc
// @Summary Recommend a student on behalf of a company
// @Tags recommendations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dtos.RecommendationRequest true "Recommendation"
// @Success 201 {object} models.Recommendation
// @Failure 400 {object} dtos.ErrorResponse
// @Failure 403 {object} dtos.ErrorResponse
// @Failure 404 {object} dtos.ErrorResponse
// @Router /recommendations [post]
func (h *RecommendationHandler) Create(c *gin.Context) {
	var req dtos.RecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := authorize(c, h.Companies.OwnedBy, req.CompanyID); err != nil {
		respondError(c, h.Log, err)
		return
	}

	rec, err := h.Recommendations.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// Delete godoc
// @Summary Delete a recommendation
// @Tags recommendations
// @Produce json
// @Security BearerAuth
// @Param id path int true "Recommendation ID"
// @Success 200 {object} dtos.SuccessResponse
// @Failure 403 {object} dtos.ErrorResponse
// @Failure 404 {object} dtos.ErrorResponse
// @Router /recommendations/{id} [delete]
func (h *RecommendationHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := authorize(c, h.wroteRecommendation, id); err != nil {
		respondError(c, h.Log, err)
		return
	}
	if err := h.Recommendations.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, dtos.SuccessResponse{Success: true})
}

// GetStudent godoc
// @Summary Get a student profile
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 200 {object} models.Student
// @Failure 404 {object} dtos.ErrorResponse
// @Router /students/{id} [get]
func (h *RecommendationHandler) GetStudent(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	student, err := h.Students.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, student)
}

// ForStudent godoc
// @Summary List a student's recommendations
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 200 {array} models.Recommendation
// @Router /students/{id}/recommendations [get]
func (h *RecommendationHandler) ForStudent(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	recs, err := h.Recommendations.ListForStudent(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, recs)
}

// SetPrimary godoc
// @Summary Highlight one of the student's recommendations
// @Description Send null to clear the highlight.
// @Tags students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Param body body dtos.PrimaryRecommendationRequest true "Recommendation"
// @Success 200 {object} models.Student
// @Failure 403 {object} dtos.ErrorResponse
// @Failure 404 {object} dtos.ErrorResponse
// @Router /students/{id}/primary-recommendation [put]
func (h *RecommendationHandler) SetPrimary(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req dtos.PrimaryRecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := authorize(c, h.isStudent, id); err != nil {
		respondError(c, h.Log, err)
		return
	}

	student, err := h.Recommendations.SetPrimary(c.Request.Context(), id, req.RecommendationID)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, student)
}

func (h *RecommendationHandler) wroteRecommendation(ctx context.Context, recID, userID uint) (bool, error) {
	rec, err := h.Recommendations.Get(ctx, recID)
	if err != nil {
		return false, err
	}
	return h.Companies.OwnedBy(ctx, rec.CompanyID, userID)
}

func (h *RecommendationHandler) isStudent(ctx context.Context, studentID, userID uint) (bool, error) {
	student, err := h.Students.Get(ctx, studentID)
	if err != nil {
		return false, err
	}
	return student.UserID == userID, nil
}
