package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/studylink/internal/dtos"
	"github.com/justsurfingit/studylink/internal/services"
	"go.uber.org/zap"
)

type DomainHandler struct {
	Domains *services.DomainService
	Log     *zap.Logger
}

func NewDomainHandler(domains *services.DomainService, log *zap.Logger) *DomainHandler {
	return &DomainHandler{Domains: domains, Log: log}
}

// Check godoc
// @Summary Find the school behind an email domain
// @Tags school-domains
// @Accept json
// @Produce json
// @Param body body dtos.DomainCheckRequest true "Domain"
// @Success 200 {object} services.SchoolMatch
// @Failure 400 {object} dtos.ErrorResponse
// @Failure 404 {object} dtos.ErrorResponse
// @Router /school-domains/check [post]
func (h *DomainHandler) Check(c *gin.Context) {
	var req dtos.DomainCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	match, err := h.Domains.CheckDomain(c.Request.Context(), req.Domain)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, match)
}

// ValidateAndCreate godoc
// @Summary Register the domain of an email
// @Description Creates the domain and a default school when the domain is unknown.
// @Tags school-domains
// @Accept json
// @Produce json
// @Param body body dtos.EmailRequest true "Email"
// @Success 200 {object} dtos.ValidateAndCreateResponse
// @Failure 400 {object} dtos.ErrorResponse
// @Router /school-domains/validate-and-create [post]
func (h *DomainHandler) ValidateAndCreate(c *gin.Context) {
	var req dtos.EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	domain, created, err := h.Domains.ValidateAndCreate(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}

	msg := "Domaine déjà enregistré"
	if created {
		msg = "Domaine et école créés"
	}
	c.JSON(http.StatusOK, dtos.ValidateAndCreateResponse{Success: true, Domain: domain, Message: msg})
}
