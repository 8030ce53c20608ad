package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/studylink/internal/auth"
	"github.com/justsurfingit/studylink/internal/dtos"
	"github.com/justsurfingit/studylink/internal/services"
	"go.uber.org/zap"
)

// ProfileHandler serves the signed-in user's own profile. When the resolved
// role no longer matches the session, the session cookie is reissued.
type ProfileHandler struct {
	Profiles *services.ProfileService
	Sessions *auth.SessionManager
	BaseURL  string
	Log      *zap.Logger
}

func NewProfileHandler(profiles *services.ProfileService, sessions *auth.SessionManager, baseURL string, log *zap.Logger) *ProfileHandler {
	return &ProfileHandler{Profiles: profiles, Sessions: sessions, BaseURL: baseURL, Log: log}
}

// Get godoc
// @Summary Current user's profile
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dtos.ProfileResponse
// @Failure 401 {object} dtos.ErrorResponse
// @Router /profile [get]
func (h *ProfileHandler) Get(c *gin.Context) {
	profile, err := h.Profiles.Load(c.Request.Context(), claims(c).UserID)
	h.reply(c, profile, err)
}

// Select godoc
// @Summary Choose between a student and a company profile
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dtos.ProfileSelectRequest true "Profile type"
// @Success 200 {object} dtos.ProfileResponse
// @Failure 400 {object} dtos.ErrorResponse
// @Failure 403 {object} dtos.ErrorResponse
// @Router /profile/select [post]
func (h *ProfileHandler) Select(c *gin.Context) {
	var req dtos.ProfileSelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	profile, err := h.Profiles.SelectType(c.Request.Context(), claims(c).UserID, req.Type)
	h.reply(c, profile, err)
}

// Update godoc
// @Summary Complete the profile
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dtos.ProfileUpdateRequest true "Profile"
// @Success 200 {object} dtos.ProfileResponse
// @Failure 400 {object} dtos.ErrorResponse
// @Router /profile [put]
func (h *ProfileHandler) Update(c *gin.Context) {
	var req dtos.ProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	profile, err := h.Profiles.Complete(c.Request.Context(), claims(c).UserID, &req)
	h.reply(c, profile, err)
}

func (h *ProfileHandler) reply(c *gin.Context, profile *dtos.ProfileResponse, err error) {
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	if cl := claims(c); profile.Role != cl.Role {
		token, expiresAt, err := setSessionCookie(c, h.Sessions, isHTTPS(h.BaseURL), profile.User.ID, profile.User.Email, profile.Role)
		if err != nil {
			respondError(c, h.Log, err)
			return
		}
		profile.Token = token
		profile.ExpiresAt = expiresAt.UTC().Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, profile)
}
