package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/studylink/internal/auth"
	"github.com/justsurfingit/studylink/internal/dtos"
	"github.com/justsurfingit/studylink/internal/services"
	"go.uber.org/zap"
)

// GoogleSignIn is the OAuth provider used for "Se connecter avec Google".
type GoogleSignIn interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.GoogleProfile, error)
}

type AuthHandler struct {
	Auth     *services.AuthService
	Roles    *services.RoleService
	Users    *services.UserService
	Sessions *auth.SessionManager
	Google   GoogleSignIn // nil when Google sign-in is not configured
	BaseURL  string
	Log      *zap.Logger
}

func NewAuthHandler(a *services.AuthService, roles *services.RoleService, users *services.UserService, sessions *auth.SessionManager, google GoogleSignIn, baseURL string, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		Auth:     a,
		Roles:    roles,
		Users:    users,
		Sessions: sessions,
		Google:   google,
		BaseURL:  baseURL,
		Log:      log,
	}
}

// Authenticate godoc
// @Summary Send a sign-in link
// @Description Creates a student account for unknown emails, then emails a single-use link valid 24 hours.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dtos.EmailRequest true "Email"
// @Success 200 {object} dtos.AuthenticateResponse
// @Failure 400 {object} dtos.ErrorResponse
// @Failure 403 {object} dtos.ErrorResponse
// @Failure 429 {object} dtos.ErrorResponse
// @Failure 500 {object} dtos.ErrorResponse
// @Router /auth/authenticate [post]
func (h *AuthHandler) Authenticate(c *gin.Context) {
	var req dtos.EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.Auth.Authenticate(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, dtos.AuthenticateResponse{
		Message:   "Un lien de connexion vous a été envoyé par email",
		IsNewUser: res.IsNewUser,
	})
}

// AuthenticateSchoolOwner godoc
// @Summary Send a sign-in link to a school owner
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dtos.EmailRequest true "Email"
// @Success 200 {object} dtos.SuccessResponse
// @Failure 400 {object} dtos.ErrorResponse
// @Failure 403 {object} dtos.ErrorResponse
// @Failure 500 {object} dtos.ErrorResponse
// @Router /auth/authenticate-school-owner [post]
func (h *AuthHandler) AuthenticateSchoolOwner(c *gin.Context) {
	var req dtos.EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.Auth.AuthenticateSchoolOwner(c.Request.Context(), req.Email); err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, dtos.SuccessResponse{Success: true})
}

// CheckSchoolOwner godoc
// @Summary Tell whether an email belongs to a school owner
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dtos.EmailRequest true "Email"
// @Success 200 {object} dtos.CheckSchoolOwnerResponse
// @Failure 400 {object} dtos.ErrorResponse
// @Router /auth/check-school-owner [post]
func (h *AuthHandler) CheckSchoolOwner(c *gin.Context) {
	var req dtos.EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	email, err := services.ValidateEmail(req.Email)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}

	ok, err := h.Roles.IsSchoolOwner(c.Request.Context(), email)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, dtos.CheckSchoolOwnerResponse{IsSchoolOwner: ok})
}

// EmailCallback godoc
// @Summary Magic link landing
// @Description Consumes the link, sets the session cookie and redirects to the role's landing page.
// @Tags auth
// @Param token query string true "Token"
// @Param email query string true "Email"
// @Success 302
// @Router /auth/callback/email [get]
func (h *AuthHandler) EmailCallback(c *gin.Context) {
	session, err := h.Auth.VerifyMagicLink(c.Request.Context(), c.Query("email"), c.Query("token"))
	if err != nil {
		h.redirectError(c, err)
		return
	}
	if err := h.startSession(c, session); err != nil {
		h.redirectError(c, err)
		return
	}
	c.Redirect(http.StatusFound, h.safeRedirect(session.CallbackURL, session))
}

// VerifyLink godoc
// @Summary Exchange a magic link token for a session token
// @Description Same as the email callback, for clients that keep the token themselves.
// @Tags auth
// @Produce json
// @Param token query string true "Token"
// @Param email query string true "Email"
// @Success 200 {object} dtos.SessionTokenResponse
// @Failure 400 {object} dtos.ErrorResponse
// @Failure 403 {object} dtos.ErrorResponse
// @Router /auth/verify [post]
func (h *AuthHandler) VerifyLink(c *gin.Context) {
	session, err := h.Auth.VerifyMagicLink(c.Request.Context(), c.Query("email"), c.Query("token"))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	token, expiresAt, err := h.Sessions.Issue(session.User.ID, session.User.Email, session.Role)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, dtos.SessionTokenResponse{
		Token:       token,
		ExpiresAt:   expiresAt.UTC().Format(time.RFC3339),
		Role:        session.Role,
		CallbackURL: h.safeRedirect(session.CallbackURL, session),
	})
}

// GoogleLogin godoc
// @Summary Start Google sign-in
// @Tags auth
// @Success 302
// @Failure 404 {object} dtos.ErrorResponse
// @Router /auth/google/login [get]
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	if h.Google == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "FEATURE_DISABLED", "message": "Connexion Google non configurée"})
		return
	}
	state, err := auth.NewState()
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.StateCookie, state, int((10 * time.Minute).Seconds()), "/", "", h.secureCookies(), true)
	c.Redirect(http.StatusFound, h.Google.AuthCodeURL(state))
}

// GoogleCallback godoc
// @Summary Finish Google sign-in
// @Tags auth
// @Param code query string true "Authorization code"
// @Param state query string true "State"
// @Success 302
// @Router /auth/google/callback [get]
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	if h.Google == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "FEATURE_DISABLED", "message": "Connexion Google non configurée"})
		return
	}
	state, _ := c.Cookie(auth.StateCookie)
	c.SetCookie(auth.StateCookie, "", -1, "/", "", h.secureCookies(), true)
	if state == "" || state != c.Query("state") {
		h.redirectError(c, services.ErrInvalidToken)
		return
	}

	profile, err := h.Google.Exchange(c.Request.Context(), c.Query("code"))
	if err != nil {
		h.redirectError(c, err)
		return
	}
	session, err := h.Auth.MaterializeSession(c.Request.Context(), profile.Email, &profile.GivenName, &profile.FamilyName)
	if err != nil {
		h.redirectError(c, err)
		return
	}
	if err := h.startSession(c, session); err != nil {
		h.redirectError(c, err)
		return
	}
	c.Redirect(http.StatusFound, session.CallbackURL)
}

// Session godoc
// @Summary Current session
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dtos.SessionResponse
// @Failure 401 {object} dtos.ErrorResponse
// @Router /auth/session [get]
func (h *AuthHandler) Session(c *gin.Context) {
	cl := claims(c)
	user, err := h.Users.Get(c.Request.Context(), cl.UserID)
	if errors.Is(err, services.ErrNotFound) {
		// the account was deleted after the session was issued
		c.JSON(http.StatusUnauthorized, gin.H{"error": "UNAUTHORIZED", "message": "Session invalide"})
		return
	}
	if err != nil {
		respondError(c, h.Log, err)
		return
	}

	var expiresAt string
	if cl.ExpiresAt != nil {
		expiresAt = cl.ExpiresAt.UTC().Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, dtos.SessionResponse{User: *user, Role: cl.Role, ExpiresAt: expiresAt})
}

// Logout godoc
// @Summary Clear the session cookie
// @Tags auth
// @Produce json
// @Success 200 {object} dtos.SuccessResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie(auth.SessionCookie, "", -1, "/", "", h.secureCookies(), true)
	c.JSON(http.StatusOK, dtos.SuccessResponse{Success: true})
}

func (h *AuthHandler) startSession(c *gin.Context, session *services.Session) error {
	_, _, err := setSessionCookie(c, h.Sessions, h.secureCookies(), session.User.ID, session.User.Email, session.Role)
	return err
}

// redirectError sends the browser to the login page with an error code.
func (h *AuthHandler) redirectError(c *gin.Context, err error) {
	code := "Verification"
	switch {
	case errors.Is(err, services.ErrAccountDeleted):
		code = "AccountDeleted"
	case errors.Is(err, auth.ErrUnverifiedEmail):
		code = "EmailNotVerified"
	case errors.Is(err, services.ErrInvalidToken), errors.Is(err, services.ErrTokenExpired):
	default:
		h.Log.Error("sign-in callback failed", zap.Error(err))
	}
	c.Redirect(http.StatusFound, h.BaseURL+"/login?error="+code)
}

// safeRedirect only follows callback URLs on our own origin.
func (h *AuthHandler) safeRedirect(target string, session *services.Session) string {
	fallback := services.LandingURL(h.BaseURL, session.Role)
	u, err := url.Parse(target)
	if err != nil || target == "" {
		return fallback
	}
	if !u.IsAbs() {
		if strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//") {
			return h.BaseURL + target
		}
		return fallback
	}
	base, err := url.Parse(h.BaseURL)
	if err != nil || u.Scheme != base.Scheme || u.Host != base.Host {
		return fallback
	}
	return target
}

func (h *AuthHandler) secureCookies() bool {
	return isHTTPS(h.BaseURL)
}
