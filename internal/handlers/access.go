package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/studylink/internal/auth"
	"github.com/justsurfingit/studylink/internal/middleware"
	"github.com/justsurfingit/studylink/internal/models"
	"github.com/justsurfingit/studylink/internal/services"
)

// ownership answers "does this user own that resource".
type ownership func(ctx context.Context, resourceID, userID uint) (bool, error)

// claims is only called behind RequireAuth.
func claims(c *gin.Context) *auth.Claims {
	cl, _ := middleware.Claims(c)
	if cl == nil {
		return &auth.Claims{Role: models.RoleUnregistered}
	}
	return cl
}

// authorize lets admins through and otherwise asks owns.
func authorize(c *gin.Context, owns ownership, resourceID uint) error {
	cl := claims(c)
	if cl.Role == models.RoleAdmin {
		return nil
	}
	ok, err := owns(c.Request.Context(), resourceID, cl.UserID)
	if err != nil {
		return err
	}
	if !ok {
		return services.ErrForbidden
	}
	return nil
}

// selfOrAdmin allows a user to act on their own account.
func selfOrAdmin(c *gin.Context, userID uint) error {
	cl := claims(c)
	if cl.Role == models.RoleAdmin || cl.UserID == userID {
		return nil
	}
	return services.ErrForbidden
}

// setSessionCookie issues a session token for the user and stores it in the
// session cookie. The token is returned for clients that use the Bearer header.
func setSessionCookie(c *gin.Context, sessions *auth.SessionManager, secure bool, userID uint, email string, role models.Role) (string, time.Time, error) {
	token, expiresAt, err := sessions.Issue(userID, email, role)
	if err != nil {
		return "", time.Time{}, err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.SessionCookie, token, int(sessions.TTL().Seconds()), "/", "", secure, true)
	return token, expiresAt, nil
}

func isHTTPS(baseURL string) bool {
	return strings.HasPrefix(baseURL, "https://")
}
