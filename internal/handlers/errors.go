package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/studylink/internal/middleware"
	"github.com/justsurfingit/studylink/internal/services"
	"go.uber.org/zap"
)

type apiError struct {
	status  int
	code    string
	message string
}

// errorTable maps service errors to what the client sees.
var errorTable = []struct {
	target error
	apiError
}{
	{services.ErrInvalidEmail, apiError{http.StatusBadRequest, "INVALID_EMAIL", "Adresse email invalide"}},
	{services.ErrInvalidDomain, apiError{http.StatusBadRequest, "INVALID_DOMAIN", "Nom de domaine invalide"}},
	{services.ErrDomainExists, apiError{http.StatusBadRequest, "DOMAIN_EXISTS", "Ce domaine est déjà enregistré"}},
	{services.ErrUserExists, apiError{http.StatusBadRequest, "USER_EXISTS", "Un utilisateur avec cet email existe déjà"}},
	{services.ErrAlreadyApplied, apiError{http.StatusBadRequest, "ALREADY_APPLIED", "Vous avez déjà postulé à cette offre"}},
	{services.ErrAlreadyOwner, apiError{http.StatusConflict, "COMPANY_ALREADY_OWNED", "Vous gérez déjà une entreprise"}},
	{services.ErrInvalidToken, apiError{http.StatusBadRequest, "INVALID_TOKEN", "Lien de connexion invalide ou déjà utilisé"}},
	{services.ErrTokenExpired, apiError{http.StatusBadRequest, "TOKEN_EXPIRED", "Lien de connexion expiré"}},
	{services.ErrNotSchoolOwner, apiError{http.StatusForbidden, "NOT_SCHOOL_OWNER", "Cet email n'est pas associé à un responsable d'école"}},
	{services.ErrAccountDeleted, apiError{http.StatusForbidden, "ACCOUNT_DELETED", "Ce compte a été supprimé"}},
	{services.ErrForbidden, apiError{http.StatusForbidden, "FORBIDDEN", "Accès refusé"}},
	{services.ErrNoStudentProfile, apiError{http.StatusForbidden, "NO_STUDENT_PROFILE", "Un profil étudiant est requis"}},
	{services.ErrNotFound, apiError{http.StatusNotFound, "NOT_FOUND", "Ressource introuvable"}},
	{services.ErrTooManyRequests, apiError{http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "Veuillez patienter avant de demander un nouveau lien"}},
	{services.ErrEmailDelivery, apiError{http.StatusInternalServerError, "EMAIL_DELIVERY_FAILED", "Impossible d'envoyer l'email de connexion"}},
	{services.ErrFeatureDisabled, apiError{http.StatusServiceUnavailable, "FEATURE_DISABLED", "Fonctionnalité indisponible"}},
}

var errInternal = apiError{http.StatusInternalServerError, "INTERNAL_ERROR", "Erreur interne du serveur"}

// respondError writes err as {error, message}. Unknown errors are logged and
// answered with a generic 500.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "VALIDATION_ERROR", "message": verr.Msg})
		return
	}

	for _, e := range errorTable {
		if errors.Is(err, e.target) {
			if e.status >= http.StatusInternalServerError {
				log.Error("request failed", zap.String("request_id", middleware.GetRequestID(c)), zap.Error(err))
			}
			c.JSON(e.status, gin.H{"error": e.code, "message": e.message})
			return
		}
	}

	log.Error("request failed",
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	c.JSON(errInternal.status, gin.H{"error": errInternal.code, "message": errInternal.message})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "INVALID_REQUEST", "message": "Requête invalide: " + err.Error()})
}

// idParam reads a positive numeric path parameter.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "INVALID_ID", "message": "Identifiant invalide"})
		return 0, false
	}
	return uint(id), true
}
