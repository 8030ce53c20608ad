package dtos

import "github.com/justsurfingit/studylink/internal/models"

// Email format is checked by the service so that the error code is uniform.
type EmailRequest struct {
	Email string `json:"email"`
}

type AuthenticateResponse struct {
	Message   string `json:"message"`
	IsNewUser bool   `json:"isNewUser"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type CheckSchoolOwnerResponse struct {
	IsSchoolOwner bool `json:"isSchoolOwner"`
}

type SessionResponse struct {
	User      models.User `json:"user"`
	Role      models.Role `json:"role"`
	ExpiresAt string      `json:"expiresAt"`
}

// SessionTokenResponse is returned to API clients that cannot use the cookie.
type SessionTokenResponse struct {
	Token       string      `json:"token"`
	ExpiresAt   string      `json:"expiresAt"`
	Role        models.Role `json:"role"`
	CallbackURL string      `json:"callbackUrl"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
