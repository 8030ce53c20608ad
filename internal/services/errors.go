package services

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidEmail     = errors.New("invalid email")
	ErrInvalidDomain    = errors.New("invalid domain")
	ErrNotSchoolOwner   = errors.New("not a school owner")
	ErrDomainExists     = errors.New("domain already exists")
	ErrUserExists       = errors.New("user already exists")
	ErrAccountDeleted   = errors.New("account deleted")
	ErrTooManyRequests  = errors.New("too many requests")
	ErrInvalidToken     = errors.New("invalid or already used token")
	ErrTokenExpired     = errors.New("token expired")
	ErrEmailDelivery    = errors.New("email delivery failed")
	ErrAlreadyApplied   = errors.New("already applied")
	ErrForbidden        = errors.New("forbidden")
	ErrFeatureDisabled  = errors.New("feature disabled")
	ErrNoStudentProfile = errors.New("no student profile")
	ErrAlreadyOwner     = errors.New("user already owns a company")
)

// ValidationError wraps a user-facing validation message.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }
