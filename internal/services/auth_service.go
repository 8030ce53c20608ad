package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/justsurfingit/studylink/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultMagicLinkTTL = 24 * time.Hour

	schoolOwnerLanding = "/school/students"
	defaultLanding     = "/select-profile"
	emailCallbackPath  = "/api/auth/callback/email"
)

var validate = validator.New()

// LinkThrottle limits how often a magic link is sent to one address.
type LinkThrottle interface {
	Allow(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// AuthService sends magic links and turns verified links into sessions.
type AuthService struct {
	DB       *gorm.DB
	Roles    *RoleService
	Email    *EmailService
	Throttle LinkThrottle // optional
	BaseURL  string
	TokenTTL time.Duration
	Log      *zap.Logger

	secret string
	now    func() time.Time
}

func NewAuthService(db *gorm.DB, roles *RoleService, email *EmailService, baseURL, secret string, log *zap.Logger) *AuthService {
	return &AuthService{
		DB:       db,
		Roles:    roles,
		Email:    email,
		BaseURL:  baseURL,
		TokenTTL: DefaultMagicLinkTTL,
		Log:      log,
		secret:   secret,
		now:      time.Now,
	}
}

type AuthenticateResult struct {
	IsNewUser bool
	Role      models.Role
}

// Session is a freshly authenticated user.
type Session struct {
	User        models.User
	Role        models.Role
	CallbackURL string
}

// LandingURL is where a user with role lands after signing in.
func LandingURL(baseURL string, role models.Role) string {
	if role == models.RoleSchoolOwner {
		return baseURL + schoolOwnerLanding
	}
	return baseURL + defaultLanding
}

// ValidateEmail normalizes email and checks its syntax.
func ValidateEmail(email string) (string, error) {
	email = NormalizeEmail(email)
	if err := validate.Var(email, "required,email"); err != nil {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// Authenticate sends a magic link to email, creating a student user the
// first time the address is seen.
func (s *AuthService) Authenticate(ctx context.Context, email string) (*AuthenticateResult, error) {
	email, err := ValidateEmail(email)
	if err != nil {
		return nil, err
	}
	if err := s.claimSendSlot(ctx, email); err != nil {
		return nil, err
	}

	isNew, err := s.ensureUser(ctx, email)
	if err != nil {
		s.releaseSendSlot(ctx, email)
		return nil, err
	}

	resolution, err := s.Roles.ResolveRole(ctx, email)
	if err != nil {
		s.releaseSendSlot(ctx, email)
		return nil, err
	}

	if err := s.sendLink(ctx, email, resolution.Role); err != nil {
		s.releaseSendSlot(ctx, email)
		return nil, err
	}

	if isNew {
		s.Log.Info("user created on first authentication", zap.String("email", email))
	}
	return &AuthenticateResult{IsNewUser: isNew, Role: resolution.Role}, nil
}

// AuthenticateSchoolOwner sends a magic link only to existing school owners.
// It never creates a user.
func (s *AuthService) AuthenticateSchoolOwner(ctx context.Context, email string) error {
	email, err := ValidateEmail(email)
	if err != nil {
		return err
	}

	resolution, err := s.Roles.ResolveRole(ctx, email)
	if err != nil {
		return err
	}
	if resolution.Role != models.RoleSchoolOwner {
		return ErrNotSchoolOwner
	}

	if err := s.claimSendSlot(ctx, email); err != nil {
		return err
	}
	if err := s.sendLink(ctx, email, resolution.Role); err != nil {
		s.releaseSendSlot(ctx, email)
		return err
	}
	return nil
}

// VerifyMagicLink consumes the token sent to email and materializes the session.
func (s *AuthService) VerifyMagicLink(ctx context.Context, email, token string) (*Session, error) {
	email = NormalizeEmail(email)
	if email == "" || token == "" {
		return nil, ErrInvalidToken
	}

	var vt models.VerificationToken
	err := s.DB.WithContext(ctx).
		Where("identifier = ? AND token_hash = ?", email, s.hashToken(token)).
		First(&vt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("verify token lookup: %w", err)
	}

	// The delete is the claim: of two concurrent uses only one removes the row.
	res := s.DB.WithContext(ctx).Where("id = ?", vt.ID).Delete(&models.VerificationToken{})
	if res.Error != nil {
		return nil, fmt.Errorf("verify token consume: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrInvalidToken
	}
	if s.now().After(vt.ExpiresAt) {
		return nil, ErrTokenExpired
	}

	session, err := s.MaterializeSession(ctx, email, nil, nil)
	if err != nil {
		return nil, err
	}
	session.CallbackURL = vt.CallbackURL
	return session, nil
}

// MaterializeSession makes sure a live user exists for a verified email,
// stamps the verification time and resolves the role. Names are only used to
// fill empty fields.
func (s *AuthService) MaterializeSession(ctx context.Context, email string, firstName, lastName *string) (*Session, error) {
	email, err := ValidateEmail(email)
	if err != nil {
		return nil, err
	}
	if _, err := s.ensureUser(ctx, email); err != nil {
		return nil, err
	}

	var user models.User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, fmt.Errorf("materialize session: %w", err)
	}

	now := s.now()
	updates := map[string]any{"email_verified": now}
	if user.FirstName == nil && firstName != nil && *firstName != "" {
		updates["first_name"] = *firstName
		user.FirstName = firstName
	}
	if user.LastName == nil && lastName != nil && *lastName != "" {
		updates["last_name"] = *lastName
		user.LastName = lastName
	}
	if err := s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("materialize session update: %w", err)
	}
	user.EmailVerified = &now

	resolution, err := s.Roles.ResolveRole(ctx, email)
	if err != nil {
		return nil, err
	}
	role := resolution.Role
	if role != models.RoleUnregistered {
		user.Type = role
	}

	s.Log.Info("session materialized", zap.Uint("user_id", user.ID), zap.String("role", string(role)))
	return &Session{User: user, Role: role, CallbackURL: LandingURL(s.BaseURL, role)}, nil
}

// PurgeExpiredTokens removes verification tokens past their expiry.
func (s *AuthService) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	res := s.DB.WithContext(ctx).Where("expires_at < ?", s.now()).Delete(&models.VerificationToken{})
	if res.Error != nil {
		return 0, fmt.Errorf("purge tokens: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ensureUser inserts a student user for email unless one exists. A
// soft-deleted account blocks sign-in instead of being recreated.
func (s *AuthService) ensureUser(ctx context.Context, email string) (bool, error) {
	user := models.User{Email: email, Type: models.RoleStudent, ProfileCompleted: false}
	res := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoNothing: true,
	}).Create(&user)
	if res.Error != nil {
		return false, fmt.Errorf("ensure user: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return true, nil
	}

	var existing models.User
	if err := s.DB.WithContext(ctx).Unscoped().Where("email = ?", email).First(&existing).Error; err != nil {
		return false, fmt.Errorf("ensure user lookup: %w", err)
	}
	if existing.DeletedAt.Valid {
		return false, ErrAccountDeleted
	}
	return false, nil
}

// sendLink stores a fresh token and emails the link. The landing page is
// chosen from role, which the caller resolved once for this request.
func (s *AuthService) sendLink(ctx context.Context, email string, role models.Role) error {
	token, err := randomToken()
	if err != nil {
		return err
	}

	callback := LandingURL(s.BaseURL, role)
	vt := models.VerificationToken{
		Identifier:  email,
		TokenHash:   s.hashToken(token),
		CallbackURL: callback,
		ExpiresAt:   s.now().Add(s.TokenTTL),
	}
	if err := s.DB.WithContext(ctx).Create(&vt).Error; err != nil {
		return fmt.Errorf("store verification token: %w", err)
	}

	link, err := s.magicLinkURL(email, token, callback)
	if err != nil {
		return err
	}
	if err := s.Email.SendMagicLink(ctx, email, link, s.TokenTTL); err != nil {
		if delErr := s.DB.WithContext(ctx).Delete(&vt).Error; delErr != nil {
			s.Log.Warn("unsent verification token not removed", zap.Uint("token_id", vt.ID), zap.Error(delErr))
		}
		return err
	}
	return nil
}

func (s *AuthService) magicLinkURL(email, token, callback string) (string, error) {
	u, err := url.Parse(s.BaseURL + emailCallbackPath)
	if err != nil {
		return "", fmt.Errorf("magic link url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	q.Set("email", email)
	q.Set("callbackUrl", callback)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (s *AuthService) hashToken(token string) string {
	sum := sha256.Sum256([]byte(token + s.secret))
	return hex.EncodeToString(sum[:])
}

func (s *AuthService) claimSendSlot(ctx context.Context, email string) error {
	if s.Throttle == nil {
		return nil
	}
	ok, err := s.Throttle.Allow(ctx, email)
	if err != nil {
		// Redis trouble should not lock users out.
		s.Log.Warn("magic link throttle unavailable", zap.Error(err))
		return nil
	}
	if !ok {
		return ErrTooManyRequests
	}
	return nil
}

func (s *AuthService) releaseSendSlot(ctx context.Context, email string) {
	if s.Throttle == nil {
		return
	}
	if err := s.Throttle.Release(ctx, email); err != nil {
		s.Log.Warn("magic link throttle release failed", zap.Error(err))
	}
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("random token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
