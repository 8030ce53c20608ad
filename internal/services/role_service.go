package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/justsurfingit/studylink/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RoleService decides what a user is from the satellite profiles attached to it.
type RoleService struct {
	DB  *gorm.DB
	Log *zap.Logger
}

func NewRoleService(db *gorm.DB, log *zap.Logger) *RoleService {
	return &RoleService{DB: db, Log: log}
}

// Resolution is the outcome of ResolveRole. UserID is nil when no user exists.
type Resolution struct {
	Role   models.Role `json:"role"`
	UserID *uint       `json:"userId,omitempty"`
}

// satellite probe order; the first hit wins.
var roleProbes = []struct {
	role  models.Role
	model any
}{
	{models.RoleSchoolOwner, &models.SchoolOwner{}},
	{models.RoleCompanyOwner, &models.CompanyOwner{}},
	{models.RoleStudent, &models.Student{}},
	{models.RoleAdmin, &models.Admin{}},
}

// IsSchoolOwner reports whether a live user with this email owns a SchoolOwner row.
func (s *RoleService) IsSchoolOwner(ctx context.Context, email string) (bool, error) {
	user, err := s.findUser(ctx, email)
	if err != nil || user == nil {
		return false, err
	}

	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.SchoolOwner{}).
		Where("user_id = ?", user.ID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("isSchoolOwner: %w", err)
	}
	return count > 0, nil
}

// ResolveRole probes SchoolOwner, CompanyOwner, Student then Admin.
// When the stored user type disagrees with the resolved role it is corrected
// best-effort; a failed correction is logged and does not fail the call.
func (s *RoleService) ResolveRole(ctx context.Context, email string) (*Resolution, error) {
	user, err := s.findUser(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return &Resolution{Role: models.RoleUnregistered}, nil
	}

	res := &Resolution{Role: models.RoleUnregistered, UserID: &user.ID}
	for _, probe := range roleProbes {
		var count int64
		if err := s.DB.WithContext(ctx).Model(probe.model).
			Where("user_id = ?", user.ID).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("resolveRole %s: %w", probe.role, err)
		}
		if count > 0 {
			res.Role = probe.role
			break
		}
	}

	if res.Role != models.RoleUnregistered && user.Type != res.Role {
		err := s.DB.WithContext(ctx).Model(&models.User{}).
			Where("id = ?", user.ID).Update("type", res.Role).Error
		if err != nil {
			s.Log.Warn("user type correction failed",
				zap.Uint("user_id", user.ID),
				zap.String("stored", string(user.Type)),
				zap.String("resolved", string(res.Role)),
				zap.Error(err),
			)
		} else {
			s.Log.Info("user type corrected",
				zap.Uint("user_id", user.ID),
				zap.String("from", string(user.Type)),
				zap.String("to", string(res.Role)),
			)
		}
	}
	return res, nil
}

func (s *RoleService) findUser(ctx context.Context, email string) (*models.User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, nil
	}
	var user models.User
	err := s.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}
