package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/justsurfingit/studylink/internal/dtos"
	"github.com/justsurfingit/studylink/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileService backs profile completion: it lazily creates the satellite
// row matching the user's type the first time the profile is opened.
type ProfileService struct {
	DB      *gorm.DB
	Roles   *RoleService
	Domains *DomainService
	Log     *zap.Logger
}

func NewProfileService(db *gorm.DB, roles *RoleService, domains *DomainService, log *zap.Logger) *ProfileService {
	return &ProfileService{DB: db, Roles: roles, Domains: domains, Log: log}
}

func (s *ProfileService) Load(ctx context.Context, userID uint) (*dtos.ProfileResponse, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	switch user.Type {
	case models.RoleStudent:
		if user.Student == nil {
			if err := s.createStudent(ctx, user); err != nil {
				return nil, err
			}
		}
	case models.RoleCompanyOwner:
		if user.CompanyOwner == nil {
			if err := s.createCompanyOwner(ctx, user); err != nil {
				return nil, err
			}
		}
	}

	// reload so that lazily created rows are included
	user, err = s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	resolution, err := s.Roles.ResolveRole(ctx, user.Email)
	if err != nil {
		return nil, err
	}
	if resolution.Role != models.RoleUnregistered {
		user.Type = resolution.Role
	}

	return &dtos.ProfileResponse{
		User:             *user,
		Role:             resolution.Role,
		Affiliated:       user.Student != nil || user.SchoolOwner != nil || user.CompanyOwner != nil || user.Admin != nil,
		ProfileCompleted: user.ProfileCompleted,
	}, nil
}

// SelectType records the choice made on the profile selection page. Only an
// unaffiliated user may choose, and only between student and company owner.
func (s *ProfileService) SelectType(ctx context.Context, userID uint, role models.Role) (*dtos.ProfileResponse, error) {
	if role != models.RoleStudent && role != models.RoleCompanyOwner {
		return nil, &ValidationError{Msg: "type de profil invalide"}
	}
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Student != nil || user.SchoolOwner != nil || user.CompanyOwner != nil || user.Admin != nil {
		return nil, ErrForbidden
	}
	if err := s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("type", role).Error; err != nil {
		return nil, fmt.Errorf("select profile type: %w", err)
	}
	return s.Load(ctx, userID)
}

// Complete stores the profile form and marks the profile completed.
func (s *ProfileService) Complete(ctx context.Context, userID uint, req *dtos.ProfileUpdateRequest) (*dtos.ProfileResponse, error) {
	if _, err := s.Load(ctx, userID); err != nil {
		return nil, err
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]any{
			"first_name":        req.FirstName,
			"last_name":         req.LastName,
			"profile_completed": true,
		}).Error; err != nil {
			return err
		}

		studentFields := map[string]any{}
		if req.Description != nil {
			studentFields["description"] = *req.Description
		}
		if req.Skills != nil {
			studentFields["skills"] = *req.Skills
		}
		if req.CVURL != nil {
			studentFields["cv_url"] = *req.CVURL
		}
		if len(studentFields) > 0 {
			if err := tx.Model(&models.Student{}).Where("user_id = ?", userID).Updates(studentFields).Error; err != nil {
				return err
			}
		}

		companyFields := map[string]any{}
		if req.CompanyName != nil && *req.CompanyName != "" {
			companyFields["name"] = *req.CompanyName
		}
		if req.CompanyDescription != nil {
			companyFields["description"] = *req.CompanyDescription
		}
		if req.CompanyLocation != nil {
			companyFields["location"] = *req.CompanyLocation
		}
		if req.CompanyLogo != nil {
			companyFields["logo"] = *req.CompanyLogo
		}
		if len(companyFields) > 0 {
			var owner models.CompanyOwner
			err := tx.Where("user_id = ?", userID).First(&owner).Error
			if err == nil && owner.CompanyID != nil {
				return tx.Model(&models.Company{}).Where("id = ?", *owner.CompanyID).Updates(companyFields).Error
			}
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("complete profile: %w", err)
	}
	return s.Load(ctx, userID)
}

func (s *ProfileService) loadUser(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).
		Preload("Student.School").
		Preload("SchoolOwner.School").
		Preload("CompanyOwner.Company").
		Preload("Admin").
		First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return &user, nil
}

// createStudent attaches the student to the school registered for their
// email domain, when there is one.
func (s *ProfileService) createStudent(ctx context.Context, user *models.User) error {
	student := models.Student{UserID: user.ID}
	if domain, err := DomainFromEmail(user.Email); err == nil {
		match, err := s.Domains.CheckDomain(ctx, domain)
		switch {
		case err == nil:
			student.SchoolID = &match.SchoolID
		case !errors.Is(err, ErrNotFound):
			return err
		}
	}

	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&student).Error
	if err != nil {
		return fmt.Errorf("create student profile: %w", err)
	}
	s.Log.Info("student profile created", zap.Uint("user_id", user.ID))
	return nil
}

func (s *ProfileService) createCompanyOwner(ctx context.Context, user *models.User) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// named later through the profile form
		company := models.Company{}
		if err := tx.Create(&company).Error; err != nil {
			return err
		}
		owner := models.CompanyOwner{UserID: user.ID, CompanyID: &company.ID}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).Create(&owner)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// lost a race; drop the orphan company
			return tx.Unscoped().Delete(&company).Error
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("create company profile: %w", err)
	}
	s.Log.Info("company profile created", zap.Uint("user_id", user.ID))
	return nil
}
