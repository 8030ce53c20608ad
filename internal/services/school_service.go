package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/justsurfingit/studylink/internal/dtos"
	"github.com/justsurfingit/studylink/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type SchoolService struct {
	DB  *gorm.DB
	Log *zap.Logger
}

func NewSchoolService(db *gorm.DB, log *zap.Logger) *SchoolService {
	return &SchoolService{DB: db, Log: log}
}

// CreateWithDomain provisions a school tenant in one transaction: the domain,
// the school, and its owner as a user with Admin and SchoolOwner profiles.
func (s *SchoolService) CreateWithDomain(ctx context.Context, req *dtos.CreateSchoolWithDomainRequest) (*models.School, *models.AuthorizedSchoolDomain, error) {
	domainName := NormalizeDomain(req.Domain)
	if domainName == "" || strings.ContainsAny(domainName, "@ /") {
		return nil, nil, ErrInvalidDomain
	}
	ownerEmail, err := ValidateEmail(req.Owner.Email)
	if err != nil {
		return nil, nil, err
	}
	schoolName := strings.TrimSpace(req.School.Name)
	if schoolName == "" {
		return nil, nil, &ValidationError{Msg: "le nom de l'école est requis"}
	}

	var (
		school models.School
		domain models.AuthorizedSchoolDomain
	)
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.AuthorizedSchoolDomain{}).Where("domain = ?", domainName).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDomainExists
		}
		if err := tx.Unscoped().Model(&models.User{}).Where("email = ?", ownerEmail).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrUserExists
		}

		// The unique indexes still catch a concurrent request that passed the checks above.
		domain = models.AuthorizedSchoolDomain{Domain: domainName}
		if err := tx.Create(&domain).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDomainExists
			}
			return err
		}

		school = models.School{Name: schoolName, Logo: req.School.Logo, DomainID: domain.ID, IsActive: true}
		if err := tx.Create(&school).Error; err != nil {
			return err
		}

		firstName, lastName := strings.TrimSpace(req.Owner.FirstName), strings.TrimSpace(req.Owner.LastName)
		owner := models.User{
			Email:            ownerEmail,
			FirstName:        &firstName,
			LastName:         &lastName,
			Type:             models.RoleAdmin,
			ProfileCompleted: true,
		}
		if err := tx.Create(&owner).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrUserExists
			}
			return err
		}
		if err := tx.Create(&models.Admin{UserID: owner.ID}).Error; err != nil {
			return err
		}
		return tx.Create(&models.SchoolOwner{UserID: owner.ID, SchoolID: school.ID}).Error
	})
	if err != nil {
		if errors.Is(err, ErrDomainExists) || errors.Is(err, ErrUserExists) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("create school with domain: %w", err)
	}

	s.Log.Info("school created",
		zap.Uint("school_id", school.ID),
		zap.String("domain", domain.Domain),
		zap.String("owner", ownerEmail),
	)
	return &school, &domain, nil
}

func (s *SchoolService) List(ctx context.Context) ([]models.School, error) {
	var schools []models.School
	if err := s.DB.WithContext(ctx).Preload("Domain").Order("name").Find(&schools).Error; err != nil {
		return nil, fmt.Errorf("list schools: %w", err)
	}
	return schools, nil
}

func (s *SchoolService) Get(ctx context.Context, id uint) (*models.School, error) {
	var school models.School
	err := s.DB.WithContext(ctx).Preload("Domain").First(&school, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get school: %w", err)
	}
	return &school, nil
}

func (s *SchoolService) Update(ctx context.Context, id uint, req *dtos.UpdateSchoolRequest) (*models.School, error) {
	school, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, &ValidationError{Msg: "le nom de l'école est requis"}
		}
		updates["name"] = name
	}
	if req.Logo != nil {
		updates["logo"] = *req.Logo
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) > 0 {
		if err := s.DB.WithContext(ctx).Model(school).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update school: %w", err)
		}
	}
	return s.Get(ctx, id)
}

// Delete soft-deletes the school. Students keep their school reference.
func (s *SchoolService) Delete(ctx context.Context, id uint) error {
	res := s.DB.WithContext(ctx).Delete(&models.School{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete school: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Students lists the school's students with their user.
func (s *SchoolService) Students(ctx context.Context, schoolID uint) ([]models.Student, error) {
	if _, err := s.Get(ctx, schoolID); err != nil {
		return nil, err
	}

	var students []models.Student
	err := s.DB.WithContext(ctx).
		Joins("User").
		Where("students.school_id = ?", schoolID).
		Order("students.id").
		Find(&students).Error
	if err != nil {
		return nil, fmt.Errorf("list school students: %w", err)
	}
	return students, nil
}

// OwnedBy reports whether userID is an owner of schoolID.
func (s *SchoolService) OwnedBy(ctx context.Context, schoolID, userID uint) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.SchoolOwner{}).
		Where("school_id = ? AND user_id = ?", schoolID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("school ownership: %w", err)
	}
	return count > 0, nil
}
