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
	"gorm.io/gorm/clause"
)

type CompanyService struct {
	DB  *gorm.DB
	Log *zap.Logger
}

func NewCompanyService(db *gorm.DB, log *zap.Logger) *CompanyService {
	return &CompanyService{DB: db, Log: log}
}

func (s *CompanyService) List(ctx context.Context) ([]models.Company, error) {
	var companies []models.Company
	if err := s.DB.WithContext(ctx).Order("name").Find(&companies).Error; err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return companies, nil
}

func (s *CompanyService) Get(ctx context.Context, id uint) (*models.Company, error) {
	var company models.Company
	err := s.DB.WithContext(ctx).Preload("Jobs").First(&company, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get company: %w", err)
	}
	return &company, nil
}

// Create adds a company. When ownerID is set the user becomes its owner; a
// user who already owns a company gets ErrAlreadyOwner and nothing is created.
func (s *CompanyService) Create(ctx context.Context, req *dtos.CompanyRequest, ownerID *uint) (*models.Company, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, &ValidationError{Msg: "le nom de l'entreprise est requis"}
	}

	company := models.Company{
		Name:        name,
		Description: req.Description,
		Logo:        req.Logo,
		Location:    req.Location,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&company).Error; err != nil {
			return err
		}
		if ownerID == nil {
			return nil
		}
		// attach only when the owner row has no company yet
		res := tx.Model(&models.CompanyOwner{}).
			Where("user_id = ? AND company_id IS NULL", *ownerID).
			Update("company_id", company.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		res = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).Create(&models.CompanyOwner{UserID: *ownerID, CompanyID: &company.ID})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyOwner
		}
		return nil
	})
	if errors.Is(err, ErrAlreadyOwner) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("create company: %w", err)
	}
	return &company, nil
}

func (s *CompanyService) Update(ctx context.Context, id uint, req *dtos.CompanyUpdateRequest) (*models.Company, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, &ValidationError{Msg: "le nom de l'entreprise est requis"}
		}
		updates["name"] = name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Logo != nil {
		updates["logo"] = *req.Logo
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if len(updates) > 0 {
		if err := s.DB.WithContext(ctx).Model(&models.Company{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update company: %w", err)
		}
	}
	return s.Get(ctx, id)
}

// Delete soft-deletes the company and its jobs.
func (s *CompanyService) Delete(ctx context.Context, id uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Company{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete company: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("company_id = ?", id).Delete(&models.Job{}).Error
	})
}

// OwnedBy reports whether userID owns companyID.
func (s *CompanyService) OwnedBy(ctx context.Context, companyID, userID uint) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.CompanyOwner{}).
		Where("company_id = ? AND user_id = ?", companyID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("company ownership: %w", err)
	}
	return count > 0, nil
}
