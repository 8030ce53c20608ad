package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/justsurfingit/studylink/internal/dtos"
	"github.com/justsurfingit/studylink/internal/models"
	"gorm.io/gorm"
)

type RecommendationService struct {
	DB *gorm.DB
}

func NewRecommendationService(db *gorm.DB) *RecommendationService {
	return &RecommendationService{DB: db}
}

func (s *RecommendationService) Create(ctx context.Context, req *dtos.RecommendationRequest) (*models.Recommendation, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, &ValidationError{Msg: "le contenu de la recommandation est requis"}
	}

	rec := models.Recommendation{StudentID: req.StudentID, CompanyID: req.CompanyID, Content: content}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := mustExist(tx, &models.Student{}, req.StudentID); err != nil {
			return err
		}
		if err := mustExist(tx, &models.Company{}, req.CompanyID); err != nil {
			return err
		}
		return tx.Create(&rec).Error
	})
	if errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("create recommendation: %w", err)
	}
	return &rec, nil
}

func (s *RecommendationService) Get(ctx context.Context, id uint) (*models.Recommendation, error) {
	var rec models.Recommendation
	err := s.DB.WithContext(ctx).Preload("Company").First(&rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get recommendation: %w", err)
	}
	return &rec, nil
}

func (s *RecommendationService) ListForStudent(ctx context.Context, studentID uint) ([]models.Recommendation, error) {
	var recs []models.Recommendation
	err := s.DB.WithContext(ctx).
		Preload("Company").
		Where("student_id = ?", studentID).
		Order("created_at DESC, id DESC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}
	return recs, nil
}

// Delete removes a recommendation and clears it where it was the primary one.
func (s *RecommendationService) Delete(ctx context.Context, id uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Student{}).
			Where("primary_recommendation_id = ?", id).
			Update("primary_recommendation_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Recommendation{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// SetPrimary highlights one of the student's own recommendations, or clears
// the highlight when recID is nil.
func (s *RecommendationService) SetPrimary(ctx context.Context, studentID uint, recID *uint) (*models.Student, error) {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := mustExist(tx, &models.Student{}, studentID); err != nil {
			return err
		}
		if recID != nil {
			var count int64
			if err := tx.Model(&models.Recommendation{}).
				Where("id = ? AND student_id = ?", *recID, studentID).
				Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ErrNotFound
			}
		}
		return tx.Model(&models.Student{}).Where("id = ?", studentID).
			Update("primary_recommendation_id", recID).Error
	})
	if errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("set primary recommendation: %w", err)
	}

	var student models.Student
	if err := s.DB.WithContext(ctx).First(&student, studentID).Error; err != nil {
		return nil, fmt.Errorf("set primary recommendation: %w", err)
	}
	return &student, nil
}

func mustExist(tx *gorm.DB, model any, id uint) error {
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}
