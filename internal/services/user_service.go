package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/justsurfingit/studylink/internal/dtos"
	"github.com/justsurfingit/studylink/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type UserService struct {
	DB  *gorm.DB
	Log *zap.Logger
}

func NewUserService(db *gorm.DB, log *zap.Logger) *UserService {
	return &UserService{DB: db, Log: log}
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).
		Preload("Student").
		Preload("SchoolOwner").
		Preload("CompanyOwner").
		Preload("Admin").
		First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

func (s *UserService) List(ctx context.Context, page, pageSize int) (*dtos.Page[models.User], error) {
	page, pageSize = normalizePage(page, pageSize)

	var (
		users []models.User
		total int64
	)
	if err := s.DB.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	if err := s.DB.WithContext(ctx).Order("id").Offset((page - 1) * pageSize).Limit(pageSize).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return &dtos.Page[models.User]{Items: users, Total: total, Page: page, PageSize: pageSize}, nil
}

func (s *UserService) Update(ctx context.Context, id uint, req *dtos.UserUpdateRequest) (*models.User, error) {
	updates := map[string]any{}
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}
	if len(updates) > 0 {
		res := s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, fmt.Errorf("update user: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}
	return s.Get(ctx, id)
}

// Delete removes a user in one transaction: the student's recommendations
// and job requests, every satellite profile and pending sign-in tokens are
// hard-deleted, then the user row is soft-deleted. Nothing is kept on failure.
func (s *UserService) Delete(ctx context.Context, id uint) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var student models.Student
		err := tx.Where("user_id = ?", id).First(&student).Error
		switch {
		case err == nil:
			if err := deleteStudentData(tx, &student); err != nil {
				return err
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		for _, satellite := range []any{&models.SchoolOwner{}, &models.CompanyOwner{}, &models.Admin{}} {
			if err := tx.Where("user_id = ?", id).Delete(satellite).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("identifier = ?", user.Email).Delete(&models.VerificationToken{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if errors.Is(err, ErrNotFound) {
		return err
	}
	if err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}

	s.Log.Info("user deleted", zap.Uint("user_id", id))
	return nil
}

func deleteStudentData(tx *gorm.DB, student *models.Student) error {
	// the back-reference goes first so no row points at a deleted recommendation
	if err := tx.Model(&models.Student{}).Where("id = ?", student.ID).
		Update("primary_recommendation_id", nil).Error; err != nil {
		return err
	}

	recs := tx.Where("student_id = ?", student.ID)
	if student.PrimaryRecommendationID != nil {
		recs = recs.Or("id = ?", *student.PrimaryRecommendationID)
	}
	if err := recs.Delete(&models.Recommendation{}).Error; err != nil {
		return err
	}

	if err := tx.Unscoped().Where("student_id = ?", student.ID).Delete(&models.JobRequest{}).Error; err != nil {
		return err
	}
	return tx.Delete(student).Error
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
