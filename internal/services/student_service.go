package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/justsurfingit/studylink/internal/models"
	"gorm.io/gorm"
)

type StudentService struct {
	DB *gorm.DB
}

func NewStudentService(db *gorm.DB) *StudentService {
	return &StudentService{DB: db}
}

func (s *StudentService) Get(ctx context.Context, id uint) (*models.Student, error) {
	var student models.Student
	err := s.DB.WithContext(ctx).Joins("User").Preload("School").First(&student, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}
	return &student, nil
}

// ByUserID returns the student profile of a user, or ErrNoStudentProfile
// for users that have none yet.
func (s *StudentService) ByUserID(ctx context.Context, userID uint) (*models.Student, error) {
	var student models.Student
	err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&student).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoStudentProfile
	}
	if err != nil {
		return nil, fmt.Errorf("student by user: %w", err)
	}
	return &student, nil
}
