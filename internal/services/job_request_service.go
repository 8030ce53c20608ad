package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/justsurfingit/studylink/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// JobRequestService handles student applications to jobs.
type JobRequestService struct {
	DB  *gorm.DB
	Log *zap.Logger
}

func NewJobRequestService(db *gorm.DB, log *zap.Logger) *JobRequestService {
	return &JobRequestService{DB: db, Log: log}
}

// Apply files a pending request for the student. A second application to the
// same job is refused; a withdrawn one is reopened.
func (s *JobRequestService) Apply(ctx context.Context, studentID, jobID uint) (*models.JobRequest, error) {
	var job models.Job
	err := s.DB.WithContext(ctx).First(&job, jobID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("apply: %w", err)
	}

	req := models.JobRequest{StudentID: studentID, JobID: jobID, Status: models.JobRequestPending}
	res := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "student_id"}, {Name: "job_id"}},
		DoNothing: true,
	}).Create(&req)
	if res.Error != nil {
		return nil, fmt.Errorf("apply: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		s.Log.Info("job request created", zap.Uint("student_id", studentID), zap.Uint("job_id", jobID))
		return &req, nil
	}

	var existing models.JobRequest
	if err := s.DB.WithContext(ctx).Unscoped().
		Where("student_id = ? AND job_id = ?", studentID, jobID).
		First(&existing).Error; err != nil {
		return nil, fmt.Errorf("apply lookup: %w", err)
	}
	if !existing.DeletedAt.Valid {
		return nil, ErrAlreadyApplied
	}

	revived := s.DB.WithContext(ctx).Unscoped().Model(&models.JobRequest{}).
		Where("id = ? AND deleted_at IS NOT NULL", existing.ID).
		Updates(map[string]any{"deleted_at": nil, "status": models.JobRequestPending})
	if revived.Error != nil {
		return nil, fmt.Errorf("apply revive: %w", revived.Error)
	}
	if revived.RowsAffected == 0 {
		return nil, ErrAlreadyApplied
	}
	return s.Get(ctx, existing.ID)
}

func (s *JobRequestService) Get(ctx context.Context, id uint) (*models.JobRequest, error) {
	var req models.JobRequest
	err := s.DB.WithContext(ctx).Preload("Job.Company").First(&req, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job request: %w", err)
	}
	return &req, nil
}

func (s *JobRequestService) ListForStudent(ctx context.Context, studentID uint) ([]models.JobRequest, error) {
	var reqs []models.JobRequest
	err := s.DB.WithContext(ctx).
		Preload("Job.Company").
		Where("student_id = ?", studentID).
		Order("created_at DESC, id DESC").
		Find(&reqs).Error
	if err != nil {
		return nil, fmt.Errorf("list student job requests: %w", err)
	}
	return reqs, nil
}

// ListForCompany returns the requests made on any of the company's live jobs.
func (s *JobRequestService) ListForCompany(ctx context.Context, companyID uint) ([]models.JobRequest, error) {
	var reqs []models.JobRequest
	err := s.DB.WithContext(ctx).
		Joins("Job").
		Preload("Student.User").
		Where("\"Job\".company_id = ?", companyID).
		Order("job_requests.created_at DESC, job_requests.id DESC").
		Find(&reqs).Error
	if err != nil {
		return nil, fmt.Errorf("list company job requests: %w", err)
	}
	return reqs, nil
}

func (s *JobRequestService) UpdateStatus(ctx context.Context, id uint, status models.JobRequestStatus) (*models.JobRequest, error) {
	switch status {
	case models.JobRequestPending, models.JobRequestAccepted, models.JobRequestRejected:
	default:
		return nil, &ValidationError{Msg: "statut de candidature invalide"}
	}

	res := s.DB.WithContext(ctx).Model(&models.JobRequest{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return nil, fmt.Errorf("update job request: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, id)
}

// Withdraw soft-deletes the request so that the student may apply again later.
func (s *JobRequestService) Withdraw(ctx context.Context, id uint) error {
	res := s.DB.WithContext(ctx).Delete(&models.JobRequest{}, id)
	if res.Error != nil {
		return fmt.Errorf("withdraw job request: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
