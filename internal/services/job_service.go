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

type JobService struct {
	DB *gorm.DB
}

func NewJobService(db *gorm.DB) *JobService {
	return &JobService{
		DB: db,
	}
}

func (s *JobService) CreateJob(ctx context.Context, req *dtos.JobCreationRequest) (*models.Job, error) {
	// the job has to hang off a live company
	var company models.Company
	err := s.DB.WithContext(ctx).First(&company, req.CompanyID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	job := &models.Job{
		CompanyID:   company.ID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Skills:      joinSkills(req.Skills),
		Location:    req.Location,
	}
	if job.Name == "" {
		return nil, &ValidationError{Msg: "l'intitulé du poste est requis"}
	}
	if err := s.DB.WithContext(ctx).Create(job).Error; err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	job.Company = &company
	return job, nil
}

// List returns live jobs, newest first. The skill filter matches a whole
// entry of the skill list, case-insensitively.
func (s *JobService) List(ctx context.Context, filter dtos.JobFilter) ([]models.Job, error) {
	q := s.DB.WithContext(ctx).Preload("Company").Order("created_at DESC, id DESC")
	skill := strings.TrimSpace(filter.Skill)
	if skill != "" {
		// narrows the scan; the exact match is done below
		q = q.Where("LOWER(skills) LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(skill))+"%")
	}
	if filter.CompanyID != 0 {
		q = q.Where("company_id = ?", filter.CompanyID)
	}

	var jobs []models.Job
	if err := q.Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	if skill == "" {
		return jobs, nil
	}

	matched := jobs[:0]
	for _, job := range jobs {
		if hasSkill(job, skill) {
			matched = append(matched, job)
		}
	}
	return matched, nil
}

func hasSkill(job models.Job, skill string) bool {
	for _, s := range job.SkillList() {
		if strings.EqualFold(s, skill) {
			return true
		}
	}
	return false
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (s *JobService) Get(ctx context.Context, id uint) (*models.Job, error) {
	var job models.Job
	err := s.DB.WithContext(ctx).Preload("Company").First(&job, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &job, nil
}

func (s *JobService) Update(ctx context.Context, id uint, req *dtos.JobUpdateRequest) (*models.Job, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, &ValidationError{Msg: "l'intitulé du poste est requis"}
		}
		updates["name"] = name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Skills != nil {
		updates["skills"] = joinSkills(req.Skills)
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if len(updates) > 0 {
		if err := s.DB.WithContext(ctx).Model(&models.Job{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update job: %w", err)
		}
	}
	return s.Get(ctx, id)
}

func (s *JobService) Delete(ctx context.Context, id uint) error {
	res := s.DB.WithContext(ctx).Delete(&models.Job{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func joinSkills(skills []string) string {
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, ", ")
}
