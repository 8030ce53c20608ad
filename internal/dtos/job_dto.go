package dtos

import "github.com/justsurfingit/studylink/internal/models"

type JobExtractionRequest struct {
	RawText string `json:"rawText" binding:"required"`
	URL     string `json:"url"`
}

// ExtractedJob is what the model pulls out of a posting. Missing values stay empty.
type ExtractedJob struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Skills      []string `json:"skills"`
	Location    string   `json:"location"`
}

type JobCreationRequest struct {
	CompanyID   uint   `json:"companyId" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description" binding:"required"`

	// Optional Fields
	Skills   []string `json:"skills"`
	Location string   `json:"location"`
}

type JobUpdateRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Skills      []string `json:"skills"`
	Location    *string  `json:"location"`
}

type JobFilter struct {
	Skill     string `form:"skill"`
	CompanyID uint   `form:"companyId"`
}

type JobRequestCreate struct {
	JobID uint `json:"jobId" binding:"required"`
}

type JobRequestStatusUpdate struct {
	Status models.JobRequestStatus `json:"status" binding:"required,oneof=PENDING ACCEPTED REJECTED"`
}
