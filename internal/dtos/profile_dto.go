package dtos

import "github.com/justsurfingit/studylink/internal/models"

type ProfileResponse struct {
	User             models.User `json:"user"`
	Role             models.Role `json:"role"`
	Affiliated       bool        `json:"affiliated"`
	ProfileCompleted bool        `json:"profileCompleted"`

	// Set only when the role changed: the replacement session token.
	Token     string `json:"token,omitempty"`
	ExpiresAt string `json:"expiresAt,omitempty"`
}

type ProfileUpdateRequest struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`

	// student fields
	Description *string `json:"description"`
	Skills      *string `json:"skills"`
	CVURL       *string `json:"cvUrl"`

	// company owner fields
	CompanyName        *string `json:"companyName"`
	CompanyDescription *string `json:"companyDescription"`
	CompanyLocation    *string `json:"companyLocation"`
	CompanyLogo        *string `json:"companyLogo"`
}

type CompanyRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Logo        *string `json:"logo"`
	Location    string  `json:"location"`
}

type CompanyUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Logo        *string `json:"logo"`
	Location    *string `json:"location"`
}

type RecommendationRequest struct {
	StudentID uint   `json:"studentId" binding:"required"`
	CompanyID uint   `json:"companyId" binding:"required"`
	Content   string `json:"content" binding:"required"`
}

// PrimaryRecommendationRequest sets, or clears with null, the highlighted recommendation.
type PrimaryRecommendationRequest struct {
	RecommendationID *uint `json:"recommendationId"`
}

type UserUpdateRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}

type Page[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
}

type ProfileSelectRequest struct {
	Type models.Role `json:"type" binding:"required,oneof=student company_owner"`
}
