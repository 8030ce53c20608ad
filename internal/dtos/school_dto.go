package dtos

import "github.com/justsurfingit/studylink/internal/models"

type DomainCheckRequest struct {
	Domain string `json:"domain"`
}

type ValidateAndCreateResponse struct {
	Success bool                           `json:"success"`
	Domain  *models.AuthorizedSchoolDomain `json:"domain"`
	Message string                         `json:"message"`
}

type SchoolInput struct {
	Name string  `json:"name" binding:"required"`
	Logo *string `json:"logo"`
}

type OwnerInput struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
}

type CreateSchoolWithDomainRequest struct {
	Domain string      `json:"domain" binding:"required"`
	School SchoolInput `json:"school" binding:"required"`
	Owner  OwnerInput  `json:"owner" binding:"required"`
}

type CreateSchoolWithDomainResponse struct {
	School *models.School                 `json:"school"`
	Domain *models.AuthorizedSchoolDomain `json:"domain"`
}

type UpdateSchoolRequest struct {
	Name     *string `json:"name"`
	Logo     *string `json:"logo"`
	IsActive *bool   `json:"isActive"`
}
