package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Role is both the User.Type tag and the outcome of role resolution.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleSchoolOwner  Role = "school_owner"
	RoleCompanyOwner Role = "company_owner"
	RoleStudent      Role = "student"
	// RoleUnregistered is never stored; it is what the resolver returns for
	// unknown emails and users without a satellite profile.
	RoleUnregistered Role = "unregistered"
)

type JobRequestStatus string

const (
	JobRequestPending  JobRequestStatus = "PENDING"
	JobRequestAccepted JobRequestStatus = "ACCEPTED"
	JobRequestRejected JobRequestStatus = "REJECTED"
)

type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deletedAt,omitempty"`

	Email            string     `gorm:"uniqueIndex;not null" json:"email"`
	FirstName        *string    `json:"firstName"`
	LastName         *string    `json:"lastName"`
	Type             Role       `gorm:"type:varchar(20);not null;default:'student'" json:"type"`
	ProfileCompleted bool       `gorm:"not null;default:false" json:"profileCompleted"`
	EmailVerified    *time.Time `json:"emailVerified,omitempty"`

	// At most one of these is set; enforced by the services, not the schema.
	Student      *Student      `json:"student,omitempty"`
	SchoolOwner  *SchoolOwner  `json:"schoolOwner,omitempty"`
	CompanyOwner *CompanyOwner `json:"companyOwner,omitempty"`
	Admin        *Admin        `json:"admin,omitempty"`
}

type AuthorizedSchoolDomain struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Domain is stored lowercased.
	Domain  string   `gorm:"uniqueIndex;not null" json:"domain"`
	Schools []School `gorm:"foreignKey:DomainID" json:"schools,omitempty"`
}

type School struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name     string                  `gorm:"not null" json:"name"`
	Logo     *string                 `json:"logo"`
	IsActive bool                    `gorm:"not null;default:true" json:"isActive"`
	DomainID uint                    `gorm:"not null;index" json:"domainId"`
	Domain   *AuthorizedSchoolDomain `gorm:"foreignKey:DomainID" json:"domain,omitempty"`
}

type Student struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	UserID   uint    `gorm:"uniqueIndex;not null" json:"userId"`
	User     *User   `json:"user,omitempty"`
	SchoolID *uint   `gorm:"index" json:"schoolId"`
	School   *School `json:"school,omitempty"`

	Description string  `gorm:"type:text" json:"description"`
	Skills      string  `json:"skills"`
	CVURL       *string `gorm:"column:cv_url" json:"cvUrl"`

	// Back-reference to the recommendation the student chose to highlight.
	PrimaryRecommendationID *uint `gorm:"index" json:"primaryRecommendationId"`
}

type SchoolOwner struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	UserID   uint    `gorm:"uniqueIndex;not null" json:"userId"`
	SchoolID uint    `gorm:"not null;index" json:"schoolId"`
	School   *School `json:"school,omitempty"`
}

type CompanyOwner struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	UserID    uint     `gorm:"uniqueIndex;not null" json:"userId"`
	CompanyID *uint    `gorm:"index" json:"companyId"`
	Company   *Company `json:"company,omitempty"`
}

type Admin struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	UserID uint `gorm:"uniqueIndex;not null" json:"userId"`
}

type Company struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name        string  `gorm:"not null" json:"name"`
	Description string  `gorm:"type:text" json:"description"`
	Logo        *string `json:"logo"`
	Location    string  `json:"location"`

	// 'omitempty' prevents loops when fetching Job -> Company -> Jobs
	Jobs []Job `json:"jobs,omitempty"`
}

type Job struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	CompanyID uint     `gorm:"not null;index" json:"companyId"`
	Company   *Company `json:"company,omitempty"`

	Name        string `gorm:"not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	// Skills is free text, comma separated.
	Skills   string `json:"skills"`
	Location string `json:"location"`
}

// SkillList splits Skills on commas, dropping blanks.
func (j Job) SkillList() []string {
	var out []string
	for _, s := range strings.Split(j.Skills, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

type JobRequest struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	StudentID uint             `gorm:"not null;uniqueIndex:idx_job_requests_student_job" json:"studentId"`
	JobID     uint             `gorm:"not null;uniqueIndex:idx_job_requests_student_job" json:"jobId"`
	Status    JobRequestStatus `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`

	Job     *Job     `json:"job,omitempty"`
	Student *Student `json:"student,omitempty"`
}

type Recommendation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	StudentID uint     `gorm:"not null;index" json:"studentId"`
	CompanyID uint     `gorm:"not null;index" json:"companyId"`
	Company   *Company `json:"company,omitempty"`
	Content   string   `gorm:"type:text;not null" json:"content"`
}

// VerificationToken backs a magic link. Only the hash of the token is stored.
type VerificationToken struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time

	Identifier  string    `gorm:"not null;index"`
	TokenHash   string    `gorm:"not null;uniqueIndex"`
	CallbackURL string    `gorm:"not null"`
	ExpiresAt   time.Time `gorm:"not null;index"`
}

// All lists every model in migration order.
func All() []any {
	return []any{
		&User{},
		&AuthorizedSchoolDomain{},
		&School{},
		&Company{},
		&Job{},
		&Student{},
		&SchoolOwner{},
		&CompanyOwner{},
		&Admin{},
		&JobRequest{},
		&Recommendation{},
		&VerificationToken{},
	}
}
