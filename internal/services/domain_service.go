package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/justsurfingit/studylink/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DomainService is the registry of email domains authorized for schools.
type DomainService struct {
	DB  *gorm.DB
	Log *zap.Logger
}

func NewDomainService(db *gorm.DB, log *zap.Logger) *DomainService {
	return &DomainService{DB: db, Log: log}
}

// SchoolMatch is what a registered domain resolves to.
type SchoolMatch struct {
	SchoolID   uint   `json:"schoolId"`
	SchoolName string `json:"schoolName"`
}

// NormalizeDomain lowercases and trims a domain.
func NormalizeDomain(domain string) string {
	return strings.ToLower(strings.TrimSpace(domain))
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DomainFromEmail returns the lowercased part after the last '@'.
// "Jane <jane@school.fr>" and "jane@school.fr" both give "school.fr".
func DomainFromEmail(raw string) (string, error) {
	addr := strings.TrimSpace(raw)
	if parsed, err := mail.ParseAddress(addr); err == nil {
		addr = parsed.Address
	}

	at := strings.LastIndex(addr, "@")
	if at < 0 {
		return "", ErrInvalidEmail
	}
	domain := NormalizeDomain(addr[at+1:])
	if domain == "" || strings.ContainsAny(domain, " <>") {
		return "", ErrInvalidEmail
	}
	return domain, nil
}

// DefaultSchoolName derives a school name from a domain's first label:
// "newschool.fr" -> "NEWSCHOOL".
func DefaultSchoolName(domain string) string {
	label, _, _ := strings.Cut(domain, ".")
	return strings.ToUpper(label)
}

// CheckDomain returns the first school owned by domain.
func (s *DomainService) CheckDomain(ctx context.Context, domain string) (*SchoolMatch, error) {
	domain = NormalizeDomain(domain)
	if domain == "" {
		return nil, ErrInvalidDomain
	}

	var d models.AuthorizedSchoolDomain
	err := s.DB.WithContext(ctx).Where("LOWER(domain) = ?", domain).First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("checkDomain lookup: %w", err)
	}

	var school models.School
	err = s.DB.WithContext(ctx).Where("domain_id = ?", d.ID).Order("id").First(&school).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("checkDomain school: %w", err)
	}

	return &SchoolMatch{SchoolID: school.ID, SchoolName: school.Name}, nil
}

// ValidateAndCreate registers the domain of email if it is unknown, together
// with a default school. It reports whether anything was created.
//
// The insert uses ON CONFLICT DO NOTHING so that concurrent sign-ups from a
// new domain create exactly one domain row and one school: only the caller
// whose insert landed provisions the school.
func (s *DomainService) ValidateAndCreate(ctx context.Context, email string) (*models.AuthorizedSchoolDomain, bool, error) {
	domain, err := DomainFromEmail(email)
	if err != nil {
		return nil, false, err
	}

	var (
		out     models.AuthorizedSchoolDomain
		created bool
	)
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := models.AuthorizedSchoolDomain{Domain: domain}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "domain"}},
			DoNothing: true,
		}).Create(&row)
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			return tx.Where("domain = ?", domain).First(&out).Error
		}

		created = true
		school := models.School{Name: DefaultSchoolName(domain), DomainID: row.ID, IsActive: true}
		if err := tx.Create(&school).Error; err != nil {
			return err
		}
		row.Schools = []models.School{school}
		out = row
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("validateAndCreate: %w", err)
	}

	if created {
		s.Log.Info("school domain provisioned", zap.String("domain", domain))
	}
	return &out, created, nil
}
