package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/justsurfingit/studylink/internal/models"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func (m *fakeMailer) last() Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[len(m.sent)-1]
}

type fakeThrottle struct {
	claimed  map[string]bool
	released []string
	err      error
}

func newFakeThrottle() *fakeThrottle {
	return &fakeThrottle{claimed: map[string]bool{}}
}

func (f *fakeThrottle) Allow(_ context.Context, key string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.claimed[key] {
		return false, nil
	}
	f.claimed[key] = true
	return true, nil
}

func (f *fakeThrottle) Release(_ context.Context, key string) error {
	delete(f.claimed, key)
	f.released = append(f.released, key)
	return nil
}

var errMailDown = errors.New("smtp down")

func strPtr(s string) *string { return &s }

func seedUser(t *testing.T, db *gorm.DB, email string, role models.Role) models.User {
	t.Helper()
	u := models.User{Email: email, Type: role}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func seedSchool(t *testing.T, db *gorm.DB, domain, name string) models.School {
	t.Helper()
	d := models.AuthorizedSchoolDomain{Domain: domain}
	require.NoError(t, db.Create(&d).Error)
	s := models.School{Name: name, DomainID: d.ID, IsActive: true}
	require.NoError(t, db.Create(&s).Error)
	return s
}

func seedSchoolOwner(t *testing.T, db *gorm.DB, email string, school models.School) models.User {
	t.Helper()
	u := seedUser(t, db, email, models.RoleAdmin)
	require.NoError(t, db.Create(&models.SchoolOwner{UserID: u.ID, SchoolID: school.ID}).Error)
	return u
}

func seedStudent(t *testing.T, db *gorm.DB, email string, schoolID *uint) (models.User, models.Student) {
	t.Helper()
	u := seedUser(t, db, email, models.RoleStudent)
	s := models.Student{UserID: u.ID, SchoolID: schoolID}
	require.NoError(t, db.Create(&s).Error)
	return u, s
}

func seedCompany(t *testing.T, db *gorm.DB, name string) models.Company {
	t.Helper()
	c := models.Company{Name: name}
	require.NoError(t, db.Create(&c).Error)
	return c
}

func seedCompanyOwner(t *testing.T, db *gorm.DB, email string, company models.Company) models.User {
	t.Helper()
	u := seedUser(t, db, email, models.RoleCompanyOwner)
	require.NoError(t, db.Create(&models.CompanyOwner{UserID: u.ID, CompanyID: &company.ID}).Error)
	return u
}

func seedJob(t *testing.T, db *gorm.DB, company models.Company, name, skills string) models.Job {
	t.Helper()
	j := models.Job{CompanyID: company.ID, Name: name, Skills: skills}
	require.NoError(t, db.Create(&j).Error)
	return j
}

func nopLog() *zap.Logger { return zap.NewNop() }
