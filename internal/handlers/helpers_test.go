package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/studylink/internal/auth"
	"github.com/justsurfingit/studylink/internal/models"
	"github.com/justsurfingit/studylink/internal/services"
	"github.com/justsurfingit/studylink/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testBaseURL = "https://studylink.test"

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []services.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg services.Message) error {
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

var linkPattern = regexp.MustCompile(`https://studylink\.test/api/auth/callback/email\?[^\s"]+`)

// lastLink returns the magic link of the last email as a request URI.
func (m *fakeMailer) lastLink(t *testing.T) *url.URL {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent)
	raw := linkPattern.FindString(m.sent[len(m.sent)-1].Text)
	require.NotEmpty(t, raw)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

type fakeGoogle struct {
	profile *auth.GoogleProfile
	err     error
}

func (g *fakeGoogle) AuthCodeURL(state string) string {
	return "https://accounts.google.test/auth?state=" + state
}

func (g *fakeGoogle) Exchange(_ context.Context, code string) (*auth.GoogleProfile, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.profile, nil
}

type testEnv struct {
	db       *gorm.DB
	router   *gin.Engine
	mailer   *fakeMailer
	sessions *auth.SessionManager
	deps     Deps
}

type envOption func(*Deps)

func withGoogle(g GoogleSignIn) envOption {
	return func(d *Deps) { d.Google = g }
}

func withThrottle(th services.LinkThrottle) envOption {
	return func(d *Deps) { d.Auth.Throttle = th }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	db := testutil.NewDB(t)
	log := zap.NewNop()
	mailer := &fakeMailer{}
	sessions := auth.NewSessionManager("test-secret", time.Hour)

	sqlDB, err := db.DB()
	require.NoError(t, err)

	roles := services.NewRoleService(db, log)
	domains := services.NewDomainService(db, log)
	schools := services.NewSchoolService(db, log)
	deps := Deps{
		Ready:           sqlDB,
		Log:             log,
		BaseURL:         testBaseURL,
		Sessions:        sessions,
		Auth:            services.NewAuthService(db, roles, services.NewEmailService(mailer, log), testBaseURL, "test-secret", log),
		Roles:           roles,
		Domains:         domains,
		Users:           services.NewUserService(db, log),
		Profiles:        services.NewProfileService(db, roles, domains, log),
		Schools:         schools,
		Companies:       services.NewCompanyService(db, log),
		Jobs:            services.NewJobService(db),
		JobRequests:     services.NewJobRequestService(db, log),
		Recommendations: services.NewRecommendationService(db),
		Students:        services.NewStudentService(db),
		Export:          services.NewExportService(schools),
	}
	for _, opt := range opts {
		opt(&deps)
	}

	return &testEnv{db: db, router: NewRouter(deps), mailer: mailer, sessions: sessions, deps: deps}
}

// do sends a JSON request, authenticated when token is not empty.
func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) token(t *testing.T, u models.User, role models.Role) string {
	t.Helper()
	tok, _, err := e.sessions.Issue(u.ID, u.Email, role)
	require.NoError(t, err)
	return tok
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]any](t, w)["error"].(string)
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.SessionCookie {
			return c
		}
	}
	return nil
}

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

func seedCompanyOwner(t *testing.T, db *gorm.DB, email string, company *models.Company) models.User {
	t.Helper()
	u := seedUser(t, db, email, models.RoleCompanyOwner)
	owner := models.CompanyOwner{UserID: u.ID}
	if company != nil {
		owner.CompanyID = &company.ID
	}
	require.NoError(t, db.Create(&owner).Error)
	return u
}
