package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/studylink/internal/dtos"
	"github.com/justsurfingit/studylink/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompanyJobFlow(t *testing.T) {
	env := newTestEnv(t)
	owner := seedCompanyOwner(t, env.db, "boss@acme.io", nil)
	rival := seedCompanyOwner(t, env.db, "boss@rival.io", nil)
	ownerToken := env.token(t, owner, models.RoleCompanyOwner)
	rivalToken := env.token(t, rival, models.RoleCompanyOwner)

	w := env.do(t, http.MethodPost, "/api/companies", gin.H{"name": "Acme", "location": "Lyon"}, ownerToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	company := decode[models.Company](t, w)

	var link models.CompanyOwner
	require.NoError(t, env.db.Where("user_id = ?", owner.ID).First(&link).Error)
	require.NotNil(t, link.CompanyID)
	assert.Equal(t, company.ID, *link.CompanyID)

	w = env.do(t, http.MethodPost, "/api/companies", gin.H{"name": "Acme Bis"}, ownerToken)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "COMPANY_ALREADY_OWNED", errorCode(t, w))

	w = env.do(t, http.MethodGet, "/api/companies", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Company](t, w), 1)

	w = env.do(t, http.MethodPatch, fmt.Sprintf("/api/companies/%d", company.ID), gin.H{"name": "Stolen"}, rivalToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPatch, fmt.Sprintf("/api/companies/%d", company.ID), gin.H{"description": "Rockets"}, ownerToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Rockets", decode[models.Company](t, w).Description)

	job := gin.H{"companyId": company.ID, "name": "Backend intern", "description": "APIs", "skills": []string{"Go", " SQL "}}
	w = env.do(t, http.MethodPost, "/api/jobs", job, rivalToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, "/api/jobs", job, ownerToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[models.Job](t, w)
	assert.Equal(t, "Go, SQL", created.Skills)

	w = env.do(t, http.MethodPost, "/api/jobs", gin.H{"companyId": company.ID, "name": "Android intern", "description": "Apps", "skills": []string{"Java"}}, ownerToken)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodPost, "/api/jobs", gin.H{"companyId": company.ID}, ownerToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", errorCode(t, w))

	w = env.do(t, http.MethodGet, "/api/jobs?skill=go", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	jobs := decode[[]models.Job](t, w)
	require.Len(t, jobs, 1)
	assert.Equal(t, created.ID, jobs[0].ID)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/companies/%d/jobs", company.ID), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Job](t, w), 2)

	w = env.do(t, http.MethodPatch, fmt.Sprintf("/api/jobs/%d", created.ID), gin.H{"location": "Remote"}, rivalToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPatch, fmt.Sprintf("/api/jobs/%d", created.ID), gin.H{"location": "Remote"}, ownerToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Remote", decode[models.Job](t, w).Location)

	w = env.do(t, http.MethodPost, "/api/jobs/extract", gin.H{"rawText": "Stage Go à Lyon"}, ownerToken)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "FEATURE_DISABLED", errorCode(t, w))

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/companies/%d", company.ID), nil, ownerToken)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/jobs/%d", created.ID), nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestJobRequestFlow(t *testing.T) {
	env := newTestEnv(t)
	company := models.Company{Name: "Acme"}
	require.NoError(t, env.db.Create(&company).Error)
	job := models.Job{CompanyID: company.ID, Name: "Backend intern"}
	require.NoError(t, env.db.Create(&job).Error)

	owner := seedCompanyOwner(t, env.db, "boss@acme.io", &company)
	rival := seedCompanyOwner(t, env.db, "boss@rival.io", nil)
	studentUser, student := seedStudent(t, env.db, "jane@school.fr", nil)
	otherUser, _ := seedStudent(t, env.db, "john@school.fr", nil)

	ownerToken := env.token(t, owner, models.RoleCompanyOwner)
	studentToken := env.token(t, studentUser, models.RoleStudent)

	w := env.do(t, http.MethodPost, "/api/job-requests", gin.H{"jobId": job.ID}, ownerToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, "/api/job-requests", gin.H{"jobId": job.ID}, studentToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	jr := decode[models.JobRequest](t, w)
	assert.Equal(t, student.ID, jr.StudentID)
	assert.Equal(t, models.JobRequestPending, jr.Status)

	w = env.do(t, http.MethodPost, "/api/job-requests", gin.H{"jobId": job.ID}, studentToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ALREADY_APPLIED", errorCode(t, w))

	w = env.do(t, http.MethodPost, "/api/job-requests", gin.H{"jobId": 999}, studentToken)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/api/job-requests/me", nil, studentToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.JobRequest](t, w), 1)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/companies/%d/job-requests", company.ID), nil, ownerToken)
	require.Equal(t, http.StatusOK, w.Code)
	forCompany := decode[[]models.JobRequest](t, w)
	require.Len(t, forCompany, 1)
	require.NotNil(t, forCompany[0].Student)
	require.NotNil(t, forCompany[0].Student.User)
	assert.Equal(t, "jane@school.fr", forCompany[0].Student.User.Email)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/companies/%d/job-requests", company.ID), nil, env.token(t, rival, models.RoleCompanyOwner))
	assert.Equal(t, http.StatusForbidden, w.Code)

	statusPath := fmt.Sprintf("/api/job-requests/%d/status", jr.ID)
	w = env.do(t, http.MethodPatch, statusPath, gin.H{"status": "DONE"}, ownerToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", errorCode(t, w))

	w = env.do(t, http.MethodPatch, statusPath, gin.H{"status": "ACCEPTED"}, env.token(t, rival, models.RoleCompanyOwner))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPatch, statusPath, gin.H{"status": "ACCEPTED"}, ownerToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.JobRequestAccepted, decode[models.JobRequest](t, w).Status)

	withdrawPath := fmt.Sprintf("/api/job-requests/%d", jr.ID)
	w = env.do(t, http.MethodDelete, withdrawPath, nil, env.token(t, otherUser, models.RoleStudent))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodDelete, withdrawPath, nil, studentToken)
	require.Equal(t, http.StatusOK, w.Code)

	// a withdrawn application can be filed again and starts over as pending
	w = env.do(t, http.MethodPost, "/api/job-requests", gin.H{"jobId": job.ID}, studentToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	again := decode[models.JobRequest](t, w)
	assert.Equal(t, jr.ID, again.ID)
	assert.Equal(t, models.JobRequestPending, again.Status)
}

func TestApplyWithoutStudentProfile(t *testing.T) {
	env := newTestEnv(t)
	company := models.Company{Name: "Acme"}
	require.NoError(t, env.db.Create(&company).Error)
	job := models.Job{CompanyID: company.ID, Name: "Intern"}
	require.NoError(t, env.db.Create(&job).Error)
	u := seedUser(t, env.db, "fresh@school.fr", models.RoleStudent)

	w := env.do(t, http.MethodPost, "/api/job-requests", gin.H{"jobId": job.ID}, env.token(t, u, models.RoleStudent))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "NO_STUDENT_PROFILE", errorCode(t, w))
}

func TestRecommendations(t *testing.T) {
	env := newTestEnv(t)
	company := models.Company{Name: "Acme"}
	require.NoError(t, env.db.Create(&company).Error)
	owner := seedCompanyOwner(t, env.db, "boss@acme.io", &company)
	rival := seedCompanyOwner(t, env.db, "boss@rival.io", nil)
	studentUser, student := seedStudent(t, env.db, "jane@school.fr", nil)
	otherUser, _ := seedStudent(t, env.db, "john@school.fr", nil)

	ownerToken := env.token(t, owner, models.RoleCompanyOwner)
	studentToken := env.token(t, studentUser, models.RoleStudent)
	body := gin.H{"studentId": student.ID, "companyId": company.ID, "content": "Excellent stagiaire"}

	w := env.do(t, http.MethodPost, "/api/recommendations", body, env.token(t, rival, models.RoleCompanyOwner))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, "/api/recommendations", body, studentToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, "/api/recommendations", body, ownerToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	rec := decode[models.Recommendation](t, w)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/students/%d/recommendations", student.ID), nil, studentToken)
	require.Equal(t, http.StatusOK, w.Code)
	recs := decode[[]models.Recommendation](t, w)
	require.Len(t, recs, 1)
	require.NotNil(t, recs[0].Company)
	assert.Equal(t, "Acme", recs[0].Company.Name)

	primaryPath := fmt.Sprintf("/api/students/%d/primary-recommendation", student.ID)
	w = env.do(t, http.MethodPut, primaryPath, gin.H{"recommendationId": rec.ID}, env.token(t, otherUser, models.RoleStudent))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPut, primaryPath, gin.H{"recommendationId": 999}, studentToken)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPut, primaryPath, gin.H{"recommendationId": rec.ID}, studentToken)
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[models.Student](t, w)
	require.NotNil(t, updated.PrimaryRecommendationID)
	assert.Equal(t, rec.ID, *updated.PrimaryRecommendationID)

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/recommendations/%d", rec.ID), nil, ownerToken)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/students/%d", student.ID), nil, studentToken)
	require.Equal(t, http.StatusOK, w.Code)
	reloaded := decode[models.Student](t, w)
	assert.Nil(t, reloaded.PrimaryRecommendationID)
	require.NotNil(t, reloaded.User)
	assert.Equal(t, "jane@school.fr", reloaded.User.Email)
}

func TestProfile(t *testing.T) {
	env := newTestEnv(t)
	school := seedSchool(t, env.db, "school.fr", "SCHOOL")

	t.Run("first load creates the student profile", func(t *testing.T) {
		u := seedUser(t, env.db, "jane@school.fr", models.RoleStudent)

		w := env.do(t, http.MethodGet, "/api/profile", nil, env.token(t, u, models.RoleUnregistered))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		profile := decode[dtos.ProfileResponse](t, w)
		assert.Equal(t, models.RoleStudent, profile.Role)
		assert.True(t, profile.Affiliated)
		require.NotNil(t, profile.User.Student)
		require.NotNil(t, profile.User.Student.SchoolID)
		assert.Equal(t, school.ID, *profile.User.Student.SchoolID)

		// the session still said unregistered, so it is refreshed
		cookie := sessionCookie(w)
		require.NotNil(t, cookie)
		claims, err := env.sessions.Parse(cookie.Value)
		require.NoError(t, err)
		assert.Equal(t, models.RoleStudent, claims.Role)

		w = env.do(t, http.MethodGet, "/api/profile", nil, env.token(t, u, models.RoleStudent))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Nil(t, sessionCookie(w))
	})

	t.Run("select company owner", func(t *testing.T) {
		u := seedUser(t, env.db, "boss@acme.io", models.RoleStudent)
		token := env.token(t, u, models.RoleUnregistered)

		w := env.do(t, http.MethodPost, "/api/profile/select", gin.H{"type": "admin"}, token)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = env.do(t, http.MethodPost, "/api/profile/select", gin.H{"type": "company_owner"}, token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		profile := decode[dtos.ProfileResponse](t, w)
		assert.Equal(t, models.RoleCompanyOwner, profile.Role)
		require.NotNil(t, profile.User.CompanyOwner)
		assert.NotNil(t, profile.User.CompanyOwner.CompanyID)
		assert.NotNil(t, sessionCookie(w))

		w = env.do(t, http.MethodPost, "/api/profile/select", gin.H{"type": "student"}, token)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = env.do(t, http.MethodPut, "/api/profile", gin.H{
			"firstName":   "Ada",
			"lastName":    "Lovelace",
			"companyName": "Acme",
		}, env.token(t, u, models.RoleCompanyOwner))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		profile = decode[dtos.ProfileResponse](t, w)
		assert.True(t, profile.ProfileCompleted)
		require.NotNil(t, profile.User.CompanyOwner.Company)
		assert.Equal(t, "Acme", profile.User.CompanyOwner.Company.Name)
	})

	t.Run("requires a session", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/profile", nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "UNAUTHORIZED", errorCode(t, w))
	})
}

func TestProfile_BearerClientGetsRefreshedToken(t *testing.T) {
	env := newTestEnv(t)
	company := models.Company{Name: "Acme"}
	require.NoError(t, env.db.Create(&company).Error)
	job := models.Job{CompanyID: company.ID, Name: "Intern"}
	require.NoError(t, env.db.Create(&job).Error)

	w := env.do(t, http.MethodPost, "/api/auth/authenticate", gin.H{"email": "new@student.fr"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	link := env.mailer.lastLink(t)

	w = env.do(t, http.MethodPost, "/api/auth/verify?"+link.RawQuery, nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	signedIn := decode[dtos.SessionTokenResponse](t, w)
	require.Equal(t, models.RoleUnregistered, signedIn.Role)

	w = env.do(t, http.MethodGet, "/api/profile", nil, signedIn.Token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	profile := decode[dtos.ProfileResponse](t, w)
	assert.Equal(t, models.RoleStudent, profile.Role)
	require.NotEmpty(t, profile.Token)
	assert.NotEmpty(t, profile.ExpiresAt)

	claims, err := env.sessions.Parse(profile.Token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, claims.Role)

	w = env.do(t, http.MethodPost, "/api/job-requests", gin.H{"jobId": job.ID}, signedIn.Token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, "/api/job-requests", gin.H{"jobId": job.ID}, profile.Token)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// the role is unchanged now, so no new token is handed out
	w = env.do(t, http.MethodGet, "/api/profile", nil, profile.Token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[dtos.ProfileResponse](t, w).Token)
}

func TestUsers(t *testing.T) {
	env := newTestEnv(t)
	jane, _ := seedStudent(t, env.db, "jane@school.fr", nil)
	john, _ := seedStudent(t, env.db, "john@school.fr", nil)
	admin := seedUser(t, env.db, "root@studylink.fr", models.RoleAdmin)

	janeToken := env.token(t, jane, models.RoleStudent)
	adminToken := env.token(t, admin, models.RoleAdmin)

	w := env.do(t, http.MethodGet, "/api/users", nil, janeToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodGet, "/api/users?page=1&pageSize=2", nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[dtos.Page[models.User]](t, w)
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.Items, 2)

	w = env.do(t, http.MethodPatch, fmt.Sprintf("/api/users/%d", jane.ID), gin.H{"firstName": "Janet"}, janeToken)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, decode[models.User](t, w).FirstName)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d", john.ID), nil, janeToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/users/%d", john.ID), nil, janeToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/users/%d", jane.ID), nil, janeToken)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/auth/session", nil, janeToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/users/%d", john.ID), nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d", john.ID), nil, adminToken)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, w)["status"])

	w = env.do(t, http.MethodGet, "/api/ready", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ready", decode[map[string]string](t, w)["status"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
