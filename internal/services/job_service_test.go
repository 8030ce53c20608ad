package services

import (
	"context"
	"testing"

	"github.com/justsurfingit/studylink/internal/dtos"
	"github.com/justsurfingit/studylink/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateJob(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewJobService(db)
	ctx := context.Background()
	company := seedCompany(t, db, "Acme")

	job, err := svc.CreateJob(ctx, &dtos.JobCreationRequest{
		CompanyID:   company.ID,
		Name:        "Stage backend",
		Description: "API Go",
		Skills:      []string{" Go ", "", "PostgreSQL"},
		Location:    "Paris",
	})
	require.NoError(t, err)
	assert.Equal(t, "Go, PostgreSQL", job.Skills)
	assert.Equal(t, []string{"Go", "PostgreSQL"}, job.SkillList())
	assert.Equal(t, "Acme", job.Company.Name)

	_, err = svc.CreateJob(ctx, &dtos.JobCreationRequest{CompanyID: 999, Name: "x", Description: "y"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListJobs_SkillFilter(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewJobService(db)
	ctx := context.Background()
	acme := seedCompany(t, db, "Acme")
	globex := seedCompany(t, db, "Globex")
	seedJob(t, db, acme, "Backend", "Go, SQL")
	seedJob(t, db, acme, "Frontend", "React")
	seedJob(t, db, globex, "Data", "Python, sql")
	seedJob(t, db, globex, "Web", "MongoDB, Django")

	jobs, err := svc.List(ctx, dtos.JobFilter{Skill: "SQL"})
	require.NoError(t, err)
	assert.Len(t, jobs, 2)

	// whole entries only: "go" is not found inside "MongoDB" or "Django"
	jobs, err = svc.List(ctx, dtos.JobFilter{Skill: "go"})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Backend", jobs[0].Name)

	jobs, err = svc.List(ctx, dtos.JobFilter{Skill: "%"})
	require.NoError(t, err)
	assert.Empty(t, jobs)

	jobs, err = svc.List(ctx, dtos.JobFilter{Skill: "mongodb"})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Web", jobs[0].Name)

	jobs, err = svc.List(ctx, dtos.JobFilter{Skill: "sql", CompanyID: acme.ID})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Backend", jobs[0].Name)

	jobs, err = svc.List(ctx, dtos.JobFilter{})
	require.NoError(t, err)
	assert.Len(t, jobs, 4)
}

func TestUpdateAndDeleteJob(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewJobService(db)
	ctx := context.Background()
	company := seedCompany(t, db, "Acme")
	job := seedJob(t, db, company, "Backend", "Go")

	updated, err := svc.Update(ctx, job.ID, &dtos.JobUpdateRequest{Skills: []string{"Go", "gRPC"}, Location: strPtr("Lyon")})
	require.NoError(t, err)
	assert.Equal(t, "Go, gRPC", updated.Skills)
	assert.Equal(t, "Lyon", updated.Location)
	assert.Equal(t, "Backend", updated.Name)

	_, err = svc.Update(ctx, job.ID, &dtos.JobUpdateRequest{Name: strPtr(" ")})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	require.NoError(t, svc.Delete(ctx, job.ID))
	_, err = svc.Get(ctx, job.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, job.ID), ErrNotFound)
}
