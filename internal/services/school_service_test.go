package services

import (
	"context"
	"testing"

	"github.com/justsurfingit/studylink/internal/dtos"
	"github.com/justsurfingit/studylink/internal/models"
	"github.com/justsurfingit/studylink/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSchoolRequest(domain, email string) *dtos.CreateSchoolWithDomainRequest {
	return &dtos.CreateSchoolWithDomainRequest{
		Domain: domain,
		School: dtos.SchoolInput{Name: "New School"},
		Owner:  dtos.OwnerInput{FirstName: "A", LastName: "B", Email: email},
	}
}

func TestCreateWithDomain(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewSchoolService(db, nopLog())
	roles := NewRoleService(db, nopLog())
	ctx := context.Background()

	school, domain, err := svc.CreateWithDomain(ctx, newSchoolRequest("NewSchool.fr", "new.owner@newschool.fr"))
	require.NoError(t, err)
	assert.Equal(t, "newschool.fr", domain.Domain)
	assert.Equal(t, "New School", school.Name)
	assert.Equal(t, domain.ID, school.DomainID)
	assert.True(t, school.IsActive)

	var owner models.User
	require.NoError(t, db.Preload("Admin").Preload("SchoolOwner").Where("email = ?", "new.owner@newschool.fr").First(&owner).Error)
	assert.Equal(t, models.RoleAdmin, owner.Type)
	assert.True(t, owner.ProfileCompleted)
	require.NotNil(t, owner.Admin)
	require.NotNil(t, owner.SchoolOwner)
	assert.Equal(t, school.ID, owner.SchoolOwner.SchoolID)

	res, err := roles.ResolveRole(ctx, "new.owner@newschool.fr")
	require.NoError(t, err)
	assert.Equal(t, models.RoleSchoolOwner, res.Role)
}

func TestCreateWithDomain_Conflicts(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewSchoolService(db, nopLog())
	ctx := context.Background()
	_, _, err := svc.CreateWithDomain(ctx, newSchoolRequest("taken.fr", "first@taken.fr"))
	require.NoError(t, err)

	_, _, err = svc.CreateWithDomain(ctx, newSchoolRequest("TAKEN.fr", "second@taken.fr"))
	assert.ErrorIs(t, err, ErrDomainExists)

	_, _, err = svc.CreateWithDomain(ctx, newSchoolRequest("fresh.fr", "first@taken.fr"))
	assert.ErrorIs(t, err, ErrUserExists)

	// a soft-deleted user still holds the email
	gone := seedUser(t, db, "gone@fresh.fr", models.RoleStudent)
	require.NoError(t, db.Delete(&gone).Error)
	_, _, err = svc.CreateWithDomain(ctx, newSchoolRequest("fresh.fr", "gone@fresh.fr"))
	assert.ErrorIs(t, err, ErrUserExists)

	// nothing from the failed attempts was kept
	var n int64
	require.NoError(t, db.Model(&models.AuthorizedSchoolDomain{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
	require.NoError(t, db.Model(&models.School{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestCreateWithDomain_Validation(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewSchoolService(db, nopLog())
	ctx := context.Background()

	_, _, err := svc.CreateWithDomain(ctx, newSchoolRequest("", "a@b.fr"))
	assert.ErrorIs(t, err, ErrInvalidDomain)
	_, _, err = svc.CreateWithDomain(ctx, newSchoolRequest("x@y.fr", "a@b.fr"))
	assert.ErrorIs(t, err, ErrInvalidDomain)
	_, _, err = svc.CreateWithDomain(ctx, newSchoolRequest("ok.fr", "nope"))
	assert.ErrorIs(t, err, ErrInvalidEmail)

	req := newSchoolRequest("ok.fr", "a@ok.fr")
	req.School.Name = "  "
	_, _, err = svc.CreateWithDomain(ctx, req)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestSchoolService_CRUD(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewSchoolService(db, nopLog())
	ctx := context.Background()
	school := seedSchool(t, db, "school.fr", "SCHOOL")
	seedStudent(t, db, "jane@school.fr", &school.ID)
	seedStudent(t, db, "loose@gmail.com", nil)

	got, err := svc.Get(ctx, school.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Domain)
	assert.Equal(t, "school.fr", got.Domain.Domain)

	inactive := false
	updated, err := svc.Update(ctx, school.ID, &dtos.UpdateSchoolRequest{Name: strPtr("École"), IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "École", updated.Name)
	assert.False(t, updated.IsActive)

	students, err := svc.Students(ctx, school.ID)
	require.NoError(t, err)
	require.Len(t, students, 1)
	require.NotNil(t, students[0].User)
	assert.Equal(t, "jane@school.fr", students[0].User.Email)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, school.ID))
	_, err = svc.Get(ctx, school.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, school.ID), ErrNotFound)
}

func TestSchoolService_OwnedBy(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewSchoolService(db, nopLog())
	school := seedSchool(t, db, "school.fr", "SCHOOL")
	owner := seedSchoolOwner(t, db, "owner@school.fr", school)
	stranger := seedUser(t, db, "x@y.fr", models.RoleStudent)

	ok, err := svc.OwnedBy(context.Background(), school.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = svc.OwnedBy(context.Background(), school.ID, stranger.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}
