package services

import (
	"context"
	"testing"

	"github.com/justsurfingit/studylink/internal/models"
	"github.com/justsurfingit/studylink/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveRole(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewRoleService(db, nopLog())
	ctx := context.Background()

	school := seedSchool(t, db, "school.fr", "SCHOOL")
	company := seedCompany(t, db, "Acme")
	owner := seedSchoolOwner(t, db, "owner@school.fr", school)
	seedCompanyOwner(t, db, "boss@acme.com", company)
	seedStudent(t, db, "kid@school.fr", &school.ID)
	admin := seedUser(t, db, "root@studylink.fr", models.RoleAdmin)
	require.NoError(t, db.Create(&models.Admin{UserID: admin.ID}).Error)
	seedUser(t, db, "loose@gmail.com", models.RoleStudent)

	tests := []struct {
		email string
		want  models.Role
	}{
		{"owner@school.fr", models.RoleSchoolOwner},
		{"BOSS@acme.com", models.RoleCompanyOwner},
		{"kid@school.fr", models.RoleStudent},
		{"root@studylink.fr", models.RoleAdmin},
		{"loose@gmail.com", models.RoleUnregistered},
		{"nobody@nowhere.fr", models.RoleUnregistered},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			res, err := svc.ResolveRole(ctx, tt.email)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Role)
		})
	}

	// owner was stored as admin and gets corrected.
	var stored models.User
	require.NoError(t, db.First(&stored, owner.ID).Error)
	assert.Equal(t, models.RoleSchoolOwner, stored.Type)

	res, err := svc.ResolveRole(ctx, "nobody@nowhere.fr")
	require.NoError(t, err)
	assert.Nil(t, res.UserID)
}

func TestResolveRole_SchoolOwnerBeatsAdmin(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewRoleService(db, nopLog())
	school := seedSchool(t, db, "school.fr", "SCHOOL")
	u := seedSchoolOwner(t, db, "owner@school.fr", school)
	require.NoError(t, db.Create(&models.Admin{UserID: u.ID}).Error)

	res, err := svc.ResolveRole(context.Background(), "owner@school.fr")
	require.NoError(t, err)
	assert.Equal(t, models.RoleSchoolOwner, res.Role)
	require.NotNil(t, res.UserID)
	assert.Equal(t, u.ID, *res.UserID)
}

func TestIsSchoolOwner(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewRoleService(db, nopLog())
	ctx := context.Background()
	school := seedSchool(t, db, "school.fr", "SCHOOL")
	owner := seedSchoolOwner(t, db, "owner@school.fr", school)
	seedStudent(t, db, "kid@school.fr", &school.ID)

	ok, err := svc.IsSchoolOwner(ctx, "owner@school.fr")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.IsSchoolOwner(ctx, "kid@school.fr")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.IsSchoolOwner(ctx, "ghost@school.fr")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, db.Delete(&owner).Error)
	ok, err = svc.IsSchoolOwner(ctx, "owner@school.fr")
	require.NoError(t, err)
	assert.False(t, ok)
}
