package services

import (
	"context"
	"sync"
	"testing"

	"github.com/justsurfingit/studylink/internal/models"
	"github.com/justsurfingit/studylink/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainFromEmail(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"jane@School.FR", "school.fr", false},
		{"Jane Doe <jane@school.fr>", "school.fr", false},
		{"odd@name@campus.edu", "campus.edu", false},
		{"no-at-sign", "", true},
		{"trailing@", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := DomainFromEmail(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidEmail, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestDefaultSchoolName(t *testing.T) {
	assert.Equal(t, "NEWSCHOOL", DefaultSchoolName("newschool.fr"))
	assert.Equal(t, "LOCALHOST", DefaultSchoolName("localhost"))
}

func TestCheckDomain(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewDomainService(db, nopLog())
	ctx := context.Background()
	school := seedSchool(t, db, "school.fr", "SCHOOL")

	match, err := svc.CheckDomain(ctx, "  SCHOOL.fr ")
	require.NoError(t, err)
	assert.Equal(t, school.ID, match.SchoolID)
	assert.Equal(t, "SCHOOL", match.SchoolName)

	_, err = svc.CheckDomain(ctx, "unknown.fr")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.CheckDomain(ctx, " ")
	assert.ErrorIs(t, err, ErrInvalidDomain)
}

func TestCheckDomain_FirstSchoolWins(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewDomainService(db, nopLog())
	first := seedSchool(t, db, "group.fr", "FIRST")
	require.NoError(t, db.Create(&models.School{Name: "SECOND", DomainID: first.DomainID, IsActive: true}).Error)

	match, err := svc.CheckDomain(context.Background(), "group.fr")
	require.NoError(t, err)
	assert.Equal(t, "FIRST", match.SchoolName)
}

func TestCheckDomain_DomainWithoutLiveSchool(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewDomainService(db, nopLog())
	school := seedSchool(t, db, "closed.fr", "CLOSED")
	require.NoError(t, db.Delete(&school).Error)

	_, err := svc.CheckDomain(context.Background(), "closed.fr")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestValidateAndCreate(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewDomainService(db, nopLog())
	ctx := context.Background()

	d, created, err := svc.ValidateAndCreate(ctx, "x@NewSchool.fr")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "newschool.fr", d.Domain)
	require.Len(t, d.Schools, 1)
	assert.Equal(t, "NEWSCHOOL", d.Schools[0].Name)

	again, created, err := svc.ValidateAndCreate(ctx, "y@newschool.fr")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, d.ID, again.ID)

	var domains, schools int64
	require.NoError(t, db.Model(&models.AuthorizedSchoolDomain{}).Count(&domains).Error)
	require.NoError(t, db.Model(&models.School{}).Count(&schools).Error)
	assert.Equal(t, int64(1), domains)
	assert.Equal(t, int64(1), schools)

	_, _, err = svc.ValidateAndCreate(ctx, "broken")
	assert.ErrorIs(t, err, ErrInvalidEmail)
}

func TestValidateAndCreate_Concurrent(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewDomainService(db, nopLog())

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		creates int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, created, err := svc.ValidateAndCreate(context.Background(), "x@race.fr")
			assert.NoError(t, err)
			if created {
				mu.Lock()
				creates++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, creates)
	var schools int64
	require.NoError(t, db.Model(&models.School{}).Count(&schools).Error)
	assert.Equal(t, int64(1), schools)
}
