package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/justsurfingit/studylink/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionManager_IssueAndParse(t *testing.T) {
	m := NewSessionManager("test-secret", time.Hour)

	token, expiresAt, err := m.Issue(42, "jane@school.fr", models.RoleStudent)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "jane@school.fr", claims.Email)
	assert.Equal(t, models.RoleStudent, claims.Role)
	assert.Equal(t, "42", claims.Subject)
}

func TestSessionManager_Expired(t *testing.T) {
	m := NewSessionManager("test-secret", time.Hour)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _, err := m.Issue(1, "a@b.fr", models.RoleAdmin)
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Parse(token)
	assert.ErrorIs(t, err, ErrExpiredSession)
}

func TestSessionManager_WrongSecret(t *testing.T) {
	token, _, err := NewSessionManager("one", time.Hour).Issue(1, "a@b.fr", models.RoleStudent)
	require.NoError(t, err)

	_, err = NewSessionManager("two", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestSessionManager_RejectsOtherAlgorithms(t *testing.T) {
	m := NewSessionManager("test-secret", time.Hour)
	claims := Claims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "studylink",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = m.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestSessionManager_Garbage(t *testing.T) {
	_, err := NewSessionManager("s", time.Hour).Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidSession)
}
