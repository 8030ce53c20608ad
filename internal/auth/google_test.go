package auth

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
)

func fakeGoogle(t *testing.T, userinfo string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/oauth2/v2/userinfo", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer at", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(userinfo))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testProvider(srv *httptest.Server) *GoogleProvider {
	p := NewGoogleProvider("client", "secret", "https://studylink.test/api/auth/google/callback")
	p.config.Endpoint = oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"}
	p.userinfoOpt = []option.ClientOption{option.WithEndpoint(srv.URL + "/")}
	return p
}

func TestGoogleProvider_Exchange(t *testing.T) {
	srv := fakeGoogle(t, `{"email":"jane@gmail.com","verified_email":true,"given_name":"Jane","family_name":"Doe"}`)

	profile, err := testProvider(srv).Exchange(t.Context(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, "jane@gmail.com", profile.Email)
	assert.Equal(t, "Jane", profile.GivenName)
	assert.Equal(t, "Doe", profile.FamilyName)
}

func TestGoogleProvider_UnverifiedEmail(t *testing.T) {
	srv := fakeGoogle(t, `{"email":"jane@gmail.com","verified_email":false}`)

	_, err := testProvider(srv).Exchange(t.Context(), "the-code")
	assert.ErrorIs(t, err, ErrUnverifiedEmail)
}

func TestGoogleProvider_AuthCodeURL(t *testing.T) {
	p := NewGoogleProvider("client", "secret", "https://studylink.test/cb")
	u, err := url.Parse(p.AuthCodeURL("xyz"))
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "xyz", q.Get("state"))
	assert.Equal(t, "client", q.Get("client_id"))
	assert.Equal(t, "https://studylink.test/cb", q.Get("redirect_uri"))
	assert.Contains(t, q.Get("scope"), "userinfo.email")
}

func TestNewState(t *testing.T) {
	a, err := NewState()
	require.NoError(t, err)
	b, err := NewState()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 32)
}
