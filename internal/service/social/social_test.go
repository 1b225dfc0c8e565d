package social

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nzoschke/apartments/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func tokenHandler(t *testing.T, wantCode, accessToken string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != wantCode {
			w.WriteHeader(http.StatusBadRequest)
			writeJSON(w, map[string]string{"error": "bad_verification_code"})
			return
		}
		writeJSON(w, map[string]string{"access_token": accessToken, "token_type": "bearer"})
	}
}

func newGitHubServer(t *testing.T, publicEmail string) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /login/oauth/access_token", tokenHandler(t, "good-code", "gh-token"))
	mux.HandleFunc("GET /user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer gh-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, map[string]string{"email": publicEmail, "avatar_url": "https://avatars/gh.png"})
	})
	mux.HandleFunc("GET /user/emails", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{
			{"email": "other@b.com", "primary": false},
			{"email": "primary@b.com", "primary": true},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newGitHubForTest(srv *httptest.Server) *GitHub {
	return NewGitHub(GitHubConfig{
		ClientID:     "id",
		ClientSecret: "secret",
		TokenURL:     srv.URL + "/login/oauth/access_token",
		APIURL:       srv.URL,
	})
}

func TestGitHub(t *testing.T) {
	ctx := context.Background()
	gh := newGitHubForTest(newGitHubServer(t, "public@b.com"))
	assert.Equal(t, ProviderGitHub, gh.Name())

	token, err := gh.ExchangeCode(ctx, "good-code")
	require.NoError(t, err)
	assert.Equal(t, "gh-token", token)

	profile, err := gh.FetchProfile(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, Profile{Email: "public@b.com", AvatarURL: "https://avatars/gh.png"}, profile)

	_, err = gh.ExchangeCode(ctx, "bad-code")
	assert.Error(t, err)

	_, err = gh.ExchangeCode(ctx, "")
	assert.ErrorIs(t, err, ErrNoAccessToken)

	_, err = gh.FetchProfile(ctx, "wrong-token")
	assert.Error(t, err)
}

func TestGitHubPrivateEmail(t *testing.T) {
	gh := newGitHubForTest(newGitHubServer(t, ""))

	profile, err := gh.FetchProfile(context.Background(), "gh-token")
	require.NoError(t, err)
	assert.Equal(t, "primary@b.com", profile.Email)
}

func newFacebookServer(t *testing.T, pictureStatus int) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v19.0/oauth/access_token", tokenHandler(t, "good-code", "fb-token"))
	mux.HandleFunc("GET /debug_token", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("access_token") != "id|secret" || q.Get("input_token") != "fb-token" {
			writeJSON(w, map[string]any{"data": map[string]any{"is_valid": false}})
			return
		}
		writeJSON(w, map[string]any{"data": map[string]any{"user_id": "42", "is_valid": true}})
	})
	mux.HandleFunc("GET /v19.0/42", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "email", r.URL.Query().Get("fields"))
		writeJSON(w, map[string]string{"email": "fb@b.com", "id": "42"})
	})
	mux.HandleFunc("GET /v19.0/42/picture", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "false", r.URL.Query().Get("redirect"))
		assert.Equal(t, "500", r.URL.Query().Get("height"))
		if pictureStatus != http.StatusOK {
			w.WriteHeader(pictureStatus)
			return
		}
		writeJSON(w, map[string]any{"data": map[string]string{"url": "https://fb/pic.jpg"}})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newFacebookForTest(srv *httptest.Server) *Facebook {
	return NewFacebook(FacebookConfig{
		ClientID:     "id",
		ClientSecret: "secret",
		Version:      "v19.0",
		GraphURL:     srv.URL,
	})
}

func TestFacebook(t *testing.T) {
	ctx := context.Background()
	fb := newFacebookForTest(newFacebookServer(t, http.StatusOK))
	assert.Equal(t, ProviderFacebook, fb.Name())

	token, err := fb.ExchangeCode(ctx, "good-code")
	require.NoError(t, err)
	assert.Equal(t, "fb-token", token)

	profile, err := fb.FetchProfile(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, Profile{Email: "fb@b.com", AvatarURL: "https://fb/pic.jpg"}, profile)

	_, err = fb.FetchProfile(ctx, "forged")
	assert.ErrorIs(t, err, ErrNoAccessToken)
}

func TestFacebookPictureFailureIsTerminal(t *testing.T) {
	fb := newFacebookForTest(newFacebookServer(t, http.StatusInternalServerError))

	_, err := fb.FetchProfile(context.Background(), "fb-token")
	assert.Error(t, err)
}

func TestProviders(t *testing.T) {
	providers := NewProviders(&config.Config{AppURL: "http://api", FacebookGraphVersion: "v19.0"})

	gh, err := providers.Lookup("github")
	require.NoError(t, err)
	assert.Equal(t, "http://api/register/github", gh.(*GitHub).oauth.RedirectURL)

	fb, err := providers.Lookup("facebook")
	require.NoError(t, err)
	assert.Equal(t, "http://api/register/facebook", fb.(*Facebook).oauth.RedirectURL)

	_, err = providers.Lookup("google")
	assert.Error(t, err)
}
