package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/nzoschke/apartments/internal/app"
	"github.com/nzoschke/apartments/internal/config"
	"github.com/nzoschke/apartments/internal/db/dbtest"
	"github.com/nzoschke/apartments/internal/model"
	"github.com/nzoschke/apartments/internal/service"
	"github.com/nzoschke/apartments/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var flat = map[string]any{
	"name":        "Flat",
	"description": "nice",
	"area":        50,
	"price":       1000,
	"rooms":       2,
	"longitude":   10,
	"latitude":    10,
}

type server struct {
	app     *app.App
	handler http.Handler
}

func newServer(t *testing.T, opts ...func(*config.Config)) *server {
	t.Helper()

	cfg := &config.Config{
		AppName:             "Apartments",
		AppEnv:              "development",
		AppURL:              "http://api.test",
		ClientURL:           "http://client.test",
		JWTSecret:           "test-secret",
		JWTExpiry:           time.Hour,
		BcryptCost:          bcrypt.MinCost,
		RateLimitAuth:       100,
		RateLimitAuthWindow: time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	a, err := app.NewWithStorage(cfg, dbtest.New(t), storage.NewMemoryStorage("http://cdn.test", "uploads/"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	return &server{app: a, handler: SetupRoutes(a)}
}

func (s *server) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var r *http.Request
	if body == nil {
		r = httptest.NewRequest(method, path, nil)
	} else {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = httptest.NewRequest(method, path, bytes.NewReader(b))
		r.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, r)
	return rec
}

// session creates a verified account and logs it in.
func (s *server) session(t *testing.T, email string, role model.Role) (string, string) {
	t.Helper()

	reg, err := s.app.AuthService.Register(context.Background(), service.RegisterParams{
		Email:    email,
		Password: "secret1",
		Role:     role,
		Verified: true,
	})
	require.NoError(t, err)

	user, err := s.app.AuthService.Login(context.Background(), email, "secret1")
	require.NoError(t, err)
	return reg.User.ID, *user.Token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestRegisterConfirmLogin(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, "POST", "/register", "", map[string]string{"email": "a@b.com", "password": "secret1"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	registered := decode[model.PublicUser](t, rec)
	require.NotEmpty(t, registered.InvitationToken)
	assert.Equal(t, model.RoleClient, registered.Role)
	assert.False(t, registered.Verified)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = s.do(t, "POST", "/login", "", map[string]string{"email": "a@b.com", "password": "secret1"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, "GET", "/confirm/"+registered.InvitationToken, "", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "client.test", loc.Host)
	assert.Equal(t, "/login", loc.Path)
	confirmToken := loc.Query().Get("token")
	require.NotEmpty(t, confirmToken)

	rec = s.do(t, "GET", "/confirm/"+registered.InvitationToken, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "invitation is single use")

	rec = s.do(t, "POST", "/login", "", map[string]string{"email": "a@b.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	user := decode[model.PublicUser](t, rec)
	assert.True(t, user.Verified)
	assert.NotEmpty(t, user.Token)
	assert.Empty(t, user.InvitationToken)
	assert.NotContains(t, rec.Body.String(), "passwordHash")

	rec = s.do(t, "GET", "/auth", user.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, registered.ID, decode[model.PublicUser](t, rec).ID)
}

func TestRegisterErrors(t *testing.T) {
	s := newServer(t)
	s.session(t, "taken@b.com", model.RoleClient)

	tests := []struct {
		body    any
		status  int
		message string
	}{
		{map[string]string{"email": "a@b.com"}, http.StatusForbidden, "Missing values"},
		{map[string]string{"email": "a@b.com", "password": "12345"}, http.StatusForbidden, "Password must be at least 6 characters long"},
		{map[string]string{"email": "not-an-email", "password": "secret1"}, http.StatusForbidden, "Invalid email address"},
		{map[string]string{"email": "taken@b.com", "password": "secret1"}, http.StatusForbidden, "Email already exists"},
		{"nope", http.StatusBadRequest, "Invalid request body"},
	}

	for _, tt := range tests {
		rec := s.do(t, "POST", "/register", "", tt.body)
		assert.Equal(t, tt.status, rec.Code)
		assert.Equal(t, tt.message, decode[map[string]string](t, rec)["message"])
	}
}

func TestCurrentUserAnonymous(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, "GET", "/auth", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = s.do(t, "GET", "/auth", "garbage", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestPing(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, "GET", "/ping", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = s.do(t, "GET", "/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApartmentRoles(t *testing.T) {
	s := newServer(t)
	realtorID, realtor := s.session(t, "r@b.com", model.RoleRealtor)
	_, client := s.session(t, "c@b.com", model.RoleClient)

	rec := s.do(t, "POST", "/apartments", realtor, flat)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[map[string]any](t, rec)
	assert.Equal(t, realtorID, created["realtor"])
	assert.Equal(t, true, created["rentable"])

	rec = s.do(t, "POST", "/apartments", client, flat)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"message":"Forbidden"}`, rec.Body.String())

	rec = s.do(t, "POST", "/apartments", "", flat)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, "GET", "/apartments", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	id := created["id"].(string)
	rec = s.do(t, "PUT", "/apartments/"+id, client, map[string]any{"rentable": false})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, "PUT", "/apartments/"+id, realtor, map[string]any{"latitude": 91})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Incorrect values"}`, rec.Body.String())

	rec = s.do(t, "DELETE", "/apartments/"+id, client, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestApartmentListFiltersForClients(t *testing.T) {
	s := newServer(t)
	realtorID, realtor := s.session(t, "r@b.com", model.RoleRealtor)
	_, client := s.session(t, "c@b.com", model.RoleClient)

	rec := s.do(t, "POST", "/apartments", realtor, flat)
	require.Equal(t, http.StatusCreated, rec.Code)
	hidden := map[string]any{"rentable": false}
	for k, v := range flat {
		hidden[k] = v
	}
	hidden["name"] = "Hidden"
	rec = s.do(t, "POST", "/apartments", realtor, hidden)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, "GET", "/apartments", client, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decode[[]map[string]any](t, rec)
	require.Len(t, listed, 1)
	assert.Equal(t, "Flat", listed[0]["name"])
	owner := listed[0]["realtor"].(map[string]any)
	assert.Equal(t, realtorID, owner["id"])
	assert.Equal(t, "r@b.com", owner["email"])
	assert.Equal(t, "realtor", owner["role"])

	rec = s.do(t, "GET", "/apartments", realtor, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	listed = decode[[]map[string]any](t, rec)
	require.Len(t, listed, 2)
	assert.ElementsMatch(t, []any{"Flat", "Hidden"}, []any{listed[0]["name"], listed[1]["name"]})
}

func TestApartmentDeleteIsIdempotent(t *testing.T) {
	s := newServer(t)
	_, realtor := s.session(t, "r@b.com", model.RoleRealtor)

	rec := s.do(t, "DELETE", "/apartments/does-not-exist", realtor, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestAdminCreatesApartmentForRealtor(t *testing.T) {
	s := newServer(t)
	realtorID, _ := s.session(t, "r@b.com", model.RoleRealtor)
	_, admin := s.session(t, "admin@b.com", model.RoleAdmin)

	rec := s.do(t, "POST", "/apartments", admin, flat)
	assert.Equal(t, http.StatusForbidden, rec.Code, "owner is required for admins")

	body := map[string]any{"user": realtorID}
	for k, v := range flat {
		body[k] = v
	}
	rec = s.do(t, "POST", "/apartments", admin, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, realtorID, decode[map[string]any](t, rec)["realtor"])
}

func TestUserManagement(t *testing.T) {
	s := newServer(t)
	clientID, client := s.session(t, "c@b.com", model.RoleClient)
	otherID, _ := s.session(t, "o@b.com", model.RoleClient)
	_, admin := s.session(t, "admin@b.com", model.RoleAdmin)

	rec := s.do(t, "GET", "/users", client, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, "GET", "/users", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.PublicUser](t, rec), 3)
	assert.NotContains(t, rec.Body.String(), "token")

	rec = s.do(t, "POST", "/users", admin, map[string]any{"email": "new@b.com", "password": "secret1", "role": "realtor", "verified": true})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[model.PublicUser](t, rec)
	assert.Equal(t, model.RoleRealtor, created.Role)
	assert.True(t, created.Verified)
	assert.Empty(t, created.InvitationToken)

	rec = s.do(t, "PUT", "/users/"+otherID, client, map[string]any{"email": "x@b.com"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, "PUT", "/users/"+clientID, client, map[string]any{"role": "admin"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, "PUT", "/users/"+clientID, client, map[string]any{"email": "c2@b.com"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "c2@b.com", decode[model.PublicUser](t, rec).Email)

	rec = s.do(t, "PUT", "/users/"+otherID, admin, map[string]any{"role": "realtor"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.RoleRealtor, decode[model.PublicUser](t, rec).Role)

	rec = s.do(t, "DELETE", "/users/"+otherID, client, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, "DELETE", "/users/"+otherID, admin, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, "DELETE", "/users/"+otherID, admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, "DELETE", "/users/"+clientID, client, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, "GET", "/auth", client, nil)
	assert.Empty(t, rec.Body.String(), "deleted account has no session")
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func (s *server) upload(t *testing.T, path, token string, files map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for field, filename := range files {
		part, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(pngBytes)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	r := httptest.NewRequest("POST", path, &body)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	r.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, r)
	return rec
}

func TestImageUpload(t *testing.T) {
	s := newServer(t)
	userID, token := s.session(t, "c@b.com", model.RoleClient)
	otherID, _ := s.session(t, "o@b.com", model.RoleClient)

	rec := s.upload(t, "/users/"+userID+"/image-upload", token, map[string]string{"file": "me.png"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	user := decode[model.PublicUser](t, rec)
	assert.True(t, strings.HasPrefix(user.Avatar, "http://cdn.test/uploads/"), user.Avatar)
	assert.True(t, strings.HasSuffix(user.Avatar, ".png"), user.Avatar)

	rec = s.upload(t, "/users/"+userID+"/image-upload", token, map[string]string{"file": "me.gif"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Unable to upload image."}`, rec.Body.String())

	rec = s.upload(t, "/users/"+userID+"/image-upload", token, map[string]string{"avatar": "me.png"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.upload(t, "/users/"+userID+"/image-upload", token, map[string]string{"file": "a.png", "extra": "b.png"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.upload(t, "/users/"+otherID+"/image-upload", token, map[string]string{"file": "me.png"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSocialCallbackErrors(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, "GET", "/register/github", "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, "GET", "/register/myspace?code=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Unknown provider"}`, rec.Body.String())
}

func TestAuthRoutesAreRateLimited(t *testing.T) {
	s := newServer(t, func(c *config.Config) { c.RateLimitAuth = 2 })

	creds := map[string]string{"email": "a@b.com", "password": "wrong12"}
	for range 2 {
		rec := s.do(t, "POST", "/login", "", creds)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	}

	rec := s.do(t, "POST", "/login", "", creds)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = s.do(t, "POST", "/register", "", map[string]string{"email": "a@b.com", "password": "secret1"})
	assert.Equal(t, http.StatusCreated, rec.Code, "limits are per path")
}
