package handler

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/nzoschke/apartments/internal/ctxkeys"
	"github.com/nzoschke/apartments/internal/model"
	"github.com/nzoschke/apartments/internal/render"
	"github.com/nzoschke/apartments/internal/service"
)

type authHandler struct {
	authService *service.AuthService
	clientURL   string
}

func NewAuthHandler(authService *service.AuthService, clientURL string) *authHandler {
	return &authHandler{
		authService: authService,
		clientURL:   clientURL,
	}
}

func (h *authHandler) Ping(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// CurrentUser returns the session user, or an empty body for anonymous callers.
func (h *authHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	if user == nil {
		render.JSON(w, http.StatusOK, nil)
		return
	}
	render.JSON(w, http.StatusOK, user.Public())
}

type credentials struct {
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Role     model.Role `json:"role"`
}

func (h *authHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body credentials
	err := decodeJSON(w, r, &body)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	user, err := h.authService.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		slog.Warn("login failed", "error", err, "email", body.Email)
		render.Error(w, r, err)
		return
	}

	public := user.Public()
	public.Token = *user.Token
	render.JSON(w, http.StatusOK, public)
}

func (h *authHandler) Register(w http.ResponseWriter, r *http.Request) {
	var body credentials
	err := decodeJSON(w, r, &body)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	reg, err := h.authService.Register(r.Context(), service.RegisterParams{
		Email:    body.Email,
		Password: body.Password,
		Role:     body.Role,
	})
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusCreated, registered(reg))
}

// Confirm consumes an invitation link and hands the new session to the client app.
func (h *authHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	token, err := h.authService.ConfirmEmail(r.Context(), r.PathValue("token"))
	if err != nil {
		slog.Warn("email confirmation failed", "error", err)
		render.Error(w, r, err)
		return
	}

	http.Redirect(w, r, h.loginURL("token", token), http.StatusFound)
}

// SocialCallback finishes an OAuth round trip started by the client app.
// Linked accounts come back with a token. New accounts must confirm their email first.
func (h *authHandler) SocialCallback(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")
	code := r.URL.Query().Get("code")
	if code == "" {
		render.Error(w, r, service.ErrMissingValues)
		return
	}

	token, err := h.authService.RegisterWithSocialMedia(r.Context(), provider, code)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	if token == "" {
		http.Redirect(w, r, h.loginURL("social", "success"), http.StatusFound)
		return
	}
	http.Redirect(w, r, h.loginURL("token", token), http.StatusFound)
}

func (h *authHandler) loginURL(key, value string) string {
	q := url.Values{}
	q.Set(key, value)
	return h.clientURL + "/login?" + q.Encode()
}
