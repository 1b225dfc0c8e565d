package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/nzoschke/apartments/internal/ctxkeys"
	"github.com/nzoschke/apartments/internal/model"
	"github.com/nzoschke/apartments/internal/render"
	"github.com/nzoschke/apartments/internal/service"
)

const maxUploadBytes = 10 << 20

type userHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *userHandler {
	return &userHandler{
		userService: userService,
	}
}

func (h *userHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List()
	if err != nil {
		render.Error(w, r, err)
		return
	}

	public := make([]*model.PublicUser, 0, len(users))
	for _, u := range users {
		public = append(public, u.Public())
	}
	render.JSON(w, http.StatusOK, public)
}

type createUserRequest struct {
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Role     model.Role `json:"role"`
	Verified bool       `json:"verified"`
}

func (h *userHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body createUserRequest
	err := decodeJSON(w, r, &body)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	reg, err := h.userService.Create(r.Context(), service.RegisterParams{
		Email:    body.Email,
		Password: body.Password,
		Role:     body.Role,
		Verified: body.Verified,
	})
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusCreated, registered(reg))
}

type updateUserRequest struct {
	Email    *string     `json:"email"`
	Password *string     `json:"password"`
	Role     *model.Role `json:"role"`
	Verified *bool       `json:"verified"`
}

func (h *userHandler) Update(w http.ResponseWriter, r *http.Request) {
	var body updateUserRequest
	err := decodeJSON(w, r, &body)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	user, err := h.userService.Update(r.Context(), ctxkeys.User(r.Context()), r.PathValue("id"), service.UpdateUserParams{
		Email:    body.Email,
		Password: body.Password,
		Role:     body.Role,
		Verified: body.Verified,
	})
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, user.Public())
}

func (h *userHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.userService.Delete(r.Context(), ctxkeys.User(r.Context()), r.PathValue("id"))
	if err != nil {
		render.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UploadImage accepts exactly one image in the multipart field "file" and
// makes it the user's avatar.
func (h *userHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	err := r.ParseMultipartForm(maxUploadBytes)
	if err != nil {
		slog.Warn("failed to parse upload", "error", err)
		render.Error(w, r, service.ErrInvalidImage.Wrap(err))
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	count := 0
	for _, headers := range r.MultipartForm.File {
		count += len(headers)
	}
	headers := r.MultipartForm.File["file"]
	if count != 1 || len(headers) != 1 {
		render.Error(w, r, service.ErrInvalidImage.Wrap(errors.New("expected a single file in field \"file\"")))
		return
	}

	file, err := headers[0].Open()
	if err != nil {
		render.Error(w, r, service.ErrInvalidImage.Wrap(err))
		return
	}
	defer file.Close()

	user, err := h.userService.UploadAvatar(r.Context(), ctxkeys.User(r.Context()), r.PathValue("id"), file, headers[0])
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, user.Public())
}
