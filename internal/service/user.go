package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"strings"
	"time"

	"github.com/nzoschke/apartments/internal/model"
	"github.com/nzoschke/apartments/internal/repository"
	"github.com/nzoschke/apartments/internal/validation"
)

type UserService struct {
	userRepository repository.UserRepository
	authService    *AuthService
	fileService    *FileService
	now            func() time.Time
}

func NewUserService(userRepository repository.UserRepository, authService *AuthService, fileService *FileService) *UserService {
	return &UserService{
		userRepository: userRepository,
		authService:    authService,
		fileService:    fileService,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (s *UserService) ByID(id string) (*model.User, error) {
	user, err := s.userRepository.ByID(id)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

func (s *UserService) List() ([]*model.User, error) {
	return s.userRepository.Users()
}

// Create registers an account on an admin's behalf.
func (s *UserService) Create(ctx context.Context, p RegisterParams) (*Registration, error) {
	return s.authService.Register(ctx, p)
}

// UpdateUserParams carries the fields to change. Nil fields are left alone.
type UpdateUserParams struct {
	Email    *string
	Password *string
	Role     *model.Role
	Verified *bool
}

// Update applies p to user id. Admins may edit anyone and change role or
// verification. Everyone else may only change their own email and password.
func (s *UserService) Update(ctx context.Context, actor *model.User, id string, p UpdateUserParams) (*model.User, error) {
	err := canManage(actor, id)
	if err != nil {
		return nil, err
	}
	if (p.Role != nil || p.Verified != nil) && !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	user, err := s.ByID(id)
	if err != nil {
		return nil, err
	}

	if p.Email != nil {
		email := strings.TrimSpace(*p.Email)
		err = validation.ValidateEmail(email)
		if err != nil {
			return nil, ErrInvalidEmail
		}
		if email != user.Email {
			_, err = s.userRepository.ByEmail(email)
			if err == nil {
				return nil, ErrDuplicateEmail
			}
			if !errors.Is(err, repository.ErrUserNotFound) {
				return nil, fmt.Errorf("failed to check email: %w", err)
			}
		}
		user.Email = email
	}

	if p.Password != nil {
		err = passwordError(*p.Password)
		if err != nil {
			return nil, err
		}
		hash, err := s.authService.HashPassword(*p.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = &hash
	}

	if p.Role != nil {
		if !p.Role.Valid() {
			return nil, ErrInvalidRole
		}
		user.Role = *p.Role
	}

	if p.Verified != nil {
		user.Verified = *p.Verified
		if user.Verified {
			user.InvitationToken = nil
		}
	}

	user.UpdatedAt = s.now()
	err = s.userRepository.Update(user)
	if errors.Is(err, repository.ErrDuplicateEmail) {
		return nil, ErrDuplicateEmail
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	slog.Info("user updated", "user_id", user.ID, "actor_id", actor.ID)
	return user, nil
}

// Delete removes an account, its stored files and its listings.
func (s *UserService) Delete(ctx context.Context, actor *model.User, id string) error {
	err := canManage(actor, id)
	if err != nil {
		return err
	}

	err = s.fileService.DeleteAllUserFilesFromStorage(ctx, id)
	if err != nil {
		slog.Warn("failed to delete user files from storage", "error", err, "user_id", id)
	}

	err = s.userRepository.Delete(id)
	if errors.Is(err, repository.ErrUserNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	slog.Info("user deleted", "user_id", id, "actor_id", actor.ID)
	return nil
}

// UploadAvatar stores a JPEG or PNG and points the user's avatar at it.
// The previous avatar is removed.
func (s *UserService) UploadAvatar(ctx context.Context, actor *model.User, id string, file multipart.File, header *multipart.FileHeader) (*model.User, error) {
	err := canManage(actor, id)
	if err != nil {
		return nil, err
	}

	mimeType, err := validation.ValidateFile(header, validation.ImageConstraints)
	if err != nil {
		return nil, ErrInvalidImage.Wrap(err)
	}

	user, err := s.ByID(id)
	if err != nil {
		return nil, err
	}

	err = s.fileService.DeleteUserAvatar(ctx, user.ID)
	if err != nil {
		slog.Warn("failed to delete old avatar", "error", err, "user_id", user.ID)
	}

	uploaded, err := s.fileService.Upload(ctx, user.ID, model.FileTypeAvatar, file, header, mimeType)
	if err != nil {
		return nil, ErrInvalidImage.Wrap(err)
	}

	url := s.fileService.URL(uploaded)
	user.Avatar = &url
	user.UpdatedAt = s.now()
	err = s.userRepository.Update(user)
	if err != nil {
		return nil, fmt.Errorf("failed to save avatar: %w", err)
	}

	slog.Info("avatar uploaded", "user_id", user.ID, "size", uploaded.Size)
	return user, nil
}

func canManage(actor *model.User, id string) error {
	if actor == nil {
		return ErrUnauthorized
	}
	if actor.ID != id && !actor.IsAdmin() {
		return ErrForbidden
	}
	return nil
}
