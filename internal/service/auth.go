package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nzoschke/apartments/internal/model"
	"github.com/nzoschke/apartments/internal/repository"
	"github.com/nzoschke/apartments/internal/service/social"
	"github.com/nzoschke/apartments/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	userRepository repository.UserRepository
	tokens         *TokenService
	mailer         Mailer
	providers      social.Providers
	bcryptCost     int
	now            func() time.Time
}

func NewAuthService(
	userRepository repository.UserRepository,
	tokens *TokenService,
	mailer Mailer,
	providers social.Providers,
	bcryptCost int,
) *AuthService {
	return &AuthService{
		userRepository: userRepository,
		tokens:         tokens,
		mailer:         mailer,
		providers:      providers,
		bcryptCost:     bcryptCost,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

type RegisterParams struct {
	Email    string
	Password string
	Role     model.Role
	// Verified skips the invitation flow. Only admins may set it.
	Verified bool
}

type Registration struct {
	User  *model.User
	Email Delivery
}

// Register creates a local account and mails its confirmation link.
// A failed email is reported in Registration.Email and does not fail the call.
func (s *AuthService) Register(ctx context.Context, p RegisterParams) (*Registration, error) {
	email := strings.TrimSpace(p.Email)
	if email == "" || p.Password == "" {
		return nil, ErrMissingValues
	}

	err := passwordError(p.Password)
	if err != nil {
		return nil, err
	}

	err = validation.ValidateEmail(email)
	if err != nil {
		return nil, ErrInvalidEmail
	}

	role := p.Role
	if role == "" {
		role = model.RoleClient
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	_, err = s.userRepository.ByEmail(email)
	if err == nil {
		return nil, ErrDuplicateEmail
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	return s.createUser(ctx, email, p.Password, role, p.Verified, nil, "")
}

// createUser persists a new account. Unverified accounts get an invitation
// token and a confirmation email.
func (s *AuthService) createUser(ctx context.Context, email, password string, role model.Role, verified bool, avatar *string, tempPassword string) (*Registration, error) {
	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: &hash,
		Avatar:       avatar,
		Role:         role,
		Verified:     verified,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if !verified {
		invitation := uuid.New().String()
		user.InvitationToken = &invitation
	}

	err = s.userRepository.Create(user)
	if errors.Is(err, repository.ErrDuplicateEmail) {
		return nil, ErrDuplicateEmail
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	delivery := Delivery{Status: DeliverySkipped}
	if user.InvitationToken != nil {
		delivery = s.mailer.SendConfirmation(ctx, user.Email, *user.InvitationToken, tempPassword)
		if delivery.Status == DeliveryFailed {
			slog.Warn("failed to send confirmation email", "error", delivery.Err, "user_id", user.ID)
		}
	}

	slog.Info("user registered", "user_id", user.ID, "role", user.Role, "email_delivery", delivery.Status)
	return &Registration{User: user, Email: delivery}, nil
}

// ConfirmEmail consumes an invitation, verifies its holder and returns a
// fresh session token.
func (s *AuthService) ConfirmEmail(ctx context.Context, invitation string) (string, error) {
	if invitation == "" {
		return "", ErrInvitationNotFound
	}

	user, err := s.userRepository.ByInvitationToken(invitation)
	if errors.Is(err, repository.ErrUserNotFound) {
		return "", ErrInvitationNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", err
	}

	_, err = s.userRepository.ConsumeInvitation(invitation, token)
	if errors.Is(err, repository.ErrInvitationNotFound) {
		return "", ErrInvitationNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to confirm user: %w", err)
	}

	slog.Info("user confirmed", "user_id", user.ID)
	return token, nil
}

// Login checks credentials and replaces the stored session token.
// Unverified accounts are rejected before the password is compared.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.userRepository.ByEmail(email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.Verified {
		return nil, ErrUnverifiedUser
	}

	if !user.HasPassword() || s.ComparePassword(password, *user.PasswordHash) != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.issueSession(user)
	if err != nil {
		return nil, err
	}

	slog.Info("user logged in", "user_id", user.ID)
	user.Token = &token
	return user, nil
}

// LoginWithToken resolves the user behind a session token. Any failure
// yields nil: the caller is treated as anonymous.
func (s *AuthService) LoginWithToken(ctx context.Context, token string) *model.User {
	if token == "" {
		return nil
	}

	userID, err := s.tokens.Validate(token)
	if err != nil {
		slog.Debug("session token rejected", "error", err)
		return nil
	}

	user, err := s.userRepository.ByID(userID)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			slog.Error("failed to load session user", "error", err, "user_id", userID)
		}
		return nil
	}

	if !user.Verified || user.Token == nil {
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(*user.Token), []byte(token)) != 1 {
		return nil
	}

	return user
}

// RegisterWithSocialMedia signs in through an OAuth provider. A known email
// gets its session token back. A new email gets an unverified account and a
// confirmation email, and the returned token is empty.
func (s *AuthService) RegisterWithSocialMedia(ctx context.Context, providerName, code string) (string, error) {
	provider, err := s.providers.Lookup(providerName)
	if err != nil {
		return "", ErrUnknownProvider.Wrap(err)
	}

	accessToken, err := provider.ExchangeCode(ctx, code)
	if err != nil {
		slog.Warn("social code exchange failed", "provider", providerName, "error", err)
		return "", ErrSocialLogin.Wrap(err)
	}

	profile, err := provider.FetchProfile(ctx, accessToken)
	if err != nil {
		slog.Warn("social profile fetch failed", "provider", providerName, "error", err)
		return "", ErrSocialLogin.Wrap(err)
	}

	user, err := s.userRepository.ByEmail(profile.Email)
	if err == nil {
		return s.socialSession(user)
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return "", fmt.Errorf("failed to get user: %w", err)
	}

	tempPassword := uuid.New().String()
	var avatar *string
	if profile.AvatarURL != "" {
		avatar = &profile.AvatarURL
	}

	reg, err := s.createUser(ctx, profile.Email, tempPassword, model.RoleClient, false, avatar, tempPassword)
	if err != nil {
		return "", err
	}

	slog.Info("social account created", "provider", providerName, "user_id", reg.User.ID)
	return "", nil
}

// socialSession returns the stored token of a linked account. Verified
// accounts without a usable token get a fresh one. Unverified accounts get
// none until they confirm.
func (s *AuthService) socialSession(user *model.User) (string, error) {
	if !user.Verified {
		return "", nil
	}

	if user.Token != nil {
		_, err := s.tokens.Validate(*user.Token)
		if err == nil {
			return *user.Token, nil
		}
	}

	return s.issueSession(user)
}

func (s *AuthService) issueSession(user *model.User) (string, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", err
	}

	err = s.userRepository.SetToken(user.ID, token)
	if err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}
	return token, nil
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func (s *AuthService) ComparePassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func passwordError(password string) error {
	err := validation.ValidatePassword(password)
	switch {
	case errors.Is(err, validation.ErrPasswordTooShort):
		return ErrWeakPassword
	case errors.Is(err, validation.ErrPasswordTooLong):
		return ErrPasswordTooLong
	}
	return err
}
