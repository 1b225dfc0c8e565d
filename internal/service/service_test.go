package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/nzoschke/apartments/internal/db/dbtest"
	"github.com/nzoschke/apartments/internal/model"
	"github.com/nzoschke/apartments/internal/repository"
	"github.com/nzoschke/apartments/internal/service/social"
	"github.com/nzoschke/apartments/internal/storage"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type sentMail struct {
	to              string
	invitationToken string
	tempPassword    string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	fail bool
}

func (m *fakeMailer) SendConfirmation(ctx context.Context, to, invitationToken, tempPassword string) Delivery {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return Delivery{Status: DeliveryFailed, Err: errors.New("smtp down")}
	}
	m.sent = append(m.sent, sentMail{to: to, invitationToken: invitationToken, tempPassword: tempPassword})
	return Delivery{Status: DeliveryDelivered}
}

func (m *fakeMailer) last() sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[len(m.sent)-1]
}

type fakeProvider struct {
	name        string
	profile     social.Profile
	exchangeErr error
	profileErr  error
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) ExchangeCode(ctx context.Context, code string) (string, error) {
	if p.exchangeErr != nil {
		return "", p.exchangeErr
	}
	return "access-" + code, nil
}

func (p *fakeProvider) FetchProfile(ctx context.Context, accessToken string) (social.Profile, error) {
	if p.profileErr != nil {
		return social.Profile{}, p.profileErr
	}
	return p.profile, nil
}

type fixture struct {
	db         *sqlx.DB
	users      repository.UserRepository
	tokens     *TokenService
	mailer     *fakeMailer
	github     *fakeProvider
	storage    *storage.MemoryStorage
	auth       *AuthService
	userSvc    *UserService
	apartments *ApartmentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	database := dbtest.New(t)
	users := repository.NewUserRepository(database)
	tokens := NewTokenService("test-secret", 14*24*time.Hour, nil)
	mailer := &fakeMailer{}
	github := &fakeProvider{name: social.ProviderGitHub, profile: social.Profile{Email: "gh@b.com", AvatarURL: "https://avatars/gh.png"}}
	providers := social.Providers{social.ProviderGitHub: github}
	store := storage.NewMemoryStorage("http://cdn", "uploads/")

	auth := NewAuthService(users, tokens, mailer, providers, bcrypt.MinCost)
	files := NewFileService(repository.NewFileRepository(database), store)

	return &fixture{
		db:         database,
		users:      users,
		tokens:     tokens,
		mailer:     mailer,
		github:     github,
		storage:    store,
		auth:       auth,
		userSvc:    NewUserService(users, auth, files),
		apartments: NewApartmentService(repository.NewApartmentRepository(database), users),
	}
}

// verifiedUser registers and confirms an account.
func (f *fixture) verifiedUser(t *testing.T, email string, role model.Role) *model.User {
	t.Helper()

	reg, err := f.auth.Register(context.Background(), RegisterParams{Email: email, Password: "secret1", Role: role, Verified: true})
	require.NoError(t, err)
	return reg.User
}

func ptr[T any](v T) *T { return &v }
