package repository

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/nzoschke/apartments/internal/model"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateEmail     = errors.New("email already exists")
	ErrInvitationNotFound = errors.New("invitation not found")
)

type UserRepository interface {
	Create(user *model.User) error
	ByID(id string) (*model.User, error)
	ByEmail(email string) (*model.User, error)
	ByInvitationToken(token string) (*model.User, error)
	Users() ([]*model.User, error)
	Update(user *model.User) error
	SetToken(id, token string) error
	ConsumeInvitation(invitationToken, sessionToken string) (*model.User, error)
	Delete(id string) error
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *model.User) error {
	query := `INSERT INTO users (id, email, password_hash, token, invitation_token, avatar, role, verified, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Exec(query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Token,
		user.InvitationToken,
		user.Avatar,
		user.Role,
		user.Verified,
		user.CreatedAt,
		user.UpdatedAt,
	)
	return duplicateEmail(err)
}

func (r *userRepository) ByID(id string) (*model.User, error) {
	return r.get(`SELECT * FROM users WHERE id = $1`, id)
}

func (r *userRepository) ByEmail(email string) (*model.User, error) {
	return r.get(`SELECT * FROM users WHERE email = $1`, email)
}

func (r *userRepository) ByInvitationToken(token string) (*model.User, error) {
	return r.get(`SELECT * FROM users WHERE invitation_token = $1`, token)
}

func (r *userRepository) get(query string, arg string) (*model.User, error) {
	user := &model.User{}
	err := r.db.Get(user, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) Users() ([]*model.User, error) {
	var users []*model.User
	err := r.db.Select(&users, `SELECT * FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) Update(user *model.User) error {
	query := `UPDATE users
	          SET email = $1, password_hash = $2, token = $3, invitation_token = $4, avatar = $5, role = $6, verified = $7, updated_at = $8
	          WHERE id = $9`

	result, err := r.db.Exec(query,
		user.Email,
		user.PasswordHash,
		user.Token,
		user.InvitationToken,
		user.Avatar,
		user.Role,
		user.Verified,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return duplicateEmail(err)
	}
	return affected(result, ErrUserNotFound)
}

func (r *userRepository) SetToken(id, token string) error {
	result, err := r.db.Exec(`UPDATE users SET token = $1 WHERE id = $2`, token, id)
	if err != nil {
		return err
	}
	return affected(result, ErrUserNotFound)
}

// ConsumeInvitation verifies the holder of invitationToken and stores the
// session token in one statement. The invitation is cleared, so only the
// first of two concurrent confirmations succeeds.
func (r *userRepository) ConsumeInvitation(invitationToken, sessionToken string) (*model.User, error) {
	var id string

	query := `
		UPDATE users
		SET verified = TRUE, token = $1, invitation_token = NULL
		WHERE invitation_token = $2
		RETURNING id
	`

	err := r.db.Get(&id, query, sessionToken, invitationToken)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvitationNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.ByID(id)
}

func (r *userRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return affected(result, ErrUserNotFound)
}

// duplicateEmail maps a violation of the users.email unique index from SQLite
// ("users.email") or PostgreSQL ("users_email_key"). Other errors pass through.
func duplicateEmail(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "users.email") || strings.Contains(msg, "users_email_key") {
		return ErrDuplicateEmail
	}
	return err
}

func affected(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
