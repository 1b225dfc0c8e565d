package repository

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/nzoschke/apartments/internal/model"
)

var (
	ErrApartmentNotFound = errors.New("apartment not found")
)

type ApartmentRepository interface {
	Create(apartment *model.Apartment) error
	ByID(id string) (*model.Apartment, error)
	Apartments(rentableOnly bool) ([]*model.Apartment, error)
	Update(apartment *model.Apartment) error
	Delete(id string) error
}

type apartmentRepository struct {
	db *sqlx.DB
}

func NewApartmentRepository(db *sqlx.DB) ApartmentRepository {
	return &apartmentRepository{db: db}
}

// apartmentRow carries the joined realtor columns of a list query.
type apartmentRow struct {
	model.Apartment
	RealtorEmail    string  `db:"realtor_email"`
	RealtorAvatar   *string `db:"realtor_avatar"`
	RealtorRole     string  `db:"realtor_role"`
	RealtorVerified bool    `db:"realtor_verified"`
}

func (r *apartmentRepository) Create(apartment *model.Apartment) error {
	query := `INSERT INTO apartments (id, name, description, area, price, rooms, longitude, latitude, realtor_id, rentable, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.Exec(query,
		apartment.ID,
		apartment.Name,
		apartment.Description,
		apartment.Area,
		apartment.Price,
		apartment.Rooms,
		apartment.Longitude,
		apartment.Latitude,
		apartment.RealtorID,
		apartment.Rentable,
		apartment.CreatedAt,
		apartment.UpdatedAt,
	)
	return err
}

func (r *apartmentRepository) ByID(id string) (*model.Apartment, error) {
	apartment := &model.Apartment{}
	err := r.db.Get(apartment, `SELECT * FROM apartments WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrApartmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return apartment, nil
}

// Apartments returns listings newest update first, each with its realtor resolved.
func (r *apartmentRepository) Apartments(rentableOnly bool) ([]*model.Apartment, error) {
	query := `
		SELECT a.*,
		       u.email AS realtor_email,
		       u.avatar AS realtor_avatar,
		       u.role AS realtor_role,
		       u.verified AS realtor_verified
		FROM apartments a
		JOIN users u ON u.id = a.realtor_id
		WHERE ($1 = FALSE OR a.rentable = TRUE)
		ORDER BY a.updated_at DESC, a.id
	`

	var rows []apartmentRow
	err := r.db.Select(&rows, query, rentableOnly)
	if err != nil {
		return nil, err
	}

	apartments := make([]*model.Apartment, 0, len(rows))
	for i := range rows {
		row := rows[i]
		realtor := &model.User{
			ID:       row.RealtorID,
			Email:    row.RealtorEmail,
			Avatar:   row.RealtorAvatar,
			Role:     model.Role(row.RealtorRole),
			Verified: row.RealtorVerified,
		}
		apartment := row.Apartment
		apartment.Realtor = realtor.Public()
		apartments = append(apartments, &apartment)
	}
	return apartments, nil
}

func (r *apartmentRepository) Update(apartment *model.Apartment) error {
	query := `UPDATE apartments
	          SET name = $1, description = $2, area = $3, price = $4, rooms = $5, longitude = $6, latitude = $7, realtor_id = $8, rentable = $9, updated_at = $10
	          WHERE id = $11`

	result, err := r.db.Exec(query,
		apartment.Name,
		apartment.Description,
		apartment.Area,
		apartment.Price,
		apartment.Rooms,
		apartment.Longitude,
		apartment.Latitude,
		apartment.RealtorID,
		apartment.Rentable,
		apartment.UpdatedAt,
		apartment.ID,
	)
	if err != nil {
		return err
	}
	return affected(result, ErrApartmentNotFound)
}

// Delete is a no-op for unknown ids.
func (r *apartmentRepository) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM apartments WHERE id = $1`, id)
	return err
}
