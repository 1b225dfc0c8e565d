package service

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nzoschke/apartments/internal/model"
	"github.com/nzoschke/apartments/internal/repository"
	"github.com/nzoschke/apartments/internal/validation"
)

// ApartmentFields is a listing payload. Nil means the field was not sent.
type ApartmentFields struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Area        *float64 `json:"area"`
	Price       *float64 `json:"price"`
	Rooms       *int     `json:"rooms"`
	Longitude   *float64 `json:"longitude"`
	Latitude    *float64 `json:"latitude"`
	Rentable    *bool    `json:"rentable"`
	// Owner is honoured for admins only.
	Owner *string `json:"user"`
}

func (f ApartmentFields) complete() bool {
	return f.Name != nil && f.Description != nil && f.Area != nil && f.Price != nil &&
		f.Rooms != nil && f.Longitude != nil && f.Latitude != nil
}

// validate checks the bounds of every field that is present.
func (f ApartmentFields) validate() error {
	var errs []error
	if f.Name != nil {
		errs = append(errs, validation.ValidateText("name", *f.Name))
	}
	if f.Description != nil {
		errs = append(errs, validation.ValidateText("description", *f.Description))
	}
	if f.Area != nil {
		errs = append(errs, validation.ValidateMinimum("area", *f.Area))
	}
	if f.Price != nil {
		errs = append(errs, validation.ValidateMinimum("price", *f.Price))
	}
	if f.Rooms != nil {
		errs = append(errs, validation.ValidateMinimum("rooms", float64(*f.Rooms)))
	}
	if f.Longitude != nil {
		errs = append(errs, validation.ValidateLongitude(*f.Longitude))
	}
	if f.Latitude != nil {
		errs = append(errs, validation.ValidateLatitude(*f.Latitude))
	}

	err := errors.Join(errs...)
	if err != nil {
		return ErrInvalidRange.Wrap(err)
	}
	return nil
}

// ApartmentService manages listings. Callers decide whether the acting user
// may write listings at all.
type ApartmentService struct {
	apartmentRepository repository.ApartmentRepository
	userRepository      repository.UserRepository
	now                 func() time.Time
}

func NewApartmentService(apartmentRepository repository.ApartmentRepository, userRepository repository.UserRepository) *ApartmentService {
	return &ApartmentService{
		apartmentRepository: apartmentRepository,
		userRepository:      userRepository,
		now:                 func() time.Time { return time.Now().UTC() },
	}
}

// List returns listings, most recently updated first. Clients only see
// rentable ones.
func (s *ApartmentService) List(isClient bool) ([]*model.Apartment, error) {
	apartments, err := s.apartmentRepository.Apartments(isClient)
	if err != nil {
		return nil, fmt.Errorf("failed to list apartments: %w", err)
	}
	return apartments, nil
}

func (s *ApartmentService) Create(fields ApartmentFields, actor *model.User) (*model.Apartment, error) {
	if !fields.complete() {
		return nil, ErrMissingFields
	}
	if actor.IsAdmin() && (fields.Owner == nil || *fields.Owner == "") {
		return nil, ErrMissingFields
	}

	err := fields.validate()
	if err != nil {
		return nil, err
	}

	owner, err := s.owner(fields, actor)
	if err != nil {
		return nil, err
	}

	rentable := true
	if fields.Rentable != nil {
		rentable = *fields.Rentable
	}

	now := s.now()
	apartment := &model.Apartment{
		ID:          uuid.New().String(),
		Name:        *fields.Name,
		Description: *fields.Description,
		Area:        *fields.Area,
		Price:       *fields.Price,
		Rooms:       *fields.Rooms,
		Longitude:   *fields.Longitude,
		Latitude:    *fields.Latitude,
		RealtorID:   owner,
		Rentable:    rentable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.apartmentRepository.Create(apartment)
	if err != nil {
		return nil, fmt.Errorf("failed to create apartment: %w", err)
	}

	slog.Info("apartment created", "apartment_id", apartment.ID, "realtor_id", owner, "actor_id", actor.ID)
	return apartment, nil
}

// Update applies the present fields. Only admins may edit listings they do
// not own or move a listing to another realtor.
func (s *ApartmentService) Update(id string, fields ApartmentFields, actor *model.User) (*model.Apartment, error) {
	if id == "" {
		return nil, ErrMissingTarget
	}

	err := fields.validate()
	if err != nil {
		return nil, err
	}

	apartment, err := s.apartmentRepository.ByID(id)
	if errors.Is(err, repository.ErrApartmentNotFound) {
		return nil, ErrApartmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get apartment: %w", err)
	}

	if !actor.IsAdmin() && apartment.RealtorID != actor.ID {
		return nil, ErrForbidden
	}

	if fields.Name != nil {
		apartment.Name = *fields.Name
	}
	if fields.Description != nil {
		apartment.Description = *fields.Description
	}
	if fields.Area != nil {
		apartment.Area = *fields.Area
	}
	if fields.Price != nil {
		apartment.Price = *fields.Price
	}
	if fields.Rooms != nil {
		apartment.Rooms = *fields.Rooms
	}
	if fields.Longitude != nil {
		apartment.Longitude = *fields.Longitude
	}
	if fields.Latitude != nil {
		apartment.Latitude = *fields.Latitude
	}
	if fields.Rentable != nil {
		apartment.Rentable = *fields.Rentable
	}
	if actor.IsAdmin() && fields.Owner != nil && *fields.Owner != "" {
		owner, err := s.owner(fields, actor)
		if err != nil {
			return nil, err
		}
		apartment.RealtorID = owner
	}

	apartment.UpdatedAt = s.now()
	err = s.apartmentRepository.Update(apartment)
	if errors.Is(err, repository.ErrApartmentNotFound) {
		return nil, ErrApartmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update apartment: %w", err)
	}

	slog.Info("apartment updated", "apartment_id", apartment.ID, "actor_id", actor.ID)
	return apartment, nil
}

// Delete removes a listing. Unknown ids succeed.
func (s *ApartmentService) Delete(id string) error {
	if id == "" {
		return ErrMissingTarget
	}

	err := s.apartmentRepository.Delete(id)
	if err != nil {
		return fmt.Errorf("failed to delete apartment: %w", err)
	}
	return nil
}

// owner is the admin-chosen realtor, or the actor for everyone else.
func (s *ApartmentService) owner(fields ApartmentFields, actor *model.User) (string, error) {
	if !actor.IsAdmin() {
		return actor.ID, nil
	}

	_, err := s.userRepository.ByID(*fields.Owner)
	if errors.Is(err, repository.ErrUserNotFound) {
		return "", ErrRealtorNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get realtor: %w", err)
	}
	return *fields.Owner, nil
}
