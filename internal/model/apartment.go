package model

import (
	"encoding/json"
	"time"
)

type Apartment struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Area        float64   `db:"area" json:"area"`
	Price       float64   `db:"price" json:"price"`
	Rooms       int       `db:"rooms" json:"rooms"`
	Longitude   float64   `db:"longitude" json:"longitude"`
	Latitude    float64   `db:"latitude" json:"latitude"`
	RealtorID   string    `db:"realtor_id" json:"-"`
	Rentable    bool      `db:"rentable" json:"rentable"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`

	// Resolved by list queries
	Realtor *PublicUser `db:"-" json:"-"`
}

// MarshalJSON renders "realtor" as the owner's public fields when resolved,
// otherwise as the bare owner id.
func (a Apartment) MarshalJSON() ([]byte, error) {
	type alias Apartment
	var realtor any = a.RealtorID
	if a.Realtor != nil {
		realtor = a.Realtor
	}
	return json.Marshal(struct {
		alias
		Realtor any `json:"realtor"`
	}{alias(a), realtor})
}
