package validation

import (
	"errors"
	"fmt"
)

var ErrOutOfRange = errors.New("value out of range")

// ValidateText rejects empty strings.
func ValidateText(field, value string) error {
	if len(value) == 0 {
		return fmt.Errorf("%s must not be empty: %w", field, ErrOutOfRange)
	}
	return nil
}

// ValidateMinimum rejects values below 1.
func ValidateMinimum(field string, value float64) error {
	if value < 1 {
		return fmt.Errorf("%s must be at least 1: %w", field, ErrOutOfRange)
	}
	return nil
}

func ValidateLongitude(value float64) error {
	if value < -180 || value > 180 {
		return fmt.Errorf("longitude must be within [-180, 180]: %w", ErrOutOfRange)
	}
	return nil
}

func ValidateLatitude(value float64) error {
	if value < -90 || value > 90 {
		return fmt.Errorf("latitude must be within [-90, 90]: %w", ErrOutOfRange)
	}
	return nil
}
