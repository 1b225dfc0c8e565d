package service

import (
	"net/http"
)

// Error is a failure with a caller-visible status and message.
// errors.Is compares Code, so variants with different messages share a kind.
type Error struct {
	Code    string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Wrap returns a copy of e that carries cause for logging.
func (e *Error) Wrap(cause error) *Error {
	c := *e
	c.Err = cause
	return &c
}

var (
	// Registration and login
	ErrMissingValues      = &Error{Code: "missing_values", Status: http.StatusForbidden, Message: "Missing values"}
	ErrWeakPassword       = &Error{Code: "weak_password", Status: http.StatusForbidden, Message: "Password must be at least 6 characters long"}
	ErrPasswordTooLong    = &Error{Code: "weak_password", Status: http.StatusForbidden, Message: "Password must not exceed 72 bytes"}
	ErrInvalidEmail       = &Error{Code: "invalid_email", Status: http.StatusForbidden, Message: "Invalid email address"}
	ErrDuplicateEmail     = &Error{Code: "duplicate_email", Status: http.StatusForbidden, Message: "Email already exists"}
	ErrInvalidRole        = &Error{Code: "invalid_role", Status: http.StatusForbidden, Message: "Invalid role"}
	ErrInvalidCredentials = &Error{Code: "invalid_credentials", Status: http.StatusForbidden, Message: "Invalid email/password combination"}
	ErrUnverifiedUser     = &Error{Code: "invalid_credentials", Status: http.StatusForbidden, Message: "Unverified user"}
	ErrInvitationNotFound = &Error{Code: "invitation_not_found", Status: http.StatusNotFound, Message: "Invalid token provided"}
	ErrUnknownProvider    = &Error{Code: "unknown_provider", Status: http.StatusBadRequest, Message: "Unknown provider"}
	ErrSocialLogin        = &Error{Code: "upstream_failure", Status: http.StatusInternalServerError, Message: "Social login failed"}

	// Listings
	ErrMissingFields     = &Error{Code: "missing_fields", Status: http.StatusForbidden, Message: "Missing values"}
	ErrMissingTarget     = &Error{Code: "missing_target", Status: http.StatusForbidden, Message: "Missing values"}
	ErrInvalidRange      = &Error{Code: "invalid_range", Status: http.StatusBadRequest, Message: "Incorrect values"}
	ErrApartmentNotFound = &Error{Code: "apartment_not_found", Status: http.StatusNotFound, Message: "Apartment not found"}
	ErrRealtorNotFound   = &Error{Code: "realtor_not_found", Status: http.StatusBadRequest, Message: "Realtor not found"}

	// Users
	ErrUserNotFound = &Error{Code: "user_not_found", Status: http.StatusNotFound, Message: "User not found"}
	ErrInvalidImage = &Error{Code: "invalid_image", Status: http.StatusBadRequest, Message: "Unable to upload image."}

	// Access
	ErrInvalidBody  = &Error{Code: "invalid_body", Status: http.StatusBadRequest, Message: "Invalid request body"}
	ErrUnauthorized = &Error{Code: "unauthorized", Status: http.StatusUnauthorized, Message: "Unauthorized"}
	ErrForbidden    = &Error{Code: "forbidden", Status: http.StatusForbidden, Message: "Forbidden"}
	ErrRateLimited  = &Error{Code: "rate_limited", Status: http.StatusTooManyRequests, Message: "Too many requests. Please try again later."}
)
