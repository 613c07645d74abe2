package repository

import (
	"errors"

	"github.com/lib/pq"
)

// Common repository errors
var (
	// ErrNotFound is returned when a record is not found
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateEmail is returned when trying to store a user with an existing email
	ErrDuplicateEmail = errors.New("user with this email already exists")

	// ErrDuplicateExternalID is returned when a Google account is already linked to another user
	ErrDuplicateExternalID = errors.New("external identity already linked")

	// ErrDuplicateToken is returned when trying to create a token with an existing hash
	ErrDuplicateToken = errors.New("token with this hash already exists")

	// ErrDuplicatePayment is returned when a provider transaction is recorded twice
	ErrDuplicatePayment = errors.New("payment with this transaction id already exists")
)

const (
	pqUniqueViolation = "23505"

	constraintUsersGoogleID = "users_google_id_key"
)

// uniqueViolation reports whether err is a Postgres unique_violation and on which constraint
func uniqueViolation(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return pqErr.Constraint, true
	}
	return "", false
}
