package store

import dErrors "facepay/pkg/domain-errors"

// Error Contract:
// - Insert returns ErrAlreadyEnrolled when the identity key is present; the
//   stored record is left untouched
// - Get returns ErrNotFound when the identity key is absent
// - Other failures are wrapped infrastructure errors
var (
	ErrNotFound        = dErrors.New(dErrors.CodeNotFound, "enrollment not found")
	ErrAlreadyEnrolled = dErrors.New(dErrors.CodeAlreadyEnrolled, "identity already enrolled")
)
