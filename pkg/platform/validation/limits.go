package validation

import (
	"fmt"

	dErrors "facepay/pkg/domain-errors"
)

// HTTP body limits
const (
	// MaxBodySize is the maximum JSON request body size (64 KB).
	MaxBodySize = 64 * 1024

	// DefaultMaxPhotoBytes is the default upload limit for face photos (10 MiB).
	DefaultMaxPhotoBytes = 10 << 20
)

// String element length limits
const (
	// MaxIdentityKeyLength bounds enrollment identity keys (wallet addresses).
	MaxIdentityKeyLength = 100

	// MaxTxHashLength bounds transaction hashes accepted on lookup routes.
	MaxTxHashLength = 130

	// MaxCredentialLength bounds raw credential input before parsing.
	MaxCredentialLength = 200

	// MaxRequestIDLength bounds payment request identifiers.
	MaxRequestIDLength = 128
)

// CheckStringLength validates that a string does not exceed the maximum length.
func CheckStringLength(fieldName, value string, max int) error {
	if len(value) > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s exceeds max length of %d", fieldName, max))
	}
	return nil
}
