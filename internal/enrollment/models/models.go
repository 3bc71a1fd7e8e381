package models

import (
	"strings"
	"time"

	"facepay/internal/face"
)

// EnrolledIdentity binds an identity key (the customer's ledger address) to
// the face template registered for it. It is never mutated after creation.
type EnrolledIdentity struct {
	IdentityKey string    `json:"identity_key"`
	TemplateRef string    `json:"template_ref"`
	EnrolledAt  time.Time `json:"enrolled_at"`
}

// NormalizeKey is the canonical form identity keys are stored and compared in.
func NormalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Recognition is the result of resolving a photo without paying.
type Recognition struct {
	Claim    *face.IdentityClaim
	Enrolled bool
}
