// Package face defines the face identity resolver the payment and enrollment
// services consume.
package face

//go:generate mockgen -source=face.go -destination=mocks/mocks.go -package=mocks Resolver

import (
	"context"
	"math"
	"time"
)

// Photo is an uploaded biometric sample.
type Photo struct {
	Data     []byte
	MimeType string
}

// Empty reports whether the photo carries no bytes.
func (p Photo) Empty() bool {
	return len(p.Data) == 0
}

// IdentityClaim is the resolver's best guess of who is in a photo.
// Confidence is in [0,100]. Thresholding is the resolver's concern.
type IdentityClaim struct {
	Recognized         bool      `json:"recognized"`
	ClaimedIdentityKey string    `json:"claimed_identity_key,omitempty"`
	Confidence         float64   `json:"confidence"`
	TemplateRef        string    `json:"template_ref,omitempty"`
	ResolvedAt         time.Time `json:"resolved_at"`
}

// Resolver resolves photos to identity claims and registers templates.
// Both operations fail with dErrors.CodeUpstream when the face service is
// unreachable, times out or answers with a malformed response.
type Resolver interface {
	Resolve(ctx context.Context, photo Photo) (*IdentityClaim, error)
	EnrollTemplate(ctx context.Context, identityKey string, photo Photo) (string, error)
}

// ClampConfidence bounds a confidence score to [0,100].
func ClampConfidence(c float64) float64 {
	switch {
	case math.IsNaN(c) || c < 0:
		return 0
	case c > 100:
		return 100
	}
	return c
}
