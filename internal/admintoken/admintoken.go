// Package admintoken issues and validates HS256 tokens for operator routes
// (clearing enrollments, minting rewards, listing partial payments).
package admintoken

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "facepay/pkg/domain-errors"
	"facepay/pkg/requestcontext"
)

const (
	Issuer   = "facepay"
	Audience = "facepay-admin"
	// ScopeAdmin is the only scope admin routes accept.
	ScopeAdmin = "facepay:admin"
)

// Claims are the admin token claims.
type Claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// Service handles admin token creation and validation.
type Service struct {
	signingKey []byte
	ttl        time.Duration
}

// NewService returns nil when signingKey is empty; admin routes are then disabled.
func NewService(signingKey string, ttl time.Duration) *Service {
	if signingKey == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{signingKey: []byte(signingKey), ttl: ttl}
}

// Issue signs a token for subject (an operator name).
func (s *Service) Issue(ctx context.Context, subject string) (string, error) {
	if subject == "" {
		return "", dErrors.New(dErrors.CodeValidation, "subject is required")
	}
	now := requestcontext.Now(ctx)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Scope: ScopeAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    Issuer,
			Audience:  jwt.ClaimStrings{Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.NewString(),
		},
	})
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "sign admin token")
	}
	return signed, nil
}

// Validate checks signature, algorithm, issuer, audience, expiry and scope.
func (s *Service) Validate(tokenString string) (*Claims, error) {
	claims := new(Claims)
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(Audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if claims.Scope != ScopeAdmin {
		return nil, dErrors.New(dErrors.CodeForbidden, "admin scope required")
	}
	return claims, nil
}

// ValidateSubject validates token and returns its subject.
func (s *Service) ValidateSubject(token string) (string, error) {
	claims, err := s.Validate(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}
