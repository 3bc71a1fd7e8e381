// Package matcher binds a face identity claim to the address controlled by
// the credential supplied with a payment. It is the only authorization gate
// in front of the transfer.
package matcher

import (
	"strings"

	"facepay/internal/face"
	dErrors "facepay/pkg/domain-errors"
)

// MatchedIdentity is the payer once photo and credential agree.
type MatchedIdentity struct {
	IdentityKey string
	Confidence  float64
}

// Match fails with CodeNotRecognized when the claim did not recognize anyone
// and with CodeIdentityMismatch when the claimed identity is not
// derivedAddress. Comparison ignores case and surrounding space only.
func Match(claim *face.IdentityClaim, derivedAddress string) (*MatchedIdentity, error) {
	if claim == nil || !claim.Recognized {
		return nil, dErrors.New(dErrors.CodeNotRecognized, "face not recognized")
	}
	claimed := normalize(claim.ClaimedIdentityKey)
	derived := normalize(derivedAddress)
	if claimed == "" || derived == "" || claimed != derived {
		return nil, dErrors.New(dErrors.CodeIdentityMismatch, "face does not match the supplied credential")
	}
	return &MatchedIdentity{IdentityKey: derivedAddress, Confidence: claim.Confidence}, nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
