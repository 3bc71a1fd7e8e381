// Package memory is a deterministic in-process face resolver. A photo
// resolves to the identity it was enrolled under when its bytes match
// exactly.
package memory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"facepay/internal/face"
	dErrors "facepay/pkg/domain-errors"
)

// DefaultConfidence is reported for exact photo matches.
const DefaultConfidence = 99.0

type template struct {
	identityKey string
	ref         string
	confidence  float64
}

// Resolver keeps photo fingerprints in memory.
type Resolver struct {
	mu        sync.RWMutex
	templates map[string]template
	failure   error
	now       func() time.Time
	resolves  int
	enrolls   int
}

func New() *Resolver {
	return &Resolver{templates: map[string]template{}, now: time.Now}
}

// Fingerprint is the lookup key of a photo.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Register maps a photo to an identity with a given confidence, bypassing
// enrollment. Used to script claims in tests.
func (r *Resolver) Register(photo face.Photo, identityKey string, confidence float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fp := Fingerprint(photo.Data)
	r.templates[fp] = template{identityKey: identityKey, ref: "tpl-" + fp[:12], confidence: face.ClampConfidence(confidence)}
}

// Fail makes every call return an upstream error wrapping err until cleared
// with nil.
func (r *Resolver) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failure = err
}

// Calls returns the number of Resolve and EnrollTemplate calls.
func (r *Resolver) Calls() (resolves, enrolls int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolves, r.enrolls
}

func (r *Resolver) Resolve(ctx context.Context, photo face.Photo) (*face.IdentityClaim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolves++
	if err := r.check(ctx); err != nil {
		return nil, err
	}

	claim := &face.IdentityClaim{ResolvedAt: r.now().UTC()}
	if t, ok := r.templates[Fingerprint(photo.Data)]; ok {
		claim.Recognized = true
		claim.ClaimedIdentityKey = t.identityKey
		claim.Confidence = t.confidence
		claim.TemplateRef = t.ref
	}
	return claim, nil
}

func (r *Resolver) EnrollTemplate(ctx context.Context, identityKey string, photo face.Photo) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enrolls++
	if err := r.check(ctx); err != nil {
		return "", err
	}

	fp := Fingerprint(photo.Data)
	ref := fmt.Sprintf("tpl-%s", fp[:12])
	r.templates[fp] = template{identityKey: identityKey, ref: ref, confidence: DefaultConfidence}
	return ref, nil
}

func (r *Resolver) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUpstream, "face service call canceled")
	}
	if r.failure != nil {
		return dErrors.Wrap(r.failure, dErrors.CodeUpstream, "face service unavailable")
	}
	return nil
}

var _ face.Resolver = (*Resolver)(nil)
