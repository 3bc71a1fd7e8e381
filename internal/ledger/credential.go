package ledger

import (
	"log/slog"
	"strings"
)

const redacted = "[REDACTED]"

// Credential is secret key material supplied for a single request. It is
// never persisted, and it renders as [REDACTED] in logs, fmt verbs and JSON.
type Credential struct {
	secret string
}

func NewCredential(secret string) Credential {
	return Credential{secret: strings.TrimSpace(secret)}
}

// Reveal returns the secret. Only ledger adapters call it.
func (c Credential) Reveal() string {
	return c.secret
}

func (c Credential) IsZero() bool {
	return c.secret == ""
}

func (c Credential) String() string {
	return redacted
}

func (c Credential) GoString() string {
	return redacted
}

func (c Credential) LogValue() slog.Value {
	return slog.StringValue(redacted)
}

func (c Credential) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redacted + `"`), nil
}

var _ slog.LogValuer = Credential{}
