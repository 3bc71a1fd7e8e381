package metadata

import (
	"net"
	"net/http"
	"net/netip"
	"strings"

	"facepay/pkg/requestcontext"
)

// MaxXFFHeaderLength bounds the X-Forwarded-For header we are willing to parse.
const MaxXFFHeaderLength = 500

// Config holds configuration for the metadata middleware.
type Config struct {
	// TrustedProxies may set X-Forwarded-For / X-Real-IP. Empty means never trust.
	TrustedProxies []netip.Prefix

	// TerminalFn summarises the User-Agent of the calling merchant terminal.
	// Optional.
	TerminalFn func(userAgent string) string
}

// Middleware stores client IP, User-Agent and terminal description in the context.
type Middleware struct {
	config Config
}

func NewMiddleware(cfg *Config) *Middleware {
	m := &Middleware{}
	if cfg != nil {
		m.config = *cfg
	}
	return m
}

func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent := r.Header.Get("User-Agent")
		ctx := requestcontext.WithClientMetadata(r.Context(), m.clientIP(r), userAgent)
		if m.config.TerminalFn != nil && userAgent != "" {
			ctx = requestcontext.WithTerminal(ctx, m.config.TerminalFn(userAgent))
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// clientIP resolves the originating IP. Forwarding headers are honoured only
// when the direct peer is a trusted proxy.
func (m *Middleware) clientIP(r *http.Request) string {
	peer, ok := peerAddr(r.RemoteAddr)
	if !ok {
		return "unknown"
	}
	if !m.trusted(peer) {
		return peer.String()
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" && len(xff) <= MaxXFFHeaderLength {
		first, _, _ := strings.Cut(xff, ",")
		if addr, err := netip.ParseAddr(strings.TrimSpace(first)); err == nil {
			return addr.String()
		}
		return peer.String()
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" && len(xri) <= MaxXFFHeaderLength {
		if addr, err := netip.ParseAddr(strings.TrimSpace(xri)); err == nil {
			return addr.String()
		}
	}
	return peer.String()
}

func (m *Middleware) trusted(addr netip.Addr) bool {
	for _, prefix := range m.config.TrustedProxies {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

func peerAddr(remoteAddr string) (netip.Addr, bool) {
	if remoteAddr == "" {
		return netip.Addr{}, false
	}
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = strings.Trim(remoteAddr, "[]")
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}
