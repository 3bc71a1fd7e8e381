package metadata

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"

	"facepay/pkg/requestcontext"
)

func TestMiddlewareHandler(t *testing.T) {
	tests := []struct {
		name           string
		headers        map[string]string
		remoteAddr     string
		trustedProxies []string
		expectedIP     string
	}{
		{
			name:       "ignores XFF from untrusted peers",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.1"},
			remoteAddr: "192.168.1.1:12345",
			expectedIP: "192.168.1.1",
		},
		{
			name:           "trusts XFF from trusted proxy",
			headers:        map[string]string{"X-Forwarded-For": "203.0.113.1, 10.0.0.7"},
			remoteAddr:     "10.0.0.1:12345",
			trustedProxies: []string{"10.0.0.0/8"},
			expectedIP:     "203.0.113.1",
		},
		{
			name:           "uses X-Real-IP from trusted proxy",
			headers:        map[string]string{"X-Real-IP": "198.51.100.4"},
			remoteAddr:     "10.0.0.1:12345",
			trustedProxies: []string{"10.0.0.0/8"},
			expectedIP:     "198.51.100.4",
		},
		{
			name:           "falls back to peer on malformed XFF",
			headers:        map[string]string{"X-Forwarded-For": "not-an-ip"},
			remoteAddr:     "10.0.0.1:12345",
			trustedProxies: []string{"10.0.0.0/8"},
			expectedIP:     "10.0.0.1",
		},
		{
			name:       "handles bracketed IPv6 peers",
			remoteAddr: "[2001:db8::1]:443",
			expectedIP: "2001:db8::1",
		},
		{
			name:       "unknown when peer is unparseable",
			remoteAddr: "garbage",
			expectedIP: "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			for _, p := range tt.trustedProxies {
				cfg.TrustedProxies = append(cfg.TrustedProxies, netip.MustParsePrefix(p))
			}

			var gotIP string
			h := NewMiddleware(cfg).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotIP = requestcontext.ClientIP(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/api", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, tt.expectedIP, gotIP)
		})
	}
}

func TestMiddlewareTerminal(t *testing.T) {
	cfg := &Config{TerminalFn: func(ua string) string { return "terminal:" + ua }}

	var gotUA, gotTerminal string
	h := NewMiddleware(cfg).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = requestcontext.UserAgent(r.Context())
		gotTerminal = requestcontext.Terminal(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/payment/face-pay", nil)
	req.Header.Set("User-Agent", "pos/1.0")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "pos/1.0", gotUA)
	assert.Equal(t, "terminal:pos/1.0", gotTerminal)
}
