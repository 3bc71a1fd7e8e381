package privacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnonymizeIP(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"ipv4 address", "192.168.1.47", "192.168.1.0"},
		{"ipv4 localhost", "127.0.0.1", "127.0.0.0"},
		{"ipv4-mapped ipv6", "::ffff:10.1.2.3", "10.1.2.0"},
		{"ipv6 address", "2001:db8:85a3::8a2e:370:7334", "2001:db8:85a3::"},
		{"empty", "", "unknown"},
		{"unknown marker", "unknown", "unknown"},
		{"garbage", "not-an-ip", "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AnonymizeIP(tt.input))
		})
	}
}

func TestShortAddress(t *testing.T) {
	assert.Equal(t, "0x1a2b…9f8e", ShortAddress("0x1A2B000000000000000000000000000000000000000000000000000000009F8E"))
	assert.Equal(t, "0x1", ShortAddress("0x1"))
	assert.Equal(t, "M1", ShortAddress("M1"))
}
