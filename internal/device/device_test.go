package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	chromeMac    = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	safariIPhone  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
)

func TestDescribe(t *testing.T) {
	assert.Equal(t, "unknown terminal", Describe(""))
	assert.Contains(t, Describe(chromeMac), "Chrome on")
	assert.Contains(t, Describe(safariIPhone), "Safari on")
	assert.NotEmpty(t, Describe("pos-terminal/2.1"))
}
