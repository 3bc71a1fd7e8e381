package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facepay/internal/face"
	dErrors "facepay/pkg/domain-errors"
)

func TestMatch(t *testing.T) {
	recognized := func(key string, confidence float64) *face.IdentityClaim {
		return &face.IdentityClaim{Recognized: true, ClaimedIdentityKey: key, Confidence: confidence}
	}

	t.Run("exact match", func(t *testing.T) {
		m, err := Match(recognized("C1", 92), "C1")
		require.NoError(t, err)
		assert.Equal(t, "C1", m.IdentityKey)
		assert.Equal(t, 92.0, m.Confidence)
	})

	t.Run("case-only difference matches and keeps the derived form", func(t *testing.T) {
		m, err := Match(recognized("0xABCDEF", 80), "0xabcdef")
		require.NoError(t, err)
		assert.Equal(t, "0xabcdef", m.IdentityKey)

		m, err = Match(recognized("0xabcdef", 80), "0xABCDEF")
		require.NoError(t, err)
		assert.Equal(t, "0xABCDEF", m.IdentityKey)
	})

	t.Run("low confidence is not thresholded here", func(t *testing.T) {
		m, err := Match(recognized("C1", 3), "C1")
		require.NoError(t, err)
		assert.Equal(t, 3.0, m.Confidence)
	})

	t.Run("not recognized", func(t *testing.T) {
		_, err := Match(&face.IdentityClaim{Recognized: false, ClaimedIdentityKey: "C1"}, "C1")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotRecognized))

		_, err = Match(nil, "C1")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotRecognized))
	})

	t.Run("different identity", func(t *testing.T) {
		_, err := Match(recognized("C2", 99), "C1")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeIdentityMismatch))
	})

	t.Run("short and padded addresses are different identities", func(t *testing.T) {
		_, err := Match(recognized("0x1", 99), "0x0000000000000000000000000000000000000000000000000000000000000001")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeIdentityMismatch))
	})

	t.Run("recognized without a claimed key", func(t *testing.T) {
		_, err := Match(recognized("", 99), "C1")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeIdentityMismatch))
	})
}
