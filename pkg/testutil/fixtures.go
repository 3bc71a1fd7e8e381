package testutil

import (
	"testing"

	"facepay/internal/face"
	"facepay/internal/ledger"
)

// Fixed Ed25519 seeds so addresses are stable across runs. Never fund these
// on a public network.
const (
	PayerKey    = "0x0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f20"
	OtherKey    = "0x4142434445464748494a4b4c4d4e4f505152535455565758595a5b5c5d5e5f60"
	MerchantKey = "0x6162636465666768696a6b6c6d6e6f707172737475767778797a7b7c7d7e7f80"
)

// Account parses one of the fixture keys.
func Account(t testing.TB, key string) *ledger.Account {
	t.Helper()
	acc, err := ledger.AccountFromCredential(ledger.NewCredential(key))
	if err != nil {
		t.Fatalf("fixture account: %v", err)
	}
	return acc
}

// Photo returns a small fake JPEG whose bytes are unique per label.
func Photo(label string) face.Photo {
	return face.Photo{Data: append([]byte("\xff\xd8\xff\xe0"), label...), MimeType: "image/jpeg"}
}
