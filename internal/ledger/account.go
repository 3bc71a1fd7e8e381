package ledger

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"

	dErrors "facepay/pkg/domain-errors"
)

// ed25519Scheme is the single-signer authentication key scheme byte.
const ed25519Scheme = 0x00

// privateKeyPrefix is the AIP-80 prefix some wallets export keys with.
const privateKeyPrefix = "ed25519-priv-"

// Account is an Ed25519 key pair and the address it controls.
type Account struct {
	Address    string
	PublicKey  ed25519.PublicKey
	privateKey ed25519.PrivateKey
}

// GenerateAccount creates a fresh random account.
func GenerateAccount() (*Account, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &Account{Address: AddressFromPublicKey(pub), PublicKey: pub, privateKey: priv}, nil
}

// AccountFromCredential parses a hex Ed25519 private key (32-byte seed or
// 64-byte seed||public key, optional "0x" or "ed25519-priv-0x" prefix).
func AccountFromCredential(cred Credential) (*Account, error) {
	raw := strings.TrimPrefix(cred.Reveal(), privateKeyPrefix)
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "0x"), "0X")
	if raw == "" {
		return nil, dErrors.New(dErrors.CodeCredential, "credential is empty")
	}
	seed, err := hex.DecodeString(raw)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeCredential, "credential is not valid hex")
	}
	switch len(seed) {
	case ed25519.SeedSize:
	case ed25519.PrivateKeySize:
		seed = seed[:ed25519.SeedSize]
	default:
		return nil, dErrors.New(dErrors.CodeCredential,
			fmt.Sprintf("credential must be %d bytes", ed25519.SeedSize))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	return &Account{Address: AddressFromPublicKey(pub), PublicKey: pub, privateKey: priv}, nil
}

// AddressFromPublicKey derives the account address: sha3-256(pubkey || scheme).
func AddressFromPublicKey(pub ed25519.PublicKey) string {
	h := sha3.New256()
	h.Write(pub)
	h.Write([]byte{ed25519Scheme})
	return "0x" + hex.EncodeToString(h.Sum(nil))
}

// Sign signs message with the account key.
func (a *Account) Sign(message []byte) []byte {
	return ed25519.Sign(a.privateKey, message)
}

// PublicKeyHex returns the 0x-prefixed public key.
func (a *Account) PublicKeyHex() string {
	return "0x" + hex.EncodeToString(a.PublicKey)
}

// ExportPrivateKey returns the 0x-prefixed 32-byte seed. Only wallet creation
// hands it back to the caller.
func (a *Account) ExportPrivateKey() Credential {
	return NewCredential("0x" + hex.EncodeToString(a.privateKey.Seed()))
}

// NormalizeAddress lowercases and left-pads a 0x address to 64 hex digits so
// short and long forms compare equal.
func NormalizeAddress(addr string) string {
	addr = strings.ToLower(strings.TrimSpace(addr))
	body, ok := strings.CutPrefix(addr, "0x")
	if !ok || body == "" || len(body) > 64 {
		return addr
	}
	return "0x" + strings.Repeat("0", 64-len(body)) + body
}
