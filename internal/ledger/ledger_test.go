package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/suite"

	dErrors "facepay/pkg/domain-errors"
)

type LedgerTypesSuite struct {
	suite.Suite
}

func TestLedgerTypesSuite(t *testing.T) {
	suite.Run(t, new(LedgerTypesSuite))
}

func (s *LedgerTypesSuite) TestParseAmount() {
	s.Run("whole and fractional amounts", func() {
		a, err := ParseAmount(5)
		s.Require().NoError(err)
		s.Equal(uint64(500_000_000), a.Units())
		s.Equal("5.00000000", a.String())

		a, err = ParseAmount(0.1)
		s.Require().NoError(err)
		s.Equal(uint64(10_000_000), a.Units())

		a, err = ParseAmount(1.234567891)
		s.Require().NoError(err)
		s.Equal(uint64(123_456_789), a.Units(), "precision below one octa is floored")
	})

	s.Run("rejects non-positive and non-finite", func() {
		for _, v := range []float64{0, -1, math.NaN(), math.Inf(1), math.Inf(-1), 1e-9, 1e11} {
			_, err := ParseAmount(v)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation), "value %v", v)
		}
	})
}

func (s *LedgerTypesSuite) TestAmountJSON() {
	a, err := ParseAmount(2.5)
	s.Require().NoError(err)

	data, err := json.Marshal(a)
	s.Require().NoError(err)
	s.Equal("2.5", string(data))

	var back Amount
	s.Require().NoError(json.Unmarshal(data, &back))
	s.Equal(a, back)
	s.Error(json.Unmarshal([]byte("0"), &back))
}

func (s *LedgerTypesSuite) TestCredentialIsRedacted() {
	cred := NewCredential(" 0xdeadbeef ")
	s.Equal("0xdeadbeef", cred.Reveal())
	s.Equal("[REDACTED]", cred.String())
	s.Equal("[REDACTED]", fmt.Sprintf("%v %+v %#v", cred, cred, cred)[:10])
	s.NotContains(fmt.Sprintf("%v %+v %#v %s", cred, cred, cred, cred), "deadbeef")

	data, err := json.Marshal(struct{ Key Credential }{cred})
	s.Require().NoError(err)
	s.NotContains(string(data), "deadbeef")

	var buf bytes.Buffer
	slog.New(slog.NewJSONHandler(&buf, nil)).Info("payment", "credential", cred)
	s.NotContains(buf.String(), "deadbeef")
}

func (s *LedgerTypesSuite) TestAccountFromCredential() {
	// 32-byte seed of 0x01..0x20
	seed := "0x0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f20"

	acc, err := AccountFromCredential(NewCredential(seed))
	s.Require().NoError(err)
	s.Len(acc.Address, 66)
	s.Equal(acc.Address, AddressFromPublicKey(acc.PublicKey))

	s.Run("prefix forms derive the same address", func() {
		prefixed, err := AccountFromCredential(NewCredential("ed25519-priv-" + seed))
		s.Require().NoError(err)
		s.Equal(acc.Address, prefixed.Address)

		bare, err := AccountFromCredential(NewCredential(seed[2:]))
		s.Require().NoError(err)
		s.Equal(acc.Address, bare.Address)
	})

	s.Run("export round trips", func() {
		again, err := AccountFromCredential(acc.ExportPrivateKey())
		s.Require().NoError(err)
		s.Equal(acc.Address, again.Address)
	})

	s.Run("malformed credentials", func() {
		for _, bad := range []string{"", "0x", "zz", "0x0102"} {
			_, err := AccountFromCredential(NewCredential(bad))
			s.True(dErrors.HasCode(err, dErrors.CodeCredential), "input %q", bad)
		}
	})
}

func (s *LedgerTypesSuite) TestGenerateAccountSigns() {
	acc, err := GenerateAccount()
	s.Require().NoError(err)
	sig := acc.Sign([]byte("message"))
	s.Len(sig, 64)
	s.Len(acc.PublicKeyHex(), 66)
}

func (s *LedgerTypesSuite) TestNormalizeAddress() {
	s.Equal("0x"+fmt.Sprintf("%063d", 0)+"1", NormalizeAddress("0x1"))
	s.Equal(NormalizeAddress("0xABC"), NormalizeAddress("0xabc"))
	s.Equal("merchant", NormalizeAddress("Merchant"))
}

func (s *LedgerTypesSuite) TestPendingHash() {
	s.Run("found through wrapping", func() {
		inner := dErrors.New(dErrors.CodeLedger, "transfer outcome unknown for 0xabc")
		err := fmt.Errorf("pay: %w", &UnconfirmedError{Hash: "0xabc", Err: inner})

		hash, ok := PendingHash(err)
		s.True(ok)
		s.Equal("0xabc", hash)
		s.True(dErrors.HasCode(err, dErrors.CodeLedger))
		s.Equal("pay: transfer outcome unknown for 0xabc", err.Error())
	})

	s.Run("absent on plain ledger errors", func() {
		_, ok := PendingHash(dErrors.New(dErrors.CodeLedger, "transfer failed: submit"))
		s.False(ok)
		_, ok = PendingHash(errors.New("boom"))
		s.False(ok)
	})
}
