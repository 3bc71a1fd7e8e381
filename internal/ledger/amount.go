package ledger

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	dErrors "facepay/pkg/domain-errors"
)

// Decimals is the fixed-point precision of ledger amounts.
const Decimals = 8

// UnitsPerCoin is the number of base units (octas) in one whole coin.
const UnitsPerCoin = 100_000_000

// Amount is a positive fixed-point ledger amount in base units.
type Amount uint64

// maxWholeCoins keeps float conversion exact enough and within uint64.
const maxWholeCoins = 1e10

// ParseAmount converts a decimal coin amount into base units, flooring any
// precision below 1e-8. Zero, negative, NaN, infinite and sub-unit amounts
// are validation errors.
func ParseAmount(v float64) (Amount, error) {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return 0, dErrors.New(dErrors.CodeValidation, "amount must be a finite number")
	case v <= 0:
		return 0, dErrors.New(dErrors.CodeValidation, "amount must be greater than 0")
	case v > maxWholeCoins:
		return 0, dErrors.New(dErrors.CodeValidation, "amount is too large")
	}
	// Round at 1e-4 of a unit first so 0.1*1e8 style float noise does not lose an octa.
	units := math.Floor(math.Round(v*UnitsPerCoin*1e4) / 1e4)
	if units < 1 {
		return 0, dErrors.New(dErrors.CodeValidation, "amount is below the smallest ledger unit")
	}
	return Amount(units), nil
}

// Units returns the amount in base units.
func (a Amount) Units() uint64 {
	return uint64(a)
}

// Coins returns the amount as a decimal coin value.
func (a Amount) Coins() float64 {
	return float64(a) / UnitsPerCoin
}

// String renders the amount with full precision, e.g. "5.00000000".
func (a Amount) String() string {
	return fmt.Sprintf("%d.%08d", uint64(a)/UnitsPerCoin, uint64(a)%UnitsPerCoin)
}

// MarshalJSON renders the amount as a decimal number of coins.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(a.Coins(), 'f', -1, 64)), nil
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	parsed, err := ParseAmount(v)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
