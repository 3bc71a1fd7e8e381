package models

import (
	"math"
	"strconv"
	"strings"

	dErrors "facepay/pkg/domain-errors"
	"facepay/pkg/platform/validation"
	pkgvalidation "facepay/pkg/validation"
)

// FacePayRequest carries the form fields of a face payment upload.
type FacePayRequest struct {
	MerchantAddress string `form:"merchantAddress" validate:"required,ledgeraddr"`
	Amount          string `form:"amount" validate:"required"`
	FromPrivateKey  string `form:"fromPrivateKey" json:"-" validate:"required,notblank"`
}

func (r *FacePayRequest) Normalize() {
	r.MerchantAddress = strings.TrimSpace(r.MerchantAddress)
	r.Amount = strings.TrimSpace(r.Amount)
	r.FromPrivateKey = strings.TrimSpace(r.FromPrivateKey)
}

func (r *FacePayRequest) Validate() error {
	if err := validation.CheckStringLength("fromPrivateKey", r.FromPrivateKey, validation.MaxCredentialLength); err != nil {
		return err
	}
	if err := pkgvalidation.Validate(r); err != nil {
		return err
	}
	if _, err := r.ParsedAmount(); err != nil {
		return err
	}
	return nil
}

// ParsedAmount returns the amount in coins. Range checks happen when the
// amount is converted to ledger units.
func (r *FacePayRequest) ParsedAmount() (float64, error) {
	v, err := strconv.ParseFloat(r.Amount, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, dErrors.New(dErrors.CodeValidation, "amount must be a number")
	}
	return v, nil
}
