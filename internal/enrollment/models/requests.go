package models

import (
	"strings"

	"facepay/pkg/platform/validation"
	pkgvalidation "facepay/pkg/validation"
)

// EnrollRequest carries the form fields of an enrollment upload.
type EnrollRequest struct {
	WalletAddress string `json:"walletAddress" validate:"required,notblank,max=100"`
}

func (r *EnrollRequest) Normalize() {
	r.WalletAddress = strings.TrimSpace(r.WalletAddress)
}

func (r *EnrollRequest) Validate() error {
	if err := validation.CheckStringLength("walletAddress", r.WalletAddress, validation.MaxIdentityKeyLength); err != nil {
		return err
	}
	return pkgvalidation.Validate(r)
}

// CheckEnrollmentRequest asks whether a wallet is enrolled.
type CheckEnrollmentRequest struct {
	WalletAddress string `json:"walletAddress" validate:"required,notblank,max=100"`
}

func (r *CheckEnrollmentRequest) Normalize() {
	r.WalletAddress = strings.TrimSpace(r.WalletAddress)
}

func (r *CheckEnrollmentRequest) Validate() error {
	return pkgvalidation.Validate(r)
}
