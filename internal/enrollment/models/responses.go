package models

import "time"

type EnrollResponse struct {
	WalletAddress string    `json:"wallet_address"`
	TemplateRef   string    `json:"template_ref"`
	EnrolledAt    time.Time `json:"enrolled_at"`
	IsEnrolled    bool      `json:"is_enrolled"`
	Message       string    `json:"message"`
}

type RecognizeResponse struct {
	Recognized    bool      `json:"recognized"`
	WalletAddress string    `json:"wallet_address,omitempty"`
	Confidence    float64   `json:"confidence"`
	TemplateRef   string    `json:"template_ref,omitempty"`
	IsEnrolled    bool      `json:"is_enrolled"`
	RecognizedAt  time.Time `json:"recognized_at"`
	Message       string    `json:"message"`
}

type CheckEnrollmentResponse struct {
	WalletAddress string `json:"wallet_address"`
	IsEnrolled    bool   `json:"is_enrolled"`
	Message       string `json:"message"`
}

type EnrolledListResponse struct {
	Count   int      `json:"count"`
	Wallets []string `json:"wallets"`
	Message string   `json:"message"`
}

type ClearResponse struct {
	Cleared bool   `json:"cleared"`
	Message string `json:"message"`
}
