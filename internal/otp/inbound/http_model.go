package inbound

import "time"

type GenerateRequest struct {
	Identifier string            `json:"identifier"`
	Purpose    string            `json:"purpose"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

type GenerateResponse struct {
	ReferenceID      string    `json:"reference_id"`
	MaskedIdentifier string    `json:"masked_identifier"`
	Purpose          string    `json:"purpose"`
	ExpiresAt        time.Time `json:"expires_at"`
}

func (GenerateResponse) Message() string {
	return "OTP has been sent."
}

type ValidateRequest struct {
	Identifier string `json:"identifier"`
	Purpose    string `json:"purpose"`
	Passcode   string `json:"passcode"`
}

type ValidateResponse struct {
	Valid             bool   `json:"valid"`
	RemainingAttempts *int   `json:"remaining_attempts,omitempty"`
	VerificationToken string `json:"verification_token,omitempty"`
}

func (r ValidateResponse) Message() string {
	if r.Valid {
		return "OTP verified successfully."
	}

	return "Invalid OTP."
}

type ResendRequest struct {
	Identifier string            `json:"identifier"`
	Purpose    string            `json:"purpose"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

type ResendResponse struct {
	ReferenceID      string    `json:"reference_id"`
	MaskedIdentifier string    `json:"masked_identifier"`
	Purpose          string    `json:"purpose"`
	ExpiresAt        time.Time `json:"expires_at"`
}

func (ResendResponse) Message() string {
	return "A new OTP has been sent."
}
