package inbound

import (
	"github.com/scrapgain/otp-service/internal/otp/usecase"
	"github.com/scrapgain/otp-service/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for the OTP lifecycle.
type HTTPEndpoint struct {
	uc uc
}

// Generate issues and dispatches a new passcode for an identifier and purpose.
func (h *HTTPEndpoint) Generate(r *router.Request) (any, error) {
	var req GenerateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Generate(r.Context(), usecase.GenerateInput{
		Identifier: req.Identifier,
		Purpose:    req.Purpose,
		Metadata:   req.Metadata,
	})
	if err != nil {
		return nil, err
	}

	return GenerateResponse{
		ReferenceID:      resp.ReferenceID,
		MaskedIdentifier: resp.MaskedIdentifier,
		Purpose:          resp.Purpose.String(),
		ExpiresAt:        resp.ExpiresAt,
	}, nil
}

// Validate checks a candidate passcode and consumes the record on success.
func (h *HTTPEndpoint) Validate(r *router.Request) (any, error) {
	var req ValidateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Validate(r.Context(), usecase.ValidateInput{
		Identifier: req.Identifier,
		Purpose:    req.Purpose,
		Passcode:   req.Passcode,
	})
	if err != nil {
		return nil, err
	}

	out := ValidateResponse{
		Valid:             resp.Valid,
		VerificationToken: resp.VerificationToken,
	}
	if !resp.Valid {
		remaining := resp.RemainingAttempts
		out.RemainingAttempts = &remaining
	}

	return out, nil
}

// Resend invalidates any live passcode and dispatches a fresh one.
func (h *HTTPEndpoint) Resend(r *router.Request) (any, error) {
	var req ResendRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Resend(r.Context(), usecase.ResendInput{
		Identifier: req.Identifier,
		Purpose:    req.Purpose,
		Metadata:   req.Metadata,
	})
	if err != nil {
		return nil, err
	}

	return ResendResponse{
		ReferenceID:      resp.ReferenceID,
		MaskedIdentifier: resp.MaskedIdentifier,
		Purpose:          resp.Purpose.String(),
		ExpiresAt:        resp.ExpiresAt,
	}, nil
}
