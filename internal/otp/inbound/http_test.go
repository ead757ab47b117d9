package inbound

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/scrapgain/otp-service/internal/otp/entity"
	"github.com/scrapgain/otp-service/internal/otp/usecase"
	"github.com/scrapgain/otp-service/internal/pkg/config"
	"github.com/scrapgain/otp-service/internal/pkg/goerror"
	"github.com/scrapgain/otp-service/internal/pkg/instrument"
	"github.com/scrapgain/otp-service/internal/pkg/router"
	"github.com/scrapgain/otp-service/internal/pkg/uid"
)

type stubUC struct {
	generateOut *usecase.GenerateOutput
	generateErr error
	validateOut *usecase.ValidateOutput
	validateErr error
}

func (s *stubUC) Generate(context.Context, usecase.GenerateInput) (*usecase.GenerateOutput, error) {
	return s.generateOut, s.generateErr
}

func (s *stubUC) Validate(context.Context, usecase.ValidateInput) (*usecase.ValidateOutput, error) {
	return s.validateOut, s.validateErr
}

func (s *stubUC) Resend(context.Context, usecase.ResendInput) (*usecase.GenerateOutput, error) {
	return s.generateOut, s.generateErr
}

func newTestRouter(t *testing.T, uc uc) *router.Router {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte("app:\n  maintenance:\n    endpoints: \"\"\n"))
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	r := router.NewRouter(router.Config{
		Config:     cfg,
		UUID:       uid.NewUUID(),
		Instrument: instrument.NewNoop(),
	})
	RegisterHTTPEndpoint(r, uc)

	return r
}

func doPost(t *testing.T, r *router.Router, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	return rec
}

func TestGenerateEndpoint(t *testing.T) {
	uc := &stubUC{generateOut: &usecase.GenerateOutput{
		ReferenceID:      "ref-123",
		MaskedIdentifier: "+9198****3210",
		Purpose:          entity.PurposeLogin,
		ExpiresAt:        time.Date(2025, 6, 1, 10, 5, 0, 0, time.UTC),
	}}
	r := newTestRouter(t, uc)

	rec := doPost(t, r, "/api/v1/otp/generate", `{"identifier":"+919876543210","purpose":"LOGIN"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Message string `json:"message"`
		Data    struct {
			ReferenceID      string `json:"reference_id"`
			MaskedIdentifier string `json:"masked_identifier"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.ReferenceID != "ref-123" {
		t.Fatalf("reference_id = %q", resp.Data.ReferenceID)
	}
	if resp.Data.MaskedIdentifier != "+9198****3210" {
		t.Fatalf("masked_identifier = %q", resp.Data.MaskedIdentifier)
	}
}

func TestGenerateEndpointErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{goerror.NewBusiness("already sent", goerror.CodeAlreadySent), http.StatusConflict},
		{goerror.NewBusiness("rate limited", goerror.CodeTooManyRequest), http.StatusTooManyRequests},
		{goerror.NewBusiness("delivery failed", goerror.CodeDeliveryFailed), http.StatusBadGateway},
	}

	for _, c := range cases {
		r := newTestRouter(t, &stubUC{generateErr: c.err})

		rec := doPost(t, r, "/api/v1/otp/generate", `{"identifier":"+919876543210","purpose":"LOGIN"}`)
		if rec.Code != c.want {
			t.Fatalf("status for %v = %d, want %d", c.err, rec.Code, c.want)
		}
	}
}

func TestGenerateEndpointRejectsMalformedBody(t *testing.T) {
	r := newTestRouter(t, &stubUC{})

	rec := doPost(t, r, "/api/v1/otp/generate", `{"identifier": `)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	rec = doPost(t, r, "/api/v1/otp/generate", `{"identifier":"x","unknown_field":true}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown fields should be rejected, status = %d", rec.Code)
	}
}

func TestValidateEndpointMismatch(t *testing.T) {
	r := newTestRouter(t, &stubUC{validateOut: &usecase.ValidateOutput{
		Valid:             false,
		RemainingAttempts: 2,
	}})

	rec := doPost(t, r, "/api/v1/otp/validate", `{"identifier":"+919876543210","purpose":"LOGIN","passcode":"000000"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("mismatch is a result, not an error; status = %d", rec.Code)
	}

	var resp struct {
		Data struct {
			Valid             bool   `json:"valid"`
			RemainingAttempts *int   `json:"remaining_attempts"`
			VerificationToken string `json:"verification_token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Valid {
		t.Fatalf("valid should be false")
	}
	if resp.Data.RemainingAttempts == nil || *resp.Data.RemainingAttempts != 2 {
		t.Fatalf("remaining_attempts = %v, want 2", resp.Data.RemainingAttempts)
	}
	if resp.Data.VerificationToken != "" {
		t.Fatalf("mismatch must not carry a verification token")
	}
}

func TestValidateEndpointSuccess(t *testing.T) {
	r := newTestRouter(t, &stubUC{validateOut: &usecase.ValidateOutput{
		Valid:             true,
		VerificationToken: "tok-1",
	}})

	rec := doPost(t, r, "/api/v1/otp/validate", `{"identifier":"+919876543210","purpose":"LOGIN","passcode":"123456"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Data struct {
			Valid             bool   `json:"valid"`
			VerificationToken string `json:"verification_token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Data.Valid || resp.Data.VerificationToken != "tok-1" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestValidateEndpointNotFound(t *testing.T) {
	r := newTestRouter(t, &stubUC{
		validateErr: goerror.NewBusiness("not found", goerror.CodeNotFound),
	})

	rec := doPost(t, r, "/api/v1/otp/validate", `{"identifier":"+919876543210","purpose":"LOGIN","passcode":"123456"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
