package inbound

import (
	"context"

	"github.com/scrapgain/otp-service/internal/otp/usecase"
	"github.com/scrapgain/otp-service/internal/pkg/router"
)

type uc interface {
	Generate(ctx context.Context, in usecase.GenerateInput) (*usecase.GenerateOutput, error)
	Validate(ctx context.Context, in usecase.ValidateInput) (*usecase.ValidateOutput, error)
	Resend(ctx context.Context, in usecase.ResendInput) (*usecase.GenerateOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/v1/otp/generate", end.Generate)
	r.POST("/api/v1/otp/validate", end.Validate)
	r.POST("/api/v1/otp/resend", end.Resend)
}
