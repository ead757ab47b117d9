package usecase

import (
	"context"
	"log/slog"

	"github.com/scrapgain/otp-service/internal/otp/entity"
	"github.com/scrapgain/otp-service/internal/pkg/goerror"
	"github.com/scrapgain/otp-service/internal/pkg/mask"
)

type ResendInput struct {
	Identifier string `validate:"required,identifier"`
	Purpose    string `validate:"required"`
	Metadata   map[string]string
}

// Resend discards any live record for (identifier, purpose) and issues a
// fresh passcode. It is the only path around the already-sent guard, so it
// carries its own rate limit check.
func (s *Usecase) Resend(ctx context.Context, in ResendInput) (*GenerateOutput, error) {
	ctx, span := s.startSpan(ctx, "Resend")
	defer span.End()

	in.Identifier = normalizeIdentifier(in.Identifier)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	purpose := entity.PurposeFromString(in.Purpose)
	if purpose.IsUnknown() {
		return nil, goerror.NewInvalidInput(nil, "purpose", "purpose is not recognized")
	}

	masked := mask.Identifier(in.Identifier)

	allowed, err := s.limiter.Allow(ctx, in.Identifier)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check rate limit", "identifier", masked, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !allowed {
		slog.WarnContext(ctx, "otp resend rate limited", "identifier", masked, "purpose", purpose)
		return nil, goerror.NewBusiness("Too many requests. Please try again later.", goerror.CodeTooManyRequest)
	}

	if err := s.repoStore.Delete(ctx, in.Identifier, purpose); err != nil {
		slog.ErrorContext(ctx, "failed to invalidate previous otp record", "identifier", masked, "purpose", purpose, "error", err)
		return nil, goerror.NewServer(err)
	}

	return s.issue(ctx, in.Identifier, purpose, in.Metadata)
}
