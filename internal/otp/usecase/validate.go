package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/scrapgain/otp-service/internal/otp/entity"
	"github.com/scrapgain/otp-service/internal/pkg/goerror"
	"github.com/scrapgain/otp-service/internal/pkg/mask"
)

type ValidateInput struct {
	Identifier string `validate:"required,identifier"`
	Purpose    string `validate:"required"`
	Passcode   string `validate:"required,min=4,max=8"`
}

type ValidateOutput struct {
	Valid             bool
	RemainingAttempts int
	VerificationToken string
}

// Validate checks a candidate passcode against the live record for
// (identifier, purpose). A match consumes the record and issues a one-time
// verification token. A mismatch burns one attempt; the remaining count is
// part of the result, not an error. Every call on an existing record either
// deletes it or increments it.
func (s *Usecase) Validate(ctx context.Context, in ValidateInput) (*ValidateOutput, error) {
	ctx, span := s.startSpan(ctx, "Validate")
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

	rec, err := s.repoStore.Get(ctx, in.Identifier, purpose)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "otp record not found", "identifier", masked, "purpose", purpose)
		return nil, goerror.NewBusiness("No OTP found. Please request a new one.", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to load otp record", "identifier", masked, "purpose", purpose, "error", err)
		return nil, goerror.NewServer(err)
	}

	if rec.Verified {
		slog.WarnContext(ctx, "otp replay detected", "identifier", masked, "purpose", purpose)
		return nil, goerror.NewBusiness("OTP has already been used.", goerror.CodeAlreadyVerified)
	}

	// Lazy expiry backstop for the window between expiresAt and TTL eviction.
	if rec.IsExpired(s.clock.Now()) {
		if err := s.repoStore.Delete(ctx, in.Identifier, purpose); err != nil {
			slog.ErrorContext(ctx, "failed to delete expired otp record", "identifier", masked, "error", err)
			return nil, goerror.NewServer(err)
		}
		return nil, goerror.NewBusiness("OTP has expired. Please request a new one.", goerror.CodeExpired)
	}

	if rec.IsMaxAttemptsExceeded() {
		if err := s.repoStore.Delete(ctx, in.Identifier, purpose); err != nil {
			slog.ErrorContext(ctx, "failed to delete exhausted otp record", "identifier", masked, "error", err)
			return nil, goerror.NewServer(err)
		}
		return nil, goerror.NewBusiness("Maximum validation attempts exceeded. Please request a new OTP.", goerror.CodeMaxAttempts)
	}

	if !s.bcrypt.Verify(rec.SecretHash, in.Passcode) {
		rec.IncrementAttempts()
		if err := s.repoStore.UpdateKeepTTL(ctx, *rec); err != nil {
			slog.ErrorContext(ctx, "failed to record failed otp attempt", "identifier", masked, "error", err)
			return nil, goerror.NewServer(err)
		}

		slog.WarnContext(ctx, "otp validation failed",
			"identifier", masked, "purpose", purpose, "remaining_attempts", rec.RemainingAttempts())

		return &ValidateOutput{
			Valid:             false,
			RemainingAttempts: rec.RemainingAttempts(),
		}, nil
	}

	// Single use: a consumed record never survives a successful match.
	if err := s.repoStore.Delete(ctx, in.Identifier, purpose); err != nil {
		slog.ErrorContext(ctx, "failed to consume otp record", "identifier", masked, "error", err)
		return nil, goerror.NewServer(err)
	}

	s.publishVerified(ctx, OtpVerifiedEvent{
		ReferenceID:      rec.ID,
		MaskedIdentifier: masked,
		Purpose:          purpose,
		VerifiedAt:       s.clock.Now(),
	})

	return &ValidateOutput{
		Valid:             true,
		VerificationToken: s.uuid.Generate(),
	}, nil
}

func (s *Usecase) publishVerified(ctx context.Context, msg OtpVerifiedEvent) {
	s.goroutine.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		if err := s.repoMessaging.PublishOtpVerified(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "failed to publish otp verified event", "reference_id", msg.ReferenceID, "error", err)
			return err
		}
		return nil
	})
}
