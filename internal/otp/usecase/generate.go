package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/scrapgain/otp-service/internal/otp/entity"
	"github.com/scrapgain/otp-service/internal/pkg/goerror"
	"github.com/scrapgain/otp-service/internal/pkg/mask"
)

type GenerateInput struct {
	Identifier string `validate:"required,identifier"`
	Purpose    string `validate:"required"`
	Metadata   map[string]string
}

type GenerateOutput struct {
	ReferenceID      string
	MaskedIdentifier string
	Purpose          entity.Purpose
	ExpiresAt        time.Time
}

// Generate issues a fresh passcode for (identifier, purpose), persists its
// hash with a TTL, and dispatches the plaintext to the identifier. The
// plaintext is discarded after dispatch and never returned to the caller.
func (s *Usecase) Generate(ctx context.Context, in GenerateInput) (*GenerateOutput, error) {
	ctx, span := s.startSpan(ctx, "Generate")
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
		slog.WarnContext(ctx, "otp generation rate limited", "identifier", masked, "purpose", purpose)
		return nil, goerror.NewBusiness("Too many requests. Please try again later.", goerror.CodeTooManyRequest)
	}

	return s.issue(ctx, in.Identifier, purpose, in.Metadata)
}

// issue builds, persists and dispatches a new passcode. It is shared by
// Generate and Resend; only Resend clears an existing record first.
func (s *Usecase) issue(ctx context.Context, identifier string, purpose entity.Purpose, metadata map[string]string) (*GenerateOutput, error) {
	masked := mask.Identifier(identifier)

	code, err := s.generator.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate passcode", "identifier", masked, "error", err)
		return nil, goerror.NewServer(err)
	}

	codeHash, err := s.bcrypt.Hash(code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash passcode", "identifier", masked, "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	expiry := s.expiryWindow()

	rec := entity.Record{
		ID:           s.uuid.Generate(),
		Identifier:   identifier,
		Purpose:      purpose,
		SecretHash:   string(codeHash),
		AttemptCount: 0,
		MaxAttempts:  s.maxAttempts(),
		CreatedAt:    now,
		ExpiresAt:    now.Add(expiry),
		Metadata:     metadata,
	}

	stored, err := s.repoStore.PutIfAbsent(ctx, rec, expiry)
	if err != nil {
		slog.ErrorContext(ctx, "failed to persist otp record", "identifier", masked, "purpose", purpose, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !stored {
		// A key can survive past its expiry timestamp when the store eviction
		// has not fired yet. A stale record must not block a fresh issue.
		if !s.clearStale(ctx, identifier, purpose, now) {
			slog.WarnContext(ctx, "otp already issued and still live", "identifier", masked, "purpose", purpose)
			return nil, goerror.NewBusiness("An OTP has already been sent. Please wait before requesting a new one.", goerror.CodeAlreadySent)
		}

		stored, err = s.repoStore.PutIfAbsent(ctx, rec, expiry)
		if err != nil {
			slog.ErrorContext(ctx, "failed to persist otp record", "identifier", masked, "purpose", purpose, "error", err)
			return nil, goerror.NewServer(err)
		}
		if !stored {
			return nil, goerror.NewBusiness("An OTP has already been sent. Please wait before requesting a new one.", goerror.CodeAlreadySent)
		}
	}

	channel, err := s.dispatcher.Dispatch(ctx, identifier, s.renderMessage(code, expiry))
	if err != nil {
		// The record stays in the store so the caller can resend explicitly
		// or wait for natural expiry.
		slog.ErrorContext(ctx, "failed to dispatch otp", "identifier", masked, "purpose", purpose, "error", err)
		return nil, goerror.NewBusiness("Failed to deliver OTP. Please try again.", goerror.CodeDeliveryFailed)
	}

	s.publishGenerated(ctx, OtpGeneratedEvent{
		ReferenceID:      rec.ID,
		MaskedIdentifier: masked,
		Purpose:          purpose,
		Channel:          channel,
		ExpiresAt:        rec.ExpiresAt,
	})

	return &GenerateOutput{
		ReferenceID:      rec.ID,
		MaskedIdentifier: masked,
		Purpose:          purpose,
		ExpiresAt:        rec.ExpiresAt,
	}, nil
}

// clearStale deletes the existing record when it is already past its expiry
// timestamp. It reports whether a stale record was removed.
func (s *Usecase) clearStale(ctx context.Context, identifier string, purpose entity.Purpose, now time.Time) bool {
	existing, err := s.repoStore.Get(ctx, identifier, purpose)
	if err != nil || existing == nil {
		return false
	}
	if !existing.IsExpired(now) {
		return false
	}
	if err := s.repoStore.Delete(ctx, identifier, purpose); err != nil {
		slog.ErrorContext(ctx, "failed to delete stale otp record", "identifier", mask.Identifier(identifier), "purpose", purpose, "error", err)
		return false
	}
	return true
}

func (s *Usecase) renderMessage(code string, expiry time.Duration) string {
	tmpl := s.cfg.GetString("modules.otp.message_template")
	if tmpl == "" {
		tmpl = "Your verification code is %s. It expires in %d minutes. Do not share it with anyone."
	}

	return fmt.Sprintf(tmpl, code, int(expiry.Minutes()))
}

// publishGenerated emits the audit event off the request path. The context is
// detached so an already-answered request does not cancel the publish.
func (s *Usecase) publishGenerated(ctx context.Context, msg OtpGeneratedEvent) {
	s.goroutine.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		if err := s.repoMessaging.PublishOtpGenerated(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "failed to publish otp generated event", "reference_id", msg.ReferenceID, "error", err)
			return err
		}
		return nil
	})
}
