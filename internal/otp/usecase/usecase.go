package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/scrapgain/otp-service/internal/otp/entity"
	"github.com/scrapgain/otp-service/internal/pkg/clock"
	"github.com/scrapgain/otp-service/internal/pkg/config"
	"github.com/scrapgain/otp-service/internal/pkg/goroutine"
	"github.com/scrapgain/otp-service/internal/pkg/hash"
	"github.com/scrapgain/otp-service/internal/pkg/instrument"
	"github.com/scrapgain/otp-service/internal/pkg/passcode"
	"github.com/scrapgain/otp-service/internal/pkg/throttle"
	"github.com/scrapgain/otp-service/internal/pkg/uid"
	"github.com/scrapgain/otp-service/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

// OtpGeneratedEvent describes a passcode that was created and dispatched.
type OtpGeneratedEvent struct {
	ReferenceID      string
	MaskedIdentifier string
	Purpose          entity.Purpose
	Channel          string
	ExpiresAt        time.Time
}

// OtpVerifiedEvent describes a passcode that was successfully consumed.
type OtpVerifiedEvent struct {
	ReferenceID      string
	MaskedIdentifier string
	Purpose          entity.Purpose
	VerifiedAt       time.Time
}

type repoStore interface {
	// PutIfAbsent persists the record with the given TTL only when no record
	// exists under the same key. It reports whether the write happened.
	PutIfAbsent(ctx context.Context, rec entity.Record, ttl time.Duration) (bool, error)

	// Get returns the record for (identifier, purpose) or goerror.ErrNotFound.
	Get(ctx context.Context, identifier string, purpose entity.Purpose) (*entity.Record, error)

	// UpdateKeepTTL overwrites the record while preserving its remaining TTL.
	UpdateKeepTTL(ctx context.Context, rec entity.Record) error

	// Delete removes the record for (identifier, purpose). Deleting a missing
	// record is not an error.
	Delete(ctx context.Context, identifier string, purpose entity.Purpose) error
}

type repoMessaging interface {
	PublishOtpGenerated(ctx context.Context, msg OtpGeneratedEvent) error
	PublishOtpVerified(ctx context.Context, msg OtpVerifiedEvent) error
}

type dispatcher interface {
	// Dispatch delivers the rendered message to the identifier and returns
	// the name of the channel that carried it.
	Dispatch(ctx context.Context, identifier, message string) (string, error)
}

type Usecase struct {
	repoStore     repoStore
	repoMessaging repoMessaging
	dispatcher    dispatcher
	limiter       throttle.Limiter
	validator     validator.Validator
	cfg           config.Config
	bcrypt        hash.Hash
	generator     passcode.Generator
	uuid          uid.StringID
	clock         clock.Clocker
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager
}

type Dependency struct {
	RepoStore     repoStore
	RepoMessaging repoMessaging
	Dispatcher    dispatcher
	Limiter       throttle.Limiter
	Validator     validator.Validator
	Config        config.Config
	Bcrypt        hash.Hash
	Generator     passcode.Generator
	UUID          uid.StringID
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
	Goroutine     *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoStore:     dep.RepoStore,
		repoMessaging: dep.RepoMessaging,
		dispatcher:    dep.Dispatcher,
		limiter:       dep.Limiter,
		validator:     dep.Validator,
		cfg:           dep.Config,
		bcrypt:        dep.Bcrypt,
		generator:     dep.Generator,
		uuid:          dep.UUID,
		clock:         dep.Clock,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("otp.usecase").Start(ctx, name)
}

func (s *Usecase) maxAttempts() int {
	n := s.cfg.GetInt("modules.otp.max_attempts")
	if n < 1 || n > 10 {
		return 5
	}
	return n
}

func (s *Usecase) expiryWindow() time.Duration {
	d := s.cfg.GetMinute("modules.otp.expiry_minutes")
	if d < time.Minute || d > 30*time.Minute {
		return 5 * time.Minute
	}
	return d
}

// normalizeIdentifier trims whitespace and lowercases email identifiers so
// the same inbox never maps to two different records.
func normalizeIdentifier(identifier string) string {
	identifier = strings.TrimSpace(identifier)
	if validator.IsEmailShaped(identifier) {
		return strings.ToLower(identifier)
	}
	return identifier
}
