package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/scrapgain/otp-service/internal/otp/entity"
	"github.com/scrapgain/otp-service/internal/pkg/config"
	"github.com/scrapgain/otp-service/internal/pkg/goerror"
	"github.com/scrapgain/otp-service/internal/pkg/goroutine"
	"github.com/scrapgain/otp-service/internal/pkg/instrument"
	"github.com/scrapgain/otp-service/internal/pkg/uid"
	"github.com/scrapgain/otp-service/internal/pkg/validator"
)

// ---- fakes ----

type fakeStore struct {
	mu      sync.Mutex
	records map[string]entity.Record
	failGet error
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]entity.Record)}
}

func (f *fakeStore) PutIfAbsent(_ context.Context, rec entity.Record, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.records[rec.Key()]; exists {
		return false, nil
	}
	f.records[rec.Key()] = rec
	return true, nil
}

func (f *fakeStore) Get(_ context.Context, identifier string, purpose entity.Purpose) (*entity.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failGet != nil {
		return nil, f.failGet
	}

	rec, ok := f.records[entity.BuildKey(identifier, purpose)]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	out := rec
	return &out, nil
}

func (f *fakeStore) UpdateKeepTTL(_ context.Context, rec entity.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.records[rec.Key()]; ok {
		f.records[rec.Key()] = rec
	}
	return nil
}

func (f *fakeStore) Delete(_ context.Context, identifier string, purpose entity.Purpose) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.records, entity.BuildKey(identifier, purpose))
	return nil
}

type fakeDispatcher struct {
	mu       sync.Mutex
	sent     []string // rendered messages, in order
	to       []string
	failWith error
}

func (f *fakeDispatcher) Dispatch(_ context.Context, identifier, message string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failWith != nil {
		return "log", f.failWith
	}
	f.sent = append(f.sent, message)
	f.to = append(f.to, identifier)
	return "log", nil
}

func (f *fakeDispatcher) lastMessage() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1]
}

type fakePublisher struct {
	mu        sync.Mutex
	generated []OtpGeneratedEvent
	verified  []OtpVerifiedEvent
}

func (f *fakePublisher) PublishOtpGenerated(_ context.Context, msg OtpGeneratedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.generated = append(f.generated, msg)
	return nil
}

func (f *fakePublisher) PublishOtpVerified(_ context.Context, msg OtpVerifiedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.verified = append(f.verified, msg)
	return nil
}

type denyLimiter struct{}

func (denyLimiter) Allow(context.Context, string) (bool, error) { return false, nil }

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

type seqGenerator struct {
	mu    sync.Mutex
	codes []string
	idx   int
}

func (g *seqGenerator) Generate() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	code := g.codes[g.idx%len(g.codes)]
	g.idx++
	return code, nil
}

// plainHash avoids bcrypt cost in lifecycle tests; hashing behavior has its
// own tests in the hash package.
type plainHash struct{}

func (plainHash) Hash(str string) ([]byte, error) { return []byte("h:" + str), nil }

func (plainHash) Verify(hashed, str string) bool { return hashed == "h:"+str }

// ---- fixture ----

type fixture struct {
	uc        *Usecase
	store     *fakeStore
	dispatch  *fakeDispatcher
	publisher *fakePublisher
	clock     *fixedClock
	goroutine *goroutine.Manager
}

func newFixture(t *testing.T, mutate func(*Dependency)) *fixture {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(`
modules:
  otp:
    expiry_minutes: 5
    max_attempts: 3
`))
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}

	f := &fixture{
		store:     newFakeStore(),
		dispatch:  &fakeDispatcher{},
		publisher: &fakePublisher{},
		clock:     &fixedClock{now: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)},
		goroutine: goroutine.NewManager(10),
	}

	dep := Dependency{
		RepoStore:     f.store,
		RepoMessaging: f.publisher,
		Dispatcher:    f.dispatch,
		Limiter:       nil,
		Validator:     v,
		Config:        cfg,
		Bcrypt:        plainHash{},
		Generator:     &seqGenerator{codes: []string{"111111", "222222"}},
		UUID:          uid.NewUUID(),
		Clock:         f.clock,
		Instrument:    instrument.NewNoop(),
		Goroutine:     f.goroutine,
	}
	dep.Limiter = allowAll{}
	if mutate != nil {
		mutate(&dep)
	}

	f.uc = New(dep)
	return f
}

type allowAll struct{}

func (allowAll) Allow(context.Context, string) (bool, error) { return true, nil }

func codeFromMessage(t *testing.T, msg string) string {
	t.Helper()

	// The default template is "Your verification code is <code>. ..."
	const marker = "code is "
	i := strings.Index(msg, marker)
	if i < 0 {
		t.Fatalf("message %q does not contain a code", msg)
	}
	rest := msg[i+len(marker):]
	return rest[:strings.Index(rest, ".")]
}

// ---- tests ----

func TestGenerateThenValidateSucceedsOnce(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	gen, err := f.uc.Generate(ctx, GenerateInput{Identifier: "+919876543210", Purpose: "LOGIN"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if gen.ReferenceID == "" {
		t.Fatalf("Generate should return a reference id")
	}
	if strings.Contains(gen.MaskedIdentifier, "76543") {
		t.Fatalf("masked identifier %q leaks digits", gen.MaskedIdentifier)
	}
	if got, want := gen.ExpiresAt, f.clock.now.Add(5*time.Minute); !got.Equal(want) {
		t.Fatalf("ExpiresAt = %v, want %v", got, want)
	}

	code := codeFromMessage(t, f.dispatch.lastMessage())

	out, err := f.uc.Validate(ctx, ValidateInput{Identifier: "+919876543210", Purpose: "LOGIN", Passcode: code})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !out.Valid {
		t.Fatalf("Validate with the dispatched passcode should succeed")
	}
	if out.VerificationToken == "" {
		t.Fatalf("successful validation should issue a verification token")
	}

	// Single use: the record is gone.
	_, err = f.uc.Validate(ctx, ValidateInput{Identifier: "+919876543210", Purpose: "LOGIN", Passcode: code})
	assertCode(t, err, goerror.CodeNotFound)
}

func TestGenerateTwiceReturnsAlreadySent(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	if _, err := f.uc.Generate(ctx, GenerateInput{Identifier: "+919876543210", Purpose: "LOGIN"}); err != nil {
		t.Fatalf("first Generate: %v", err)
	}

	firstHash := f.store.records[entity.BuildKey("+919876543210", entity.PurposeLogin)].SecretHash

	_, err := f.uc.Generate(ctx, GenerateInput{Identifier: "+919876543210", Purpose: "LOGIN"})
	assertCode(t, err, goerror.CodeAlreadySent)

	if got := f.store.records[entity.BuildKey("+919876543210", entity.PurposeLogin)].SecretHash; got != firstHash {
		t.Fatalf("second Generate must not overwrite the first record's hash")
	}
}

func TestGenerateReplacesStaleRecord(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	stale := entity.Record{
		ID:         "stale-id",
		Identifier: "+919876543210",
		Purpose:    entity.PurposeLogin,
		SecretHash: "h:000000",
		ExpiresAt:  f.clock.now.Add(-time.Minute),
	}
	f.store.records[stale.Key()] = stale

	out, err := f.uc.Generate(ctx, GenerateInput{Identifier: "+919876543210", Purpose: "LOGIN"})
	if err != nil {
		t.Fatalf("Generate over a stale record: %v", err)
	}
	if out.ReferenceID == stale.ID {
		t.Fatalf("stale record should have been replaced")
	}

	rec := f.store.records[entity.BuildKey("+919876543210", entity.PurposeLogin)]
	if rec.SecretHash == stale.SecretHash {
		t.Fatalf("stale hash should not survive a fresh issue")
	}
	if rec.ExpiresAt.Before(f.clock.now) {
		t.Fatalf("fresh record must not be expired")
	}
}

func TestGenerateSamePurposeIsolation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	if _, err := f.uc.Generate(ctx, GenerateInput{Identifier: "+919876543210", Purpose: "LOGIN"}); err != nil {
		t.Fatalf("Generate LOGIN: %v", err)
	}
	if _, err := f.uc.Generate(ctx, GenerateInput{Identifier: "+919876543210", Purpose: "TWO_FACTOR"}); err != nil {
		t.Fatalf("Generate TWO_FACTOR for the same identifier should not conflict: %v", err)
	}
}

func TestGenerateRejectsUnknownPurpose(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.uc.Generate(context.Background(), GenerateInput{Identifier: "+919876543210", Purpose: "SOMETHING"})
	if err == nil {
		t.Fatalf("unknown purpose should be rejected")
	}
}

func TestGenerateRateLimited(t *testing.T) {
	f := newFixture(t, func(dep *Dependency) { dep.Limiter = denyLimiter{} })

	_, err := f.uc.Generate(context.Background(), GenerateInput{Identifier: "+919876543210", Purpose: "LOGIN"})
	assertCode(t, err, goerror.CodeTooManyRequest)
}

func TestGenerateDeliveryFailureKeepsRecord(t *testing.T) {
	f := newFixture(t, nil)
	f.dispatch.failWith = errors.New("provider unreachable")
	ctx := context.Background()

	_, err := f.uc.Generate(ctx, GenerateInput{Identifier: "+919876543210", Purpose: "LOGIN"})
	assertCode(t, err, goerror.CodeDeliveryFailed)

	if _, ok := f.store.records[entity.BuildKey("+919876543210", entity.PurposeLogin)]; !ok {
		t.Fatalf("record should remain after delivery failure so the caller can resend")
	}
}

func TestValidateWrongPasscodeBurnsAttempts(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	if _, err := f.uc.Generate(ctx, GenerateInput{Identifier: "+919876543210", Purpose: "LOGIN"}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	code := codeFromMessage(t, f.dispatch.lastMessage())

	for i, want := range []int{2, 1, 0} {
		out, err := f.uc.Validate(ctx, ValidateInput{Identifier: "+919876543210", Purpose: "LOGIN", Passcode: "000000"})
		if err != nil {
			t.Fatalf("wrong Validate #%d: %v", i+1, err)
		}
		if out.Valid {
			t.Fatalf("wrong passcode must not validate")
		}
		if out.RemainingAttempts != want {
			t.Fatalf("RemainingAttempts after wrong #%d = %d, want %d", i+1, out.RemainingAttempts, want)
		}
	}

	// Attempts exhausted: even the correct passcode is refused and the
	// record is removed.
	_, err := f.uc.Validate(ctx, ValidateInput{Identifier: "+919876543210", Purpose: "LOGIN", Passcode: code})
	assertCode(t, err, goerror.CodeMaxAttempts)

	if _, ok := f.store.records[entity.BuildKey("+919876543210", entity.PurposeLogin)]; ok {
		t.Fatalf("exhausted record should be deleted")
	}

	_, err = f.uc.Validate(ctx, ValidateInput{Identifier: "+919876543210", Purpose: "LOGIN", Passcode: code})
	assertCode(t, err, goerror.CodeNotFound)
}

func TestValidateExpiredRecord(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	if _, err := f.uc.Generate(ctx, GenerateInput{Identifier: "+919876543210", Purpose: "LOGIN"}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	code := codeFromMessage(t, f.dispatch.lastMessage())

	// TTL eviction has not fired yet, but the timestamp has passed.
	f.clock.now = f.clock.now.Add(6 * time.Minute)

	_, err := f.uc.Validate(ctx, ValidateInput{Identifier: "+919876543210", Purpose: "LOGIN", Passcode: code})
	assertCode(t, err, goerror.CodeExpired)

	if _, ok := f.store.records[entity.BuildKey("+919876543210", entity.PurposeLogin)]; ok {
		t.Fatalf("expired record should be deleted on lazy detection")
	}
}

func TestValidateAlreadyVerifiedRecord(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	rec := entity.Record{
		ID:          "ref-1",
		Identifier:  "+919876543210",
		Purpose:     entity.PurposeLogin,
		SecretHash:  "h:111111",
		MaxAttempts: 3,
		CreatedAt:   f.clock.now,
		ExpiresAt:   f.clock.now.Add(5 * time.Minute),
		Verified:    true,
	}
	f.store.records[rec.Key()] = rec

	_, err := f.uc.Validate(ctx, ValidateInput{Identifier: "+919876543210", Purpose: "LOGIN", Passcode: "111111"})
	assertCode(t, err, goerror.CodeAlreadyVerified)
}

func TestValidateNotFound(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.uc.Validate(context.Background(), ValidateInput{Identifier: "+919876543210", Purpose: "LOGIN", Passcode: "111111"})
	assertCode(t, err, goerror.CodeNotFound)
}

func TestResendReplacesRecord(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	if _, err := f.uc.Generate(ctx, GenerateInput{Identifier: "+919876543210", Purpose: "LOGIN"}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	oldCode := codeFromMessage(t, f.dispatch.lastMessage())

	resent, err := f.uc.Resend(ctx, ResendInput{Identifier: "+919876543210", Purpose: "LOGIN"})
	if err != nil {
		t.Fatalf("Resend: %v", err)
	}
	newCode := codeFromMessage(t, f.dispatch.lastMessage())

	if oldCode == newCode {
		t.Fatalf("Resend should issue a fresh passcode")
	}
	if resent.ReferenceID == "" {
		t.Fatalf("Resend should return a reference id")
	}

	// The old passcode no longer validates.
	out, err := f.uc.Validate(ctx, ValidateInput{Identifier: "+919876543210", Purpose: "LOGIN", Passcode: oldCode})
	if err != nil {
		t.Fatalf("Validate old code: %v", err)
	}
	if out.Valid {
		t.Fatalf("old passcode must fail after resend")
	}

	// The new one does.
	out, err = f.uc.Validate(ctx, ValidateInput{Identifier: "+919876543210", Purpose: "LOGIN", Passcode: newCode})
	if err != nil {
		t.Fatalf("Validate new code: %v", err)
	}
	if !out.Valid {
		t.Fatalf("new passcode should validate after resend")
	}
}

func TestEmailIdentifierNormalization(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	if _, err := f.uc.Generate(ctx, GenerateInput{Identifier: "John.Doe@Example.COM", Purpose: "REGISTRATION"}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	code := codeFromMessage(t, f.dispatch.lastMessage())

	out, err := f.uc.Validate(ctx, ValidateInput{Identifier: " john.doe@example.com ", Purpose: "registration", Passcode: code})
	if err != nil {
		t.Fatalf("Validate with differently-cased identifier: %v", err)
	}
	if !out.Valid {
		t.Fatalf("normalized identifiers should hit the same record")
	}
}

func TestPasscodeNeverInOutputsOrEvents(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	gen, err := f.uc.Generate(ctx, GenerateInput{Identifier: "+919876543210", Purpose: "LOGIN"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	code := codeFromMessage(t, f.dispatch.lastMessage())

	if strings.Contains(gen.ReferenceID, code) || strings.Contains(gen.MaskedIdentifier, code) {
		t.Fatalf("generate output leaks the passcode")
	}

	rec := f.store.records[entity.BuildKey("+919876543210", entity.PurposeLogin)]
	if rec.SecretHash == code {
		t.Fatalf("record stores the plaintext passcode")
	}

	if err := f.goroutine.Wait(); err != nil {
		t.Fatalf("goroutine.Wait: %v", err)
	}
	for _, ev := range f.publisher.generated {
		if strings.Contains(ev.MaskedIdentifier, code) {
			t.Fatalf("generated event leaks the passcode")
		}
		if ev.Channel == "" {
			t.Fatalf("generated event should name the delivery channel")
		}
	}
}

func TestEventsPublished(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	gen, err := f.uc.Generate(ctx, GenerateInput{Identifier: "+919876543210", Purpose: "LOGIN"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	code := codeFromMessage(t, f.dispatch.lastMessage())

	if _, err := f.uc.Validate(ctx, ValidateInput{Identifier: "+919876543210", Purpose: "LOGIN", Passcode: code}); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if err := f.goroutine.Wait(); err != nil {
		t.Fatalf("goroutine.Wait: %v", err)
	}

	if len(f.publisher.generated) != 1 {
		t.Fatalf("generated events = %d, want 1", len(f.publisher.generated))
	}
	if f.publisher.generated[0].ReferenceID != gen.ReferenceID {
		t.Fatalf("generated event reference = %q, want %q", f.publisher.generated[0].ReferenceID, gen.ReferenceID)
	}
	if len(f.publisher.verified) != 1 {
		t.Fatalf("verified events = %d, want 1", len(f.publisher.verified))
	}
}

func assertCode(t *testing.T, err error, want goerror.Code) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected error with code %v, got nil", want)
	}

	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		t.Fatalf("expected *goerror.Error, got %T: %v", err, err)
	}
	if gerr.Code() != want {
		t.Fatalf("error code = %v, want %v", gerr.Code(), want)
	}
}
