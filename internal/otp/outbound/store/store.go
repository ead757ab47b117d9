package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/scrapgain/otp-service/internal/otp/entity"
	"github.com/scrapgain/otp-service/internal/pkg/goerror"
	"github.com/scrapgain/otp-service/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Store persists OTP records in Redis as JSON values under TTL-bound keys.
// Key expiry is the primary eviction mechanism; callers handle the lazy
// expiry window themselves.
type Store struct {
	client *redis.Client
	ins    instrument.Instrumentation
}

func NewStore(client *redis.Client, ins instrument.Instrumentation) *Store {
	return &Store{client: client, ins: ins}
}

func (s *Store) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("otp.outbound.store").Start(ctx, name)
}

func (s *Store) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// PutIfAbsent writes the record with the given TTL only when its key is
// vacant. SET NX makes the existence check and the write one atomic step, so
// two concurrent generates can never both succeed.
func (s *Store) PutIfAbsent(ctx context.Context, rec entity.Record, ttl time.Duration) (ok bool, err error) {
	ctx, span := s.startSpan(ctx, "PutIfAbsent")
	defer func() { s.endSpan(span, err) }()

	payload, err := json.Marshal(rec)
	if err != nil {
		return false, err
	}

	ok, err = s.client.SetNX(ctx, rec.Key(), payload, ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

// Get loads the record for (identifier, purpose), or goerror.ErrNotFound when
// the key is absent or already evicted.
func (s *Store) Get(ctx context.Context, identifier string, purpose entity.Purpose) (rec *entity.Record, err error) {
	ctx, span := s.startSpan(ctx, "Get")
	defer func() { s.endSpan(span, err) }()

	payload, err := s.client.Get(ctx, entity.BuildKey(identifier, purpose)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, goerror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rec = &entity.Record{}
	if err := json.Unmarshal(payload, rec); err != nil {
		return nil, err
	}

	return rec, nil
}

// UpdateKeepTTL overwrites the record while keeping the remaining TTL, so a
// failed attempt never extends the validity window. XX refuses to resurrect a
// key that expired between read and write.
func (s *Store) UpdateKeepTTL(ctx context.Context, rec entity.Record) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateKeepTTL")
	defer func() { s.endSpan(span, err) }()

	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	_, err = s.client.SetArgs(ctx, rec.Key(), payload, redis.SetArgs{
		Mode:    "XX",
		KeepTTL: true,
	}).Result()
	if errors.Is(err, redis.Nil) {
		// The key expired mid-validation; the next lookup reports not found.
		return nil
	}

	return err
}

// Delete removes the record for (identifier, purpose). Missing keys are not
// an error.
func (s *Store) Delete(ctx context.Context, identifier string, purpose entity.Purpose) (err error) {
	ctx, span := s.startSpan(ctx, "Delete")
	defer func() { s.endSpan(span, err) }()

	return s.client.Del(ctx, entity.BuildKey(identifier, purpose)).Err()
}

// Exists reports whether a live record is present for (identifier, purpose).
func (s *Store) Exists(ctx context.Context, identifier string, purpose entity.Purpose) (ok bool, err error) {
	ctx, span := s.startSpan(ctx, "Exists")
	defer func() { s.endSpan(span, err) }()

	n, err := s.client.Exists(ctx, entity.BuildKey(identifier, purpose)).Result()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}
