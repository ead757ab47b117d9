package mq

import (
	"context"
	"encoding/json"
	"time"

	"github.com/scrapgain/otp-service/internal/otp/usecase"
	"github.com/scrapgain/otp-service/internal/pkg/instrument"
	"github.com/scrapgain/otp-service/internal/pkg/messaging"
	"github.com/scrapgain/otp-service/internal/shared/event"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Messaging
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Messaging, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishOtpGenerated(ctx context.Context, msg usecase.OtpGeneratedEvent) error {
	ctx, span := m.ins.Tracer("otp.outbound.mq").Start(ctx, "PublishOtpGenerated")
	defer span.End()

	body, err := json.Marshal(event.OtpGeneratedMessage{
		ReferenceID:      msg.ReferenceID,
		MaskedIdentifier: msg.MaskedIdentifier,
		Purpose:          msg.Purpose.String(),
		Channel:          msg.Channel,
		ExpiresAt:        msg.ExpiresAt.Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := m.publish(ctx, event.OtpGeneratedDestination, body); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func (m *Messaging) PublishOtpVerified(ctx context.Context, msg usecase.OtpVerifiedEvent) error {
	ctx, span := m.ins.Tracer("otp.outbound.mq").Start(ctx, "PublishOtpVerified")
	defer span.End()

	body, err := json.Marshal(event.OtpVerifiedMessage{
		ReferenceID:      msg.ReferenceID,
		MaskedIdentifier: msg.MaskedIdentifier,
		Purpose:          msg.Purpose.String(),
		VerifiedAt:       msg.VerifiedAt.Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := m.publish(ctx, event.OtpVerifiedDestination, body); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

// publish retries transient broker failures with capped exponential backoff.
// Audit events are best effort; the caller logs the final error.
func (m *Messaging) publish(ctx context.Context, destination string, body []byte) error {
	cID := instrument.GetCorrelationID(ctx)

	backoff := retry.WithMaxRetries(3, retry.NewExponential(100*time.Millisecond))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		_, err := m.client.Publish(ctx, destination, messaging.OutgoingMessage{
			Body:    body,
			Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
		})
		if err != nil {
			return retry.RetryableError(err)
		}

		return nil
	})
}
