package messaging

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewFromDriverNoop(t *testing.T) {
	for _, driver := range []string{DriverNoop, "", "  "} {
		m, err := NewFromDriver(driver, FactoryOptions{})
		if err != nil {
			t.Fatalf("NewFromDriver(%q) error = %v", driver, err)
		}
		if _, ok := m.(*Noop); !ok {
			t.Fatalf("NewFromDriver(%q) = %T, want *Noop", driver, m)
		}
	}
}

func TestNewFromDriverUnknown(t *testing.T) {
	_, err := NewFromDriver("rabbitmq", FactoryOptions{})
	if !errors.Is(err, ErrUnknownDriver) {
		t.Fatalf("NewFromDriver(rabbitmq) error = %v, want ErrUnknownDriver", err)
	}
}

func TestNewFromDriverKafkaRequiresBrokers(t *testing.T) {
	_, err := NewFromDriver(DriverKafka, FactoryOptions{})
	if !errors.Is(err, ErrKafkaBrokersRequired) {
		t.Fatalf("NewFromDriver(kafka) error = %v, want ErrKafkaBrokersRequired", err)
	}
}

func TestNewFromDriverNATSRequiresURL(t *testing.T) {
	_, err := NewFromDriver(DriverNATS, FactoryOptions{})
	if !errors.Is(err, ErrNATSURLRequired) {
		t.Fatalf("NewFromDriver(nats) error = %v, want ErrNATSURLRequired", err)
	}
}

func TestNoopPublish(t *testing.T) {
	n := NewNoop()
	defer n.Close()

	res, err := n.Publish(context.Background(), "otp_generated", OutgoingMessage{Body: []byte("{}")})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if res.Topic != "otp_generated" {
		t.Fatalf("Publish() topic = %q, want otp_generated", res.Topic)
	}
}

func TestNoopConsumeStopsOnContextCancel(t *testing.T) {
	n := NewNoop()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := n.Consume(ctx, "otp_generated", func(context.Context, Message) error { return nil })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Consume() error = %v, want context.DeadlineExceeded", err)
	}
}
