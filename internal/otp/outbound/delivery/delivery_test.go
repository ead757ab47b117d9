package delivery

import (
	"context"
	"errors"
	"testing"
)

type stubChannel struct {
	name      string
	available bool
	sent      []string
	failWith  error
}

func (s *stubChannel) Name() string { return s.name }

func (s *stubChannel) IsAvailable() bool { return s.available }

func (s *stubChannel) Send(_ context.Context, destination, _ string) error {
	if s.failWith != nil {
		return s.failWith
	}
	s.sent = append(s.sent, destination)
	return nil
}

func TestDispatcherRoutesByIdentifierShape(t *testing.T) {
	sms := &stubChannel{name: "sms", available: true}
	email := &stubChannel{name: "email", available: true}
	d := NewDispatcher(sms, email, NewLog())

	ch, err := d.Dispatch(context.Background(), "+919876543210", "msg")
	if err != nil {
		t.Fatalf("Dispatch phone: %v", err)
	}
	if ch != "sms" || len(sms.sent) != 1 {
		t.Fatalf("phone identifier should route to sms, got %q", ch)
	}

	ch, err = d.Dispatch(context.Background(), "a@b.com", "msg")
	if err != nil {
		t.Fatalf("Dispatch email: %v", err)
	}
	if ch != "email" || len(email.sent) != 1 {
		t.Fatalf("email identifier should route to email, got %q", ch)
	}
}

func TestDispatcherFallsBackWhenUnavailable(t *testing.T) {
	sms := &stubChannel{name: "sms", available: false}
	fallback := &stubChannel{name: "log", available: true}
	d := NewDispatcher(sms, NewLog(), fallback)

	ch, err := d.Dispatch(context.Background(), "+919876543210", "msg")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if ch != "log" || len(fallback.sent) != 1 {
		t.Fatalf("unavailable channel should fall back to log, got %q", ch)
	}
}

func TestDispatcherReportsSendFailure(t *testing.T) {
	sms := &stubChannel{name: "sms", available: true, failWith: errors.New("boom")}
	d := NewDispatcher(sms, NewLog(), NewLog())

	ch, err := d.Dispatch(context.Background(), "+919876543210", "msg")
	if err == nil {
		t.Fatalf("send failure must surface to the caller")
	}
	if ch != "sms" {
		t.Fatalf("failure should still name the channel, got %q", ch)
	}
}

func TestSelectSMSChannel(t *testing.T) {
	twilioReady := &stubChannel{name: "twilio", available: true}
	snsNotReady := &stubChannel{name: "aws_sns", available: false}

	if ch := SelectSMSChannel("twilio", twilioReady, snsNotReady); ch.Name() != "twilio" {
		t.Fatalf("configured available provider should be selected, got %q", ch.Name())
	}

	if ch := SelectSMSChannel("TWILIO", twilioReady); ch.Name() != "twilio" {
		t.Fatalf("provider name should match case-insensitively, got %q", ch.Name())
	}

	if ch := SelectSMSChannel("aws_sns", twilioReady, snsNotReady); ch.Name() != "log" {
		t.Fatalf("unconfigured provider should fall back to log, got %q", ch.Name())
	}

	if ch := SelectSMSChannel("something-else", twilioReady); ch.Name() != "log" {
		t.Fatalf("unknown provider should fall back to log, got %q", ch.Name())
	}

	if ch := SelectSMSChannel("", twilioReady); ch.Name() != "log" {
		t.Fatalf("empty provider should fall back to log, got %q", ch.Name())
	}
}

func TestTwilioAvailability(t *testing.T) {
	if NewTwilio(TwilioConfig{}).IsAvailable() {
		t.Fatalf("twilio without credentials should be unavailable")
	}

	ch := NewTwilio(TwilioConfig{AccountSID: "AC123", AuthToken: "secret", FromNumber: "+1000"})
	if !ch.IsAvailable() {
		t.Fatalf("twilio with credentials should be available")
	}
}

func TestSNSAvailability(t *testing.T) {
	ch, err := NewSNS(context.Background(), SNSConfig{})
	if err != nil {
		t.Fatalf("NewSNS without credentials: %v", err)
	}
	if ch.IsAvailable() {
		t.Fatalf("sns without credentials should be unavailable")
	}
}

func TestLogChannelAlwaysAvailable(t *testing.T) {
	ch := NewLog()
	if !ch.IsAvailable() {
		t.Fatalf("log channel must always be available")
	}
	if err := ch.Send(context.Background(), "+919876543210", "msg"); err != nil {
		t.Fatalf("log send: %v", err)
	}
}
