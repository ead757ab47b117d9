package delivery

import (
	"context"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioConfig holds the credentials for the Twilio SMS channel.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

// Twilio sends SMS through the Twilio REST API.
type Twilio struct {
	client *twilio.RestClient
	from   string
	ready  bool
}

func NewTwilio(cfg TwilioConfig) *Twilio {
	ready := cfg.AccountSID != "" && cfg.AuthToken != "" && cfg.FromNumber != ""
	if !ready {
		return &Twilio{ready: false}
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})

	return &Twilio{client: client, from: cfg.FromNumber, ready: true}
}

func (t *Twilio) Name() string {
	return "twilio"
}

func (t *Twilio) IsAvailable() bool {
	return t.ready
}

func (t *Twilio) Send(ctx context.Context, destination, message string) error {
	params := &twilioapi.CreateMessageParams{}
	params.SetTo(destination)
	params.SetFrom(t.from)
	params.SetBody(message)

	_, err := t.client.Api.CreateMessage(params)

	return err
}
