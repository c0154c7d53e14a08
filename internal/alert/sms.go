package alert

import (
	"context"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

type messageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

type SMSConfig struct {
	AccountSID  string
	AuthToken   string
	FromNumber  string
	CountryCode string
}

type SMSChannel struct {
	messages    messageCreator
	from        string
	countryCode string
}

func NewSMSChannel(cfg SMSConfig) *SMSChannel {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})

	return &SMSChannel{
		messages:    client.Api,
		from:        cfg.FromNumber,
		countryCode: cfg.CountryCode,
	}
}

func (c *SMSChannel) Name() string {
	return "sms"
}

func (c *SMSChannel) Send(ctx context.Context, n Notification) error {
	if n.Donor.Phone == "" {
		return fmt.Errorf("donor %s has no phone number", n.Donor.ID)
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(c.e164(n.Donor.Phone))
	params.SetFrom(c.from)
	params.SetBody(alertSMS(n))

	return runWithContext(ctx, func() error {
		_, err := c.messages.CreateMessage(params)
		if err != nil {
			return fmt.Errorf("error sending sms: %w", err)
		}
		return nil
	})
}

// e164 prefixes stored 10 digit numbers with the configured country code.
func (c *SMSChannel) e164(phone string) string {
	if strings.HasPrefix(phone, "+") {
		return phone
	}
	return c.countryCode + phone
}
