package alert

import (
	"context"
	"fmt"
	"time"

	"lifelink/pkg/types"

	"github.com/go-gomail/gomail"
)

type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// EmailChannel delivers match alerts and onboarding passcodes over SMTP.
type EmailChannel struct {
	sender mailSender
	from   string
}

func NewEmailChannel(cfg EmailConfig) *EmailChannel {
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}

	return &EmailChannel{
		sender: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   from,
	}
}

func (c *EmailChannel) Name() string {
	return "email"
}

func (c *EmailChannel) Send(ctx context.Context, n Notification) error {
	if n.Donor.Email == "" {
		return fmt.Errorf("donor %s has no email address", n.Donor.ID)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", c.from)
	m.SetHeader("To", n.Donor.Email)
	m.SetHeader("Subject", alertSubject(n.Patient))
	m.SetBody("text/plain", alertText(n))

	return c.send(ctx, m)
}

// SendPasscode mails a donor the onboarding passcode.
func (c *EmailChannel) SendPasscode(ctx context.Context, donor *types.DonorProfile, code string, expires time.Time) error {
	m := gomail.NewMessage()
	m.SetHeader("From", c.from)
	m.SetHeader("To", donor.Email)
	m.SetHeader("Subject", "Your LifeLink Verification Code")
	m.SetBody("text/plain", fmt.Sprintf(
		"Welcome to LifeLink! Your one-time passcode is: %s\nThis code expires at %s.",
		code, expires.UTC().Format(time.RFC1123),
	))

	return c.send(ctx, m)
}

func (c *EmailChannel) send(ctx context.Context, m *gomail.Message) error {
	err := runWithContext(ctx, func() error {
		return c.sender.DialAndSend(m)
	})
	if err != nil {
		return fmt.Errorf("error sending email: %w", err)
	}
	return nil
}
