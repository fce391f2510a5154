// Package mail sends the site's transactional email.
//
// The only email the site sends today is the contact-form pair: an
// acknowledgement to the visitor and a relay of their message to the owner.
// Delivery goes through an SMTP relay (Gmail by default) with STARTTLS and
// PLAIN auth, using the owner's address and app password.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// Message is a plaintext email. From is always the configured sender.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers messages. Implementations must be safe for concurrent use.
type Mailer interface {
	Send(ctx context.Context, msgs ...Message) error
}

// SMTPConfig configures SMTPMailer.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string // also the From address
	Password string
	Timeout  time.Duration
}

// SMTPMailer sends over one SMTP connection per Send call.
type SMTPMailer struct {
	client *gomail.Client
	from   string
}

// NewSMTPMailer builds the client. It does not connect until Send.
func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	client, err := gomail.NewClient(cfg.Host,
		gomail.WithPort(cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.Username),
		gomail.WithPassword(cfg.Password),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
		gomail.WithTimeout(cfg.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("mail: creating smtp client: %w", err)
	}
	return &SMTPMailer{client: client, from: cfg.Username}, nil
}

// Send delivers msgs in a single SMTP session.
func (m *SMTPMailer) Send(ctx context.Context, msgs ...Message) error {
	built := make([]*gomail.Msg, 0, len(msgs))
	for _, msg := range msgs {
		gm, err := buildMsg(m.from, msg)
		if err != nil {
			return err
		}
		built = append(built, gm)
	}

	if err := m.client.DialAndSendWithContext(ctx, built...); err != nil {
		return fmt.Errorf("mail: sending %d message(s): %w", len(built), err)
	}
	return nil
}

func buildMsg(from string, msg Message) (*gomail.Msg, error) {
	gm := gomail.NewMsg()
	if err := gm.From(from); err != nil {
		return nil, fmt.Errorf("mail: invalid from address %q: %w", from, err)
	}
	if err := gm.To(msg.To); err != nil {
		return nil, fmt.Errorf("mail: invalid to address %q: %w", msg.To, err)
	}
	gm.Subject(msg.Subject)
	gm.SetBodyString(gomail.TypeTextPlain, msg.Body)
	return gm, nil
}

// LogMailer stands in when no SMTP credentials are configured: it logs what
// would have been sent and reports success.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, msgs ...Message) error {
	for _, msg := range msgs {
		m.logger.Info("mail disabled, not sending",
			slog.String("to", msg.To),
			slog.String("subject", msg.Subject),
		)
	}
	return nil
}
