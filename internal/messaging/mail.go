// Package messaging sends email and SMS to volunteers.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/localnerve/voternet/internal/config"
	"github.com/wneessen/go-mail"
	"golang.org/x/time/rate"
)

// Email is one outbound message.
type Email struct {
	To      []string
	Cc      []string
	Bcc     []string
	Subject string
	Body    string
}

// Mailer sends email. Failures are logged and reported as false, never returned.
type Mailer interface {
	SendEmail(ctx context.Context, e Email) bool
}

// NewMailer returns an SMTP mailer, or a DebugMailer writing to w when DEBUG_MAIL is set
// or no SMTP host is configured.
func NewMailer(cfg *config.Config, log *slog.Logger, w io.Writer) (Mailer, error) {
	if cfg.DebugMail || cfg.SMTPHost == "" {
		if !cfg.DebugMail {
			log.Warn("SMTP_HOST is not set, email will be written to the log output")
		}
		return NewDebugMailer(w), nil
	}
	return NewSMTPMailer(cfg, log)
}

// SMTPMailer delivers email through an SMTP relay.
type SMTPMailer struct {
	client  *mail.Client
	from    string
	limiter *rate.Limiter
	log     *slog.Logger
}

// NewSMTPMailer creates an SMTPMailer from the SMTP_* settings. At most MAIL_RATE
// messages a second are sent.
func NewSMTPMailer(cfg *config.Config, log *slog.Logger) (*SMTPMailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.SMTPPort),
		mail.WithTimeout(cfg.SMTPTimeout),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if cfg.SMTPUser != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SMTPUser),
			mail.WithPassword(cfg.SMTPPassword),
		)
	}
	client, err := mail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client for %s: %w", cfg.SMTPHost, err)
	}

	limit := rate.Inf
	if cfg.MailRate > 0 {
		limit = rate.Limit(cfg.MailRate)
	}
	return &SMTPMailer{
		client:  client,
		from:    cfg.FromAddress,
		limiter: rate.NewLimiter(limit, 1),
		log:     log,
	}, nil
}

// SendEmail delivers e and reports whether the relay accepted it.
func (m *SMTPMailer) SendEmail(ctx context.Context, e Email) bool {
	msg, err := m.message(e)
	if err == nil {
		err = m.limiter.Wait(ctx)
	}
	if err == nil {
		err = m.client.DialAndSendWithContext(ctx, msg)
	}
	if err != nil {
		m.log.Warn("email not sent", "to", strings.Join(e.To, ","), "subject", e.Subject, "error", err)
		count("email", "failed", 1)
		return false
	}
	count("email", "sent", 1)
	return true
}

func (m *SMTPMailer) message(e Email) (*mail.Msg, error) {
	if len(e.To) == 0 {
		return nil, errors.New("no recipients")
	}
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return nil, fmt.Errorf("from %q: %w", m.from, err)
	}
	if err := msg.To(e.To...); err != nil {
		return nil, fmt.Errorf("to: %w", err)
	}
	if len(e.Cc) > 0 {
		if err := msg.Cc(e.Cc...); err != nil {
			return nil, fmt.Errorf("cc: %w", err)
		}
	}
	if len(e.Bcc) > 0 {
		if err := msg.Bcc(e.Bcc...); err != nil {
			return nil, fmt.Errorf("bcc: %w", err)
		}
	}
	msg.Subject(e.Subject)
	msg.SetBodyString(mail.TypeTextPlain, e.Body)
	return msg, nil
}

// DebugMailer prints messages instead of sending them.
type DebugMailer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewDebugMailer creates a DebugMailer writing to w.
func NewDebugMailer(w io.Writer) *DebugMailer {
	return &DebugMailer{w: w}
}

// SendEmail writes e to the mailer's writer.
func (m *DebugMailer) SendEmail(_ context.Context, e Email) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	fmt.Fprintf(m.w, "To: %s\n", strings.Join(e.To, ", "))
	if len(e.Cc) > 0 {
		fmt.Fprintf(m.w, "Cc: %s\n", strings.Join(e.Cc, ", "))
	}
	if len(e.Bcc) > 0 {
		fmt.Fprintf(m.w, "Bcc: %s\n", strings.Join(e.Bcc, ", "))
	}
	fmt.Fprintf(m.w, "Subject: %s\n\n%s\n\n", e.Subject, e.Body)
	count("email", "debug", 1)
	return true
}
