package messaging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/localnerve/voternet/internal/config"
	"golang.org/x/time/rate"
)

// SMSSender sends a text message to many numbers and returns the normalized numbers
// that were not sent. A failed batch is logged and the remaining batches are still sent.
type SMSSender interface {
	SendSMS(ctx context.Context, numbers []string, message string) (failed []string)
}

// NewSMSSender returns a gateway sender, or a LogSMSSender when no gateway is configured.
func NewSMSSender(cfg *config.Config, log *slog.Logger) SMSSender {
	if cfg.SMSGatewayURL == "" {
		return &LogSMSSender{log: log}
	}
	return NewGatewaySender(GatewayOptions{
		URL:       cfg.SMSGatewayURL,
		APIKey:    cfg.SMSAPIKey,
		Sender:    cfg.SMSSender,
		Rate:      cfg.SMSRate,
		BatchSize: cfg.SMSBatchSize,
		Timeout:   cfg.LookupTimeout,
		Logger:    log,
	})
}

// GatewayOptions configures a GatewaySender.
type GatewayOptions struct {
	URL       string
	APIKey    string
	Sender    string
	Rate      float64 // batches a second
	BatchSize int
	Timeout   time.Duration
	Client    *http.Client
	Logger    *slog.Logger
}

// GatewaySender posts batches of numbers to an HTTP SMS gateway.
type GatewaySender struct {
	opts    GatewayOptions
	client  *http.Client
	limiter *rate.Limiter
	log     *slog.Logger
}

// NewGatewaySender creates a GatewaySender.
func NewGatewaySender(opts GatewayOptions) *GatewaySender {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	limit := rate.Inf
	if opts.Rate > 0 {
		limit = rate.Limit(opts.Rate)
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &GatewaySender{opts: opts, client: client, limiter: rate.NewLimiter(limit, 1), log: log}
}

// SendSMS sends message to numbers in batches.
func (s *GatewaySender) SendSMS(ctx context.Context, numbers []string, message string) []string {
	numbers = NormalizeNumbers(numbers)
	var failed []string
	for start := 0; start < len(numbers); start += s.opts.BatchSize {
		batch := numbers[start:min(start+s.opts.BatchSize, len(numbers))]
		if err := s.limiter.Wait(ctx); err != nil {
			s.log.Warn("sms batches abandoned", "remaining", len(numbers)-start, "error", err)
			count("sms", "failed", len(numbers)-start)
			failed = append(failed, numbers[start:]...)
			break
		}
		if err := s.post(ctx, batch, message); err != nil {
			s.log.Warn("sms batch not sent", "size", len(batch), "error", err)
			count("sms", "failed", len(batch))
			failed = append(failed, batch...)
			continue
		}
		count("sms", "sent", len(batch))
	}
	return failed
}

func (s *GatewaySender) post(ctx context.Context, numbers []string, message string) error {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	form := url.Values{
		"apikey":  {s.opts.APIKey},
		"sender":  {s.opts.Sender},
		"numbers": {strings.Join(numbers, ",")},
		"message": {message},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.opts.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("gateway returned %s", resp.Status)
	}
	return nil
}

// NormalizeNumbers strips formatting from phone numbers, keeping a leading '+', and
// drops blanks and repeats.
func NormalizeNumbers(numbers []string) []string {
	seen := make(map[string]bool, len(numbers))
	out := make([]string, 0, len(numbers))
	for _, n := range numbers {
		var b strings.Builder
		for i, r := range strings.TrimSpace(n) {
			if (r >= '0' && r <= '9') || (r == '+' && i == 0) {
				b.WriteRune(r)
			}
		}
		clean := b.String()
		if clean == "" || clean == "+" || seen[clean] {
			continue
		}
		seen[clean] = true
		out = append(out, clean)
	}
	return out
}

// LogSMSSender logs messages instead of sending them.
type LogSMSSender struct {
	log *slog.Logger
}

// SendSMS logs the message and reports every number as sent.
func (s *LogSMSSender) SendSMS(_ context.Context, numbers []string, message string) []string {
	numbers = NormalizeNumbers(numbers)
	s.log.Info("sms", "numbers", strings.Join(numbers, ","), "message", message)
	count("sms", "debug", len(numbers))
	return nil
}
