package webhooks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"morapack/internal/metrics"
)

const (
	HeaderSignature = "X-Signature"
	HeaderTimestamp = "X-Signature-Timestamp"
	HeaderEventType = "X-Event-Type"
)

// Sender posts signed payloads to one endpoint, retrying transport errors,
// 429 and 5xx answers with exponential backoff.
type Sender struct {
	URL         string
	Secret      string
	HTTP        *http.Client
	MaxAttempts int
	// InitialInterval seeds the backoff; tests shrink it.
	InitialInterval time.Duration
	log             *zap.Logger
}

func NewSender(url, secret string, timeout time.Duration, log *zap.Logger) *Sender {
	return &Sender{
		URL:             url,
		Secret:          secret,
		HTTP:            &http.Client{Timeout: timeout},
		MaxAttempts:     5,
		InitialInterval: 500 * time.Millisecond,
		log:             log,
	}
}

type statusError struct{ code int }

func (e *statusError) Error() string { return fmt.Sprintf("webhook answered %d", e.code) }

func (s *Sender) Send(ctx context.Context, eventType string, body []byte) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.InitialInterval
	bo.MaxElapsedTime = 0
	attempts := max(s.MaxAttempts, 1)
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(attempts-1)), ctx)

	err := backoff.RetryNotify(func() error {
		return s.attempt(ctx, eventType, body)
	}, policy, func(err error, next time.Duration) {
		s.logger().Warn("webhook delivery failed, retrying", zap.String("event", eventType), zap.Error(err), zap.Duration("retry_in", next))
	})
	if err != nil {
		metrics.WebhookDeliveries.WithLabelValues("failed").Inc()
		return fmt.Errorf("deliver %s: %w", eventType, err)
	}
	metrics.WebhookDeliveries.WithLabelValues("delivered").Inc()
	return nil
}

func (s *Sender) attempt(ctx context.Context, eventType string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(err)
	}
	now := time.Now()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderEventType, eventType)
	if s.Secret != "" {
		req.Header.Set(HeaderTimestamp, strconv.FormatInt(now.Unix(), 10))
		req.Header.Set(HeaderSignature, SignHMAC(s.Secret, now, body))
	}

	resp, err := s.HTTP.Do(req)
	latency := float64(time.Since(now).Milliseconds())
	if err != nil {
		metrics.WebhookLatency.WithLabelValues("error").Observe(latency)
		return err
	}
	_ = resp.Body.Close()
	code := resp.StatusCode
	metrics.WebhookLatency.WithLabelValues(strconv.Itoa(code / 100 * 100)).Observe(latency)
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusTooManyRequests || code >= 500:
		return &statusError{code: code}
	default:
		return backoff.Permanent(&statusError{code: code})
	}
}

func (s *Sender) logger() *zap.Logger {
	if s.log == nil {
		return zap.NewNop()
	}
	return s.log
}

// StatusCode extracts the HTTP status of a failed delivery, or 0.
func StatusCode(err error) int {
	var se *statusError
	if errors.As(err, &se) {
		return se.code
	}
	return 0
}
