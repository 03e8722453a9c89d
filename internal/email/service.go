package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/jwalitptl/compliance-api/pkg/circuitbreaker"
)

// ErrEmailSending wraps every delivery failure returned by a Sender.
var ErrEmailSending = errors.New("email sending failed")

// Sender delivers one HTML message to one address.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// NopSender accepts and drops every message.
type NopSender struct{}

func (NopSender) Send(context.Context, string, string, string) error { return nil }

// BreakerSender stops calling the wrapped sender after repeated failures.
type BreakerSender struct {
	next    Sender
	breaker *circuitbreaker.CircuitBreaker
}

func NewBreakerSender(next Sender, settings circuitbreaker.Settings) *BreakerSender {
	if settings.Name == "" {
		settings.Name = "email"
	}
	return &BreakerSender{
		next:    next,
		breaker: circuitbreaker.NewCircuitBreaker(settings),
	}
}

func (s *BreakerSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	err := s.breaker.Execute(func() error {
		return s.next.Send(ctx, to, subject, htmlBody)
	})
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return fmt.Errorf("%w: %v", ErrEmailSending, err)
	}
	return err
}
