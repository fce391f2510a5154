package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sakif/portfolio-blog/internal/apperror"
	"github.com/sakif/portfolio-blog/internal/mail"
)

// ContactService relays contact-form submissions by email.
//
// ASYNC DELIVERY:
// An SMTP round trip to Gmail takes a second or more, and a failure must not
// fail the visitor's request. Submit therefore hands the send to a goroutine
// bounded by timeout and returns at once. Failures are only logged.
//
// Wait blocks until every in-flight send has finished; the server calls it
// during graceful shutdown so no message is cut off mid-send.
type ContactService struct {
	mailer  mail.Mailer
	owner   string
	timeout time.Duration
	logger  *slog.Logger
	wg      sync.WaitGroup
}

// NewContactService creates a ContactService. owner receives the relay copy.
func NewContactService(mailer mail.Mailer, owner string, timeout time.Duration, logger *slog.Logger) *ContactService {
	return &ContactService{
		mailer:  mailer,
		owner:   owner,
		timeout: timeout,
		logger:  logger,
	}
}

// Submit queues the acknowledgement and relay emails for c.
// The returned error only reports invalid input, never a delivery failure.
func (s *ContactService) Submit(ctx context.Context, c mail.Contact) error {
	switch {
	case c.Name == "":
		return apperror.ValidationFailed("name", "name is required")
	case c.Email == "":
		return apperror.ValidationFailed("email", "email is required")
	case c.Phone == "":
		return apperror.ValidationFailed("phone", "phone is required")
	case c.Message == "":
		return apperror.ValidationFailed("message", "message is required")
	}

	msgs := mail.ContactMessages(s.owner, c)

	// Detach from the request: it ends as soon as we redirect.
	sendCtx := context.WithoutCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(sendCtx, s.timeout)
		defer cancel()

		start := time.Now()
		if err := s.mailer.Send(ctx, msgs...); err != nil {
			s.logger.Error("sending contact email",
				slog.String("from", c.Email),
				slog.String("error", err.Error()),
			)
			return
		}
		s.logger.Info("contact email sent",
			slog.String("from", c.Email),
			slog.Duration("duration", time.Since(start)),
		)
	}()

	return nil
}

// Wait blocks until all queued sends have finished or timed out.
func (s *ContactService) Wait() {
	s.wg.Wait()
}
