package contact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shagowda/folio/internal/storage"
)

// Outcome labels the result of one submission attempt.
type Outcome string

const (
	OutcomeSent        Outcome = "sent"
	OutcomeInvalid     Outcome = "invalid"
	OutcomeFailed      Outcome = "failed"
	OutcomeRateLimited Outcome = "rate_limited"
	// OutcomeUnavailable means no relay is configured; nothing was sent or stored.
	OutcomeUnavailable Outcome = "unavailable"
)

// Sender delivers a submission. *Relay satisfies it.
type Sender interface {
	Send(ctx context.Context, sub Submission) error
}

// Recorder persists submission outcomes. *storage.Store satisfies it.
type Recorder interface {
	SaveSubmission(sub storage.Submission) error
}

// Observer receives submission metrics.
type Observer interface {
	ObserveSubmission(outcome string)
	ObserveRelay(d time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveSubmission(string)   {}
func (nopObserver) ObserveRelay(time.Duration) {}

// Result is what the sender is told after submitting.
type Result struct {
	ID      string       `json:"id,omitempty"`
	Outcome Outcome      `json:"outcome"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
}

// SuccessMessage is shown after a delivered submission.
func SuccessMessage(name string) string {
	return "🎉 Thank you, " + name + "! Your message has been received. I'll get back to you within 24 hours!"
}

// FailureMessage is shown when the relay fails.
func FailureMessage(ownerEmail string) string {
	return "❌ Oops! Something went wrong. Please try again or email me directly at " + ownerEmail
}

// Options configures a Service. All fields are optional.
type Options struct {
	Store      Recorder
	Observer   Observer
	Logger     *slog.Logger
	Location   *time.Location
	OwnerEmail string
}

// Service validates, relays and records contact submissions.
type Service struct {
	sender     Sender
	store      Recorder
	obs        Observer
	logger     *slog.Logger
	loc        *time.Location
	ownerEmail string
	now        func() time.Time
}

// NewService creates a Service delivering through sender.
func NewService(sender Sender, opts Options) *Service {
	s := &Service{
		sender:     sender,
		store:      opts.Store,
		obs:        opts.Observer,
		logger:     opts.Logger,
		loc:        opts.Location,
		ownerEmail: opts.OwnerEmail,
		now:        time.Now,
	}
	if s.obs == nil {
		s.obs = nopObserver{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	return s
}

// Submit validates f and, if valid, relays it once. A validation failure
// returns a *ValidationError and a relay failure returns the relay's
// error; in both cases Result carries the message to show.
func (s *Service) Submit(ctx context.Context, f Form) (Result, error) {
	if err := f.Validate(); err != nil {
		s.obs.ObserveSubmission(string(OutcomeInvalid))
		res := Result{Outcome: OutcomeInvalid, Message: MsgFixErrors}
		var verr *ValidationError
		if errors.As(err, &verr) {
			res.Fields = verr.Fields
		}
		return res, err
	}

	now := s.now()
	sub := NewSubmission(f, now, s.loc)
	id := uuid.New().String()

	start := time.Now()
	sendErr := s.sender.Send(ctx, sub)
	if errors.Is(sendErr, ErrRelayNotConfigured) {
		s.obs.ObserveSubmission(string(OutcomeUnavailable))
		s.logger.Warn("contact relay not configured, submission dropped")
		return Result{Outcome: OutcomeUnavailable, Message: FailureMessage(s.ownerEmail)}, sendErr
	}
	s.obs.ObserveRelay(time.Since(start))

	rec := storage.Submission{
		ID:        id,
		CreatedAt: now,
		Name:      sub.Name,
		Email:     sub.Email,
		Subject:   sub.Subject,
		Message:   sub.Message,
		Status:    storage.StatusDelivered,
	}
	if sendErr != nil {
		rec.Status = storage.StatusFailed
		rec.Error = sendErr.Error()
	}
	s.record(rec)

	if sendErr != nil {
		s.obs.ObserveSubmission(string(OutcomeFailed))
		s.logger.Warn("contact relay failed", "id", id, "error", sendErr)
		return Result{ID: id, Outcome: OutcomeFailed, Message: FailureMessage(s.ownerEmail)},
			fmt.Errorf("relaying submission: %w", sendErr)
	}

	s.obs.ObserveSubmission(string(OutcomeSent))
	s.logger.Info("contact submission relayed", "id", id, "subject", sub.Subject)
	return Result{ID: id, Outcome: OutcomeSent, Message: SuccessMessage(sub.Name)}, nil
}

func (s *Service) record(sub storage.Submission) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveSubmission(sub); err != nil {
		s.logger.Warn("failed to record contact submission", "id", sub.ID, "error", err)
	}
}
