// Package chat runs an interactive conversation with the responder,
// pacing replies behind a short typing delay.
package chat

import (
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shagowda/folio/internal/responder"
	"github.com/shagowda/folio/internal/storage"
)

// Default typing delay bounds.
const (
	DefaultMinDelay = time.Second
	DefaultMaxDelay = 2 * time.Second
)

// Sink receives the conversation as it unfolds. Bot callbacks run on the
// scheduler's goroutine.
type Sink interface {
	UserMessage(text string)
	BotMessage(c responder.Category, text string)
	Typing(on bool)
	QuickReplies(visible bool)
}

// Recorder persists chat interactions. *storage.Store satisfies it.
type Recorder interface {
	SaveInteraction(i storage.Interaction) error
}

// Observer counts replies by category.
type Observer interface {
	ObserveReply(category string)
}

// Options configures a Session. Zero values use the defaults.
type Options struct {
	MinDelay time.Duration
	MaxDelay time.Duration
	// Jitter returns a value in [0, n). Defaults to math/rand/v2.
	Jitter func(n int64) int64

	Recorder Recorder
	Observer Observer
	Logger   *slog.Logger
	Source   string
}

// Session is one conversation. It is safe for concurrent use.
type Session struct {
	r     *responder.Responder
	sink  Sink
	sched Scheduler
	opts  Options

	mu      sync.Mutex
	started bool
	closed  bool
}

// NewSession starts a conversation writing to sink. Quick replies are
// shown until the first message is sent.
func NewSession(r *responder.Responder, sink Sink, opts Options) *Session {
	if opts.MinDelay == 0 && opts.MaxDelay == 0 {
		opts.MinDelay, opts.MaxDelay = DefaultMinDelay, DefaultMaxDelay
	}
	if opts.MaxDelay < opts.MinDelay {
		opts.MaxDelay = opts.MinDelay
	}
	if opts.Jitter == nil {
		opts.Jitter = rand.Int64N
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Session{r: r, sink: sink, opts: opts}
	sink.QuickReplies(true)
	return s
}

// QuickReplies returns the preset prompts the session offers.
func (s *Session) QuickReplies() []responder.QuickReply {
	return append([]responder.QuickReply(nil), s.r.Knowledge().QuickReplies...)
}

// Send posts a user message. Whitespace-only input is ignored and Send
// reports false. A reply still waiting from an earlier message is
// cancelled.
func (s *Session) Send(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	first := !s.started
	s.started = true
	s.mu.Unlock()

	s.sink.UserMessage(text)
	if first {
		s.sink.QuickReplies(false)
	}
	if s.sched.Cancel() {
		s.sink.Typing(false)
	}
	s.sink.Typing(true)

	return s.sched.Schedule(s.delay(), func() { s.reply(text) })
}

// SendQuickReply posts the message behind a quick reply.
func (s *Session) SendQuickReply(q responder.QuickReply) bool {
	return s.Send(q.Message)
}

// Pending reports whether a reply is waiting to be delivered.
func (s *Session) Pending() bool {
	return s.sched.Pending()
}

// Close cancels any pending reply and ends the session.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.sched.Close()
}

func (s *Session) reply(text string) {
	c, out := s.r.Reply(text)
	s.sink.Typing(false)
	s.sink.BotMessage(c, out)

	if s.opts.Observer != nil {
		s.opts.Observer.ObserveReply(string(c))
	}
	if s.opts.Recorder != nil {
		err := s.opts.Recorder.SaveInteraction(storage.Interaction{
			ID:        uuid.New().String(),
			CreatedAt: time.Now(),
			Message:   text,
			Category:  string(c),
			Source:    s.opts.Source,
		})
		if err != nil {
			s.opts.Logger.Warn("failed to record interaction", "category", c, "error", err)
		}
	}
}

func (s *Session) delay() time.Duration {
	span := s.opts.MaxDelay - s.opts.MinDelay
	if span <= 0 {
		return s.opts.MinDelay
	}
	return s.opts.MinDelay + time.Duration(s.opts.Jitter(int64(span)))
}
