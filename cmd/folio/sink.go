package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/shagowda/folio/internal/responder"
)

// terminalSink prints a chat session to a terminal. Every delivered reply
// is signalled on replies so the prompt loop can wait for it.
type terminalSink struct {
	out          io.Writer
	interactive  bool
	quickReplies []responder.QuickReply
	replies      chan struct{}

	mu sync.Mutex
}

func newTerminalSink(out io.Writer, interactive bool) *terminalSink {
	return &terminalSink{
		out:         out,
		interactive: interactive,
		replies:     make(chan struct{}, 1),
	}
}

// UserMessage is a no-op: the terminal already echoes what was typed.
func (s *terminalSink) UserMessage(text string) {}

func (s *terminalSink) BotMessage(c responder.Category, text string) {
	s.mu.Lock()
	fmt.Fprintln(s.out, renderReply(text))
	s.mu.Unlock()

	select {
	case s.replies <- struct{}{}:
	default:
	}
}

func (s *terminalSink) Typing(on bool) {
	if !s.interactive {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if on {
		fmt.Fprint(s.out, colorize(colorCyan, "typing..."))
		return
	}
	fmt.Fprint(s.out, "\r\033[K")
}

func (s *terminalSink) QuickReplies(visible bool) {
	if !visible || len(s.quickReplies) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.out, colorize(colorBold, "Quick replies:"))
	for i, q := range s.quickReplies {
		fmt.Fprintf(s.out, "  %d. %s\n", i+1, q.Label)
	}
}
