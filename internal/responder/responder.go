// Package responder answers free-form questions about the portfolio owner
// by matching keywords against an ordered rule table and picking a canned
// reply from a static knowledge base.
package responder

import (
	"math/rand/v2"
	"sync"
)

// Source picks an index in [0, n). *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// Responder classifies messages and selects replies. It is safe for
// concurrent use.
type Responder struct {
	kb    *KnowledgeBase
	rules []Rule

	mu  sync.Mutex
	src Source
}

// New creates a Responder over kb. A nil src uses the process-wide
// random generator.
func New(kb *KnowledgeBase, src Source) *Responder {
	if src == nil {
		src = globalSource{}
	}
	return &Responder{
		kb:    kb,
		rules: compileRules(kb.Owner.FirstName),
		src:   src,
	}
}

// Classify returns the category of text. It never fails: input that
// matches no rule, including empty input, yields Default.
func (r *Responder) Classify(text string) Category {
	return classify(r.rules, text)
}

// Respond returns the reply for c. Categories with several candidates
// draw one uniformly from the source; single candidates are returned
// verbatim without consulting it.
func (r *Responder) Respond(c Category) string {
	replies := r.kb.Responses[c]
	if len(replies) == 0 {
		replies = r.kb.Responses[Default]
	}
	if len(replies) == 1 {
		return replies[0]
	}
	r.mu.Lock()
	i := r.src.IntN(len(replies))
	r.mu.Unlock()
	return replies[i]
}

// Reply classifies text and returns the category with its reply.
func (r *Responder) Reply(text string) (Category, string) {
	c := r.Classify(text)
	return c, r.Respond(c)
}

// Rules returns a copy of the rule table in priority order.
func (r *Responder) Rules() []Rule {
	return append([]Rule(nil), r.rules...)
}

// Knowledge returns the knowledge base the responder answers from.
func (r *Responder) Knowledge() *KnowledgeBase {
	return r.kb
}
