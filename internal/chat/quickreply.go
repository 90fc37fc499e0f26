package chat

import (
	"github.com/sahilm/fuzzy"

	"github.com/shagowda/folio/internal/responder"
)

type quickReplySource []responder.QuickReply

func (q quickReplySource) String(i int) string {
	return q[i].Label + " " + q[i].Message
}

func (q quickReplySource) Len() int { return len(q) }

// Suggest ranks quick replies against what the user has typed so far.
// An empty query returns them all in their configured order.
func Suggest(replies []responder.QuickReply, query string) []responder.QuickReply {
	if query == "" {
		return append([]responder.QuickReply(nil), replies...)
	}
	matches := fuzzy.FindFrom(query, quickReplySource(replies))
	out := make([]responder.QuickReply, 0, len(matches))
	for _, m := range matches {
		out = append(out, replies[m.Index])
	}
	return out
}
