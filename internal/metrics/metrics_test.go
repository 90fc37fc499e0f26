package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveReply(t *testing.T) {
	m := New()
	m.ObserveReply("greeting")
	m.ObserveReply("greeting")
	m.ObserveReply("default")

	if got := testutil.ToFloat64(m.ChatReplies.WithLabelValues("greeting")); got != 2 {
		t.Errorf("greeting = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ChatReplies.WithLabelValues("default")); got != 1 {
		t.Errorf("default = %v, want 1", got)
	}
}

func TestObserveSubmission(t *testing.T) {
	m := New()
	m.ObserveSubmission("sent")
	m.ObserveSubmission("rate_limited")

	if got := testutil.ToFloat64(m.ContactSubmissions.WithLabelValues("sent")); got != 1 {
		t.Errorf("sent = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ContactSubmissions.WithLabelValues("failed")); got != 0 {
		t.Errorf("failed = %v, want 0", got)
	}
}

func TestNew_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.ObserveReply("skills")
	if got := testutil.ToFloat64(b.ChatReplies.WithLabelValues("skills")); got != 0 {
		t.Errorf("second instance saw %v replies, want 0", got)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveReply("thanks")
	m.ObserveRelay(120 * time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`folio_chat_replies_total{category="thanks"} 1`,
		"folio_contact_relay_duration_seconds_count 1",
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
