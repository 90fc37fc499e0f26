package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shagowda/folio/internal/chat"
	"github.com/shagowda/folio/internal/config"
	"github.com/shagowda/folio/internal/contact"
	"github.com/shagowda/folio/internal/responder"
	"github.com/shagowda/folio/internal/storage"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
	Auth   string
}

type testServer struct {
	server   *httptest.Server
	requests []recordedRequest
}

func newTestServer(t *testing.T, responses map[string]string) *testServer {
	t.Helper()
	ts := &testServer{}

	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)

		ts.requests = append(ts.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.RequestURI(),
			Body:   body.String(),
			Auth:   r.Header.Get("Authorization"),
		})

		key := r.Method + " " + r.URL.Path
		if resp, ok := responses[key]; ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(resp))
			return
		}

		w.WriteHeader(404)
		w.Write([]byte(`{"error":{"message":"not found","type":"not_found"}}`))
	}))

	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) client() *apiClient {
	return &apiClient{
		baseURL:    ts.server.URL,
		token:      "test-token",
		httpClient: ts.server.Client(),
	}
}

var ctx = context.Background()

func TestAPIClientAuth(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /health": `{"status":"ok"}`,
	})

	client := ts.client()
	client.token = "my-secret-token"

	resp, err := client.get(ctx, "/health")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if len(ts.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(ts.requests))
	}
	if ts.requests[0].Auth != "Bearer my-secret-token" {
		t.Errorf("auth = %q, want 'Bearer my-secret-token'", ts.requests[0].Auth)
	}
}

func TestAPIClient_NoTokenNoHeader(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /health": `{"status":"ok"}`,
	})

	client := ts.client()
	client.token = ""

	resp, err := client.get(ctx, "/health")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if ts.requests[0].Auth != "" {
		t.Errorf("auth = %q, want empty", ts.requests[0].Auth)
	}
	if err := client.requireToken(); err != errNoAdminToken {
		t.Errorf("requireToken = %v, want errNoAdminToken", err)
	}
}

func TestStatusCommand_Stopped(t *testing.T) {
	ts := newTestServer(t, map[string]string{})
	ts.server.Close()

	client := ts.client()
	_, err := client.get(ctx, "/health")
	if err == nil {
		t.Fatal("expected error for stopped server")
	}
	if !strings.Contains(err.Error(), "not reachable") {
		t.Errorf("error = %q, want it to mention 'not reachable'", err.Error())
	}
}

func TestDecodeJSON_ErrorResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(401)
		w.Write([]byte(`{"error":{"message":"invalid or missing bearer token","type":"authentication_error"}}`))
	}))
	defer ts.Close()

	client := &apiClient{
		baseURL:    ts.URL,
		token:      "bad-token",
		httpClient: ts.Client(),
	}

	resp, err := client.get(ctx, "/api/stats")
	if err != nil {
		t.Fatalf("unexpected transport error: %v", err)
	}

	var result any
	err = decodeJSON(resp, &result)
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
	if !strings.Contains(err.Error(), "401") || !strings.Contains(err.Error(), "bearer token") {
		t.Errorf("error = %q, want status and server message", err.Error())
	}
}

func TestServerURL(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{"127.0.0.1", "http://127.0.0.1:4100"},
		{"0.0.0.0", "http://127.0.0.1:4100"},
		{"", "http://127.0.0.1:4100"},
		{"::1", "http://[::1]:4100"},
		{"folio.local", "http://folio.local:4100"},
	}
	for _, tt := range tests {
		var cfg config.Config
		cfg.Server.Host = tt.host
		cfg.Server.Port = 4100
		if got := serverURL(cfg); got != tt.want {
			t.Errorf("serverURL(%q) = %q, want %q", tt.host, got, tt.want)
		}
	}
}

func TestSendContact_Sent(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /api/contact": `{"id":"abc","outcome":"sent","message":"🎉 Thank you, Jane Doe! Your message has been received. I'll get back to you within 24 hours!"}`,
	})

	form := contact.Form{Name: "Jane Doe", Email: "jane@example.com", Subject: "job", Message: "Let's talk about a role."}
	res, err := sendContact(ctx, ts.client(), form)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != contact.OutcomeSent || res.ID != "abc" {
		t.Errorf("result = %+v", res)
	}

	var sent contact.Form
	if err := json.Unmarshal([]byte(ts.requests[0].Body), &sent); err != nil {
		t.Fatalf("body parse error: %v", err)
	}
	if sent != form {
		t.Errorf("sent form = %+v, want %+v", sent, form)
	}
}

func TestSendContact_Invalid(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"outcome":"invalid","message":"Please fix the errors above","fields":[{"field":"email","message":"Please enter a valid email address"}]}`))
	}))
	defer ts.Close()

	client := &apiClient{baseURL: ts.URL, httpClient: ts.Client()}
	res, err := sendContact(ctx, client, contact.Form{Name: "Jane", Email: "nope"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != contact.OutcomeInvalid {
		t.Errorf("outcome = %q, want invalid", res.Outcome)
	}
	if len(res.Fields) != 1 || res.Fields[0].Field != "email" {
		t.Errorf("fields = %+v", res.Fields)
	}
}

func TestSendContact_RateLimited(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"too many submissions, try again later","type":"rate_limit_error"}}`))
	}))
	defer ts.Close()

	client := &apiClient{baseURL: ts.URL, httpClient: ts.Client()}
	_, err := sendContact(ctx, client, contact.Form{})
	if err == nil {
		t.Fatal("expected error for rate limited response")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("error = %q, want it to contain 429", err.Error())
	}
}

func TestSubmissionsList(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /api/submissions": `[{"id":"0c3f9a2e-1111-2222-3333-444455556666","created_at":"2025-03-01T08:04:05Z","name":"Jane","email":"j@x.io","subject":"job","message":"hello there","status":"failed","error":"relay: status 500"}]`,
	})

	resp, err := ts.client().get(ctx, "/api/submissions?limit=20&offset=0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var subs []storage.Submission
	if err := decodeJSON(resp, &subs); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("expected 1 submission, got %d", len(subs))
	}

	old := noColor
	defer func() { noColor = old }()
	noColor = true

	line := formatSubmission(subs[0])
	if !strings.HasPrefix(line, "0c3f9a2e  ") {
		t.Errorf("line = %q, want short id prefix", line)
	}
	for _, want := range []string{"failed", "Jane <j@x.io>", "job"} {
		if !strings.Contains(line, want) {
			t.Errorf("line = %q, want it to contain %q", line, want)
		}
	}
}

func TestNoColorFlag(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()

	noColor = true
	result := colorize(colorGreen, "test message")
	if strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=true should not contain ANSI codes, got %q", result)
	}
	if result != "test message" {
		t.Errorf("result = %q, want %q", result, "test message")
	}

	noColor = false
	result = colorize(colorGreen, "test message")
	if !strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=false should contain ANSI codes, got %q", result)
	}
}

func TestRenderReply_Plain(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()
	noColor = true

	got := renderReply("💻 **Skills:**\n• Go")
	if got != "💻 Skills:\n• Go" {
		t.Errorf("renderReply = %q", got)
	}
}

func TestAskCommand_MissingArgs(t *testing.T) {
	defer rootCmd.SetArgs(nil)

	rootCmd.SetArgs([]string{"ask"})
	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("expected error for missing args")
	}
	if !strings.Contains(err.Error(), "arg") {
		t.Errorf("error = %q, want it to mention args", err.Error())
	}
}

func TestConfigShowAll(t *testing.T) {
	cfg := config.Config{}
	cfg.Server.Port = 4000
	cfg.Contact.RelayURL = "https://relay.example/hook"

	keys := config.ShowAll(cfg)
	if len(keys) == 0 {
		t.Fatal("expected non-empty keys from ShowAll")
	}

	found := false
	for _, k := range keys {
		if k.Key == "server.port" && k.Value == "4000" {
			found = true
		}
		if strings.Contains(k.Key, "token") {
			t.Errorf("secret key %q must not be shown", k.Key)
		}
	}
	if !found {
		t.Error("expected to find server.port=4000 in ShowAll output")
	}
}

func TestPIDFile(t *testing.T) {
	path := pidFilePath(filepath.Join(t.TempDir(), "data"))
	if err := writePIDFile(path); err != nil {
		t.Fatalf("writePIDFile: %v", err)
	}
	pid, err := readPIDFile(path)
	if err != nil {
		t.Fatalf("readPIDFile: %v", err)
	}
	if pid <= 0 {
		t.Errorf("pid = %d", pid)
	}
	removePIDFile(path)
	if _, err := readPIDFile(path); err == nil {
		t.Error("expected error after removal")
	}
}

func TestRunChat(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()
	noColor = true

	kb, err := responder.DefaultKnowledge()
	if err != nil {
		t.Fatalf("DefaultKnowledge: %v", err)
	}
	r := responder.New(kb, nil)

	var out bytes.Buffer
	sink := newTerminalSink(&out, false)
	sink.quickReplies = kb.QuickReplies
	session := chat.NewSession(r, sink, chat.Options{MinDelay: time.Millisecond, MaxDelay: time.Millisecond})
	defer session.Close()

	in := strings.NewReader("1\n   \nthanks\n/quit\n")
	if err := runChat(ctx, session, sink, in, &out); err != nil {
		t.Fatalf("runChat: %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"Quick replies:",
		"1. 💻 Skills",
		"💻 Shashank's Technical Skills:",
		"You're welcome!",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "**") {
		t.Error("plain output still contains bold markers")
	}
}

// TestRunChat_CancelWhileReading verifies Ctrl-C ends the chat even when
// stdin has no pending line.
func TestRunChat_CancelWhileReading(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()
	noColor = true

	kb, err := responder.DefaultKnowledge()
	if err != nil {
		t.Fatalf("DefaultKnowledge: %v", err)
	}
	var out bytes.Buffer
	sink := newTerminalSink(&out, false)
	session := chat.NewSession(responder.New(kb, nil), sink, chat.Options{MinDelay: time.Millisecond, MaxDelay: time.Millisecond})
	defer session.Close()

	pr, pw := io.Pipe()
	defer pw.Close()

	cctx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- runChat(cctx, session, sink, pr, io.Discard) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("runChat = %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("runChat did not return after cancel")
	}
}

func TestRunChat_EOF(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()
	noColor = true

	kb, err := responder.DefaultKnowledge()
	if err != nil {
		t.Fatalf("DefaultKnowledge: %v", err)
	}
	var out bytes.Buffer
	sink := newTerminalSink(&out, false)
	session := chat.NewSession(responder.New(kb, nil), sink, chat.Options{MinDelay: time.Millisecond, MaxDelay: time.Millisecond})
	defer session.Close()

	if err := runChat(ctx, session, sink, strings.NewReader(""), &out); err != nil {
		t.Errorf("runChat = %v, want nil at EOF", err)
	}
}
