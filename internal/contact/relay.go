package contact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrRelayNotConfigured is returned when no relay endpoint is set.
var ErrRelayNotConfigured = errors.New("contact relay endpoint not configured")

// TimestampLayout renders submission times the way a US-English browser
// prints a local date and time.
const TimestampLayout = "1/2/2006, 3:04:05 PM"

// Submission is the JSON body posted to the relay endpoint.
type Submission struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// NewSubmission builds the relay payload for an already validated form.
func NewSubmission(f Form, at time.Time, loc *time.Location) Submission {
	if loc == nil {
		loc = time.Local
	}
	f = f.Trimmed()
	return Submission{
		Name:      f.Name,
		Email:     f.Email,
		Subject:   f.Subject,
		Message:   f.Message,
		Timestamp: at.In(loc).Format(TimestampLayout),
	}
}

// StatusError reports a relay response with an HTTP error status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("relay returned status %d", e.Code)
}

// Relay posts submissions to a remote endpoint. It makes exactly one
// attempt per call and never follows redirects.
type Relay struct {
	endpoint   string
	httpClient *http.Client
}

// NewRelay creates a Relay for endpoint with the given request timeout.
func NewRelay(endpoint string, timeout time.Duration) *Relay {
	return NewRelayWithClient(endpoint, &http.Client{Timeout: timeout})
}

// NewRelayWithClient creates a Relay using a caller-supplied client. The
// client's redirect policy is replaced so 3xx responses are returned as-is.
func NewRelayWithClient(endpoint string, client *http.Client) *Relay {
	c := *client
	c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &Relay{endpoint: endpoint, httpClient: &c}
}

// Endpoint returns the configured URL.
func (r *Relay) Endpoint() string {
	return r.endpoint
}

// Send posts sub as JSON. The response body is discarded; a transport
// error or a status of 400 or above is a failure.
func (r *Relay) Send(ctx context.Context, sub Submission) error {
	if r.endpoint == "" {
		return ErrRelayNotConfigured
	}

	body, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("encoding submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("relay request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}
