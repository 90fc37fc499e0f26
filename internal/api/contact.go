package api

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/shagowda/folio/internal/contact"
)

func handleContact(deps Deps, limiter *ipLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Contact == nil {
			httpError(w, http.StatusServiceUnavailable, "unavailable_error", "contact form is not enabled")
			return
		}

		ip := clientIP(r)
		if !limiter.Allow(ip) {
			if deps.Metrics != nil {
				deps.Metrics.ObserveSubmission(string(contact.OutcomeRateLimited))
			}
			deps.Logger.Warn("contact rate limit exceeded", "ip", ip)
			w.Header().Set("Retry-After", "60")
			httpError(w, http.StatusTooManyRequests, "rate_limit_error", "too many messages, please try again in a minute")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		form, err := decodeForm(r)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		res, err := deps.Contact.Submit(r.Context(), form)
		code := http.StatusOK
		var verr *contact.ValidationError
		switch {
		case err == nil:
		case errors.As(err, &verr):
			code = http.StatusUnprocessableEntity
		case errors.Is(err, contact.ErrRelayNotConfigured):
			code = http.StatusServiceUnavailable
		default:
			code = http.StatusBadGateway
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(res)
	}
}

// decodeForm accepts a JSON body or a classic URL-encoded form post.
func decodeForm(r *http.Request) (contact.Form, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/x-www-form-urlencoded" {
		if err := r.ParseForm(); err != nil {
			return contact.Form{}, err
		}
		return contact.Form{
			Name:    r.PostForm.Get("name"),
			Email:   r.PostForm.Get("email"),
			Subject: r.PostForm.Get("subject"),
			Message: r.PostForm.Get("message"),
		}, nil
	}

	var f contact.Form
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		return contact.Form{}, err
	}
	return f, nil
}
