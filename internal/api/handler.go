package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/shagowda/folio/internal/chat"
	"github.com/shagowda/folio/internal/contact"
	"github.com/shagowda/folio/internal/markup"
	"github.com/shagowda/folio/internal/metrics"
	"github.com/shagowda/folio/internal/responder"
	"github.com/shagowda/folio/internal/resume"
	"github.com/shagowda/folio/internal/storage"
)

const maxRequestBodySize = 64 << 10 // 64KB

// ContactSubmitter handles contact form submissions. *contact.Service
// satisfies it.
type ContactSubmitter interface {
	Submit(ctx context.Context, f contact.Form) (contact.Result, error)
}

// Deps holds everything the HTTP API serves from. Only Responder is
// required; routes whose dependency is nil respond 404 or 503.
type Deps struct {
	Responder *responder.Responder
	Contact   ContactSubmitter
	Store     *storage.Store
	Metrics   *metrics.Metrics
	Resume    *resume.Document
	Logger    *slog.Logger

	// AdminToken guards the management routes. They are not mounted when
	// it is empty.
	AdminToken string
	// RecordChats stores every answered chat message in Store.
	RecordChats bool
	// ContactRatePerMinute limits contact submissions per client IP.
	// Zero disables limiting.
	ContactRatePerMinute int
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse carries the reply as raw markup and as HTML.
type ChatResponse struct {
	Category responder.Category `json:"category"`
	Reply    string             `json:"reply"`
	HTML     string             `json:"html"`
}

// NewHandler returns the folio HTTP API.
func NewHandler(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	limiter := newIPLimiter(deps.ContactRatePerMinute)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", handleHealth)
	r.Post("/api/chat", handleChat(deps))
	r.Get("/api/chat/quick-replies", handleQuickReplies(deps))
	r.Post("/api/contact", handleContact(deps, limiter))
	r.Get("/resume", handleResumePDF(deps))
	r.Get("/resume.txt", handleResumeText(deps))
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler())
	}

	if deps.AdminToken != "" && deps.Store != nil {
		r.Group(func(r chi.Router) {
			r.Use(BearerAuth(deps.AdminToken))
			r.Get("/api/submissions", handleListSubmissions(deps))
			r.Get("/api/submissions/{id}", handleGetSubmission(deps))
			r.Delete("/api/submissions/{id}", handleDeleteSubmission(deps))
			r.Get("/api/interactions", handleListInteractions(deps))
			r.Get("/api/stats", handleStats(deps))
		})
	}

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleChat(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid JSON: %v", err)
			return
		}
		if strings.TrimSpace(req.Message) == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "message is required")
			return
		}

		c, reply := deps.Responder.Reply(req.Message)
		if deps.Metrics != nil {
			deps.Metrics.ObserveReply(string(c))
		}
		if deps.RecordChats && deps.Store != nil {
			err := deps.Store.SaveInteraction(storage.Interaction{
				ID:        uuid.New().String(),
				CreatedAt: time.Now(),
				Message:   req.Message,
				Category:  string(c),
				Source:    "http",
			})
			if err != nil {
				deps.Logger.Warn("failed to record interaction", "category", c, "error", err)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ChatResponse{
			Category: c,
			Reply:    reply,
			HTML:     markup.HTML(reply),
		})
	}
}

func handleQuickReplies(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		replies := chat.Suggest(deps.Responder.Knowledge().QuickReplies, r.URL.Query().Get("q"))
		if replies == nil {
			replies = []responder.QuickReply{}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(replies)
	}
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}
