package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Submission statuses.
const (
	StatusDelivered = "delivered"
	StatusFailed    = "failed"
)

// Submission is one contact form message and the outcome of relaying it.
type Submission struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
}

// Interaction records a chat message and the category it resolved to.
type Interaction struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Message   string    `json:"message"`
	Category  string    `json:"category"`
	Source    string    `json:"source"` // "http", "mcp", "cli"
}

// CategoryCount is the number of interactions resolved to one category.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}
