// Package contact validates contact form submissions and relays them to a
// remote collection endpoint.
package contact

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validation and status messages shown to the sender.
const (
	MsgNameRequired    = "Name is required"
	MsgNameTooShort    = "Name must be at least 2 characters"
	MsgNameCharacters  = "Name can only contain letters and spaces"
	MsgEmailRequired   = "Email is required"
	MsgEmailInvalid    = "Please enter a valid email address"
	MsgSubjectRequired = "Please select a subject"
	MsgMessageRequired = "Message is required"
	MsgMessageTooShort = "Message must be at least 10 characters"

	MsgFixErrors = "Please fix the errors above and try again."
)

const (
	minNameLen    = 2
	minMessageLen = 10
)

var (
	namePattern  = regexp.MustCompile(`^[a-zA-Z\s.]+$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// Form holds the raw values a sender typed.
type Form struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Trimmed returns a copy of f with surrounding whitespace removed from the
// free-text fields. Subject is a fixed choice and is kept as submitted.
func (f Form) Trimmed() Form {
	return Form{
		Name:    strings.TrimSpace(f.Name),
		Email:   strings.TrimSpace(f.Email),
		Subject: f.Subject,
		Message: strings.TrimSpace(f.Message),
	}
}

// FieldError is a single invalid field and the message to show next to it.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every invalid field in form order.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

// Message returns the message for field, or "" if the field is valid.
func (e *ValidationError) Message(field string) string {
	for _, f := range e.Fields {
		if f.Field == field {
			return f.Message
		}
	}
	return ""
}

// Validate checks every field and returns a *ValidationError naming all
// that fail, or nil. Each field reports only its first failing rule.
func (f Form) Validate() error {
	var errs []FieldError
	add := func(field, msg string) {
		if msg != "" {
			errs = append(errs, FieldError{Field: field, Message: msg})
		}
	}
	add("name", checkName(f.Name))
	add("email", checkEmail(f.Email))
	add("subject", checkSubject(f.Subject))
	add("message", checkMessage(f.Message))

	if len(errs) == 0 {
		return nil
	}
	return &ValidationError{Fields: errs}
}

func checkName(v string) string {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return MsgNameRequired
	// Lengths count runes. A browser's value.length counts UTF-16 units, so
	// text outside the BMP (emoji) can pass there and fail here.
	case utf8.RuneCountInString(v) < minNameLen:
		return MsgNameTooShort
	case !namePattern.MatchString(v):
		return MsgNameCharacters
	}
	return ""
}

func checkEmail(v string) string {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return MsgEmailRequired
	case !emailPattern.MatchString(v):
		return MsgEmailInvalid
	}
	return ""
}

func checkSubject(v string) string {
	if strings.TrimSpace(v) == "" {
		return MsgSubjectRequired
	}
	return ""
}

func checkMessage(v string) string {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return MsgMessageRequired
	// Runes, not UTF-16 units: five emoji are 10 units in the page but 5 here.
	case utf8.RuneCountInString(v) < minMessageLen:
		return MsgMessageTooShort
	}
	return ""
}

// Level is the state of the message length counter.
type Level int

const (
	LevelNormal Level = iota
	LevelWarning
	LevelLimit
)

// Counter thresholds in characters.
const (
	WarningAt = 700
	LimitAt   = 900
)

func (l Level) String() string {
	switch l {
	case LevelWarning:
		return "warning"
	case LevelLimit:
		return "limit"
	default:
		return "normal"
	}
}

// CounterLevel classifies the length of a message being typed.
func CounterLevel(message string) Level {
	n := utf8.RuneCountInString(message)
	switch {
	case n >= LimitAt:
		return LevelLimit
	case n >= WarningAt:
		return LevelWarning
	}
	return LevelNormal
}
