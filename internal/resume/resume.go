// Package resume loads the owner's résumé PDF and extracts its text.
package resume

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
)

// MaxSize is the largest résumé file Load accepts.
const MaxSize = 10 * 1024 * 1024

// ErrNotConfigured is returned when no résumé path is set.
var ErrNotConfigured = errors.New("resume path not configured")

// Document is a loaded résumé.
type Document struct {
	Path    string
	Data    []byte
	Pages   int
	Text    string
	ModTime time.Time
}

// Load reads the PDF at path and extracts its plain text.
func Load(path string) (*Document, error) {
	if path == "" {
		return nil, ErrNotConfigured
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat resume %s: %w", path, err)
	}
	if info.Size() > MaxSize {
		return nil, fmt.Errorf("resume size %d exceeds limit %d bytes", info.Size(), MaxSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading resume %s: %w", path, err)
	}

	pages, text, err := Extract(data)
	if err != nil {
		return nil, fmt.Errorf("parsing resume %s: %w", path, err)
	}

	return &Document{
		Path:    path,
		Data:    data,
		Pages:   pages,
		Text:    text,
		ModTime: info.ModTime(),
	}, nil
}

// Extract returns the page count and plain text of a PDF.
func Extract(data []byte) (pages int, text string, err error) {
	// The pdf reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, "", err
	}

	plain, err := r.GetPlainText()
	if err != nil {
		return 0, "", fmt.Errorf("extracting text: %w", err)
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return 0, "", fmt.Errorf("reading text: %w", err)
	}

	return r.NumPage(), strings.TrimSpace(string(b)), nil
}
