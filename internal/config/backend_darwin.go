//go:build darwin

package config

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

const defaultsDomain = "com.folio.app"

func defaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, "Library", "Application Support", "folio")
	}
	return "folio-data"
}

// Location describes where persisted config lives. FOLIO_CONFIG switches
// macOS to the JSON file backend.
func Location() string {
	if p := os.Getenv("FOLIO_CONFIG"); p != "" {
		return p
	}
	return "defaults domain " + defaultsDomain
}

// userDefaults keeps config in the macOS user defaults database, one
// entry per dotted key.
type userDefaults struct {
	domain string
}

func newPlatformBackend() ConfigBackend {
	if p := os.Getenv("FOLIO_CONFIG"); p != "" {
		return newFileBackend(p)
	}
	return &userDefaults{domain: defaultsDomain}
}

func (b *userDefaults) lookup(key string) (string, bool, error) {
	out, err := exec.Command("defaults", "read", b.domain, key).CombinedOutput()
	s := strings.TrimSpace(string(out))
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading default %s: %w, output: %s", key, err, s)
	}
	return s, true, nil
}

func (b *userDefaults) write(key, typeFlag, val string) error {
	if out, err := exec.Command("defaults", "write", b.domain, key, typeFlag, val).CombinedOutput(); err != nil {
		return fmt.Errorf("writing default %s: %w, output: %s", key, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (b *userDefaults) GetString(key string) (string, bool, error) {
	return b.lookup(key)
}

func (b *userDefaults) GetInt(key string) (int, bool, error) {
	s, ok, err := b.lookup(key)
	if !ok || err != nil {
		return 0, ok, err
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, true, fmt.Errorf("invalid integer for %s: %w", key, err)
	}
	return i, true, nil
}

// GetBool accepts the 1/0 that defaults prints for -bool values.
func (b *userDefaults) GetBool(key string) (bool, bool, error) {
	s, ok, err := b.lookup(key)
	if !ok || err != nil {
		return false, ok, err
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, true, fmt.Errorf("invalid boolean for %s: %w", key, err)
	}
	return v, true, nil
}

func (b *userDefaults) SetString(key, val string) error {
	return b.write(key, "-string", val)
}

func (b *userDefaults) SetInt(key string, val int) error {
	return b.write(key, "-int", strconv.Itoa(val))
}

func (b *userDefaults) SetBool(key string, val bool) error {
	return b.write(key, "-bool", strconv.FormatBool(val))
}

func (b *userDefaults) Delete(key string) error {
	err := exec.Command("defaults", "delete", b.domain, key).Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return nil
	}
	return err
}
