package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
)

// FilePath returns the JSON config file: FOLIO_CONFIG when set, otherwise
// $XDG_CONFIG_HOME/folio/config.json.
func FilePath() string {
	if p := os.Getenv("FOLIO_CONFIG"); p != "" {
		return p
	}
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join("folio", "config.json")
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "folio", "config.json")
}

// fileBackend keeps non-secret keys in a flat JSON object. Reads happen
// once at construction; every Set rewrites the file via a temp file and
// rename so a crash never leaves it half written.
type fileBackend struct {
	path   string
	values map[string]any
}

func newFileBackend(path string) *fileBackend {
	b := &fileBackend{path: path, values: make(map[string]any)}
	b.load()
	return b
}

func (b *fileBackend) load() {
	raw, err := os.ReadFile(b.path)
	if os.IsNotExist(err) {
		return
	}
	if err == nil {
		err = json.Unmarshal(raw, &b.values)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] ignoring config file %s: %v\n", b.path, err)
		b.values = make(map[string]any)
		return
	}
	for _, s := range specs {
		if _, ok := b.values[s.key]; ok && s.secret {
			fmt.Fprintf(os.Stderr, "[WARN] %s found in %s is ignored; store it with `folio config set %s` or %s\n", s.key, b.path, s.key, s.env)
			delete(b.values, s.key)
		}
	}
}

func (b *fileBackend) flush() error {
	if err := os.MkdirAll(filepath.Dir(b.path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	out, err := json.MarshalIndent(b.values, "", "  ")
	if err != nil {
		return err
	}
	tmp := b.path + ".tmp"
	if err := os.WriteFile(tmp, append(out, '\n'), 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return os.Rename(tmp, b.path)
}

func (b *fileBackend) GetString(key string) (string, bool, error) {
	v, ok := b.values[key]
	if !ok {
		return "", false, nil
	}
	if s, isStr := v.(string); isStr {
		return s, true, nil
	}
	return fmt.Sprint(v), true, nil
}

// GetInt accepts JSON numbers and numeric strings ("8080").
func (b *fileBackend) GetInt(key string) (int, bool, error) {
	v, ok := b.values[key]
	if !ok {
		return 0, false, nil
	}
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) || n < math.MinInt || n > math.MaxInt {
			return 0, true, fmt.Errorf("%s: %v is not an integer", key, n)
		}
		return int(n), true, nil
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, true, fmt.Errorf("%s: %w", key, err)
		}
		return i, true, nil
	}
	return 0, true, fmt.Errorf("%s: unexpected %T", key, v)
}

// GetBool accepts JSON booleans and the strings strconv.ParseBool knows.
// An empty string counts as unset.
func (b *fileBackend) GetBool(key string) (bool, bool, error) {
	v, ok := b.values[key]
	if !ok {
		return false, false, nil
	}
	switch t := v.(type) {
	case bool:
		return t, true, nil
	case string:
		if t == "" {
			return false, false, nil
		}
		p, err := strconv.ParseBool(t)
		if err != nil {
			return false, true, fmt.Errorf("%s: %w", key, err)
		}
		return p, true, nil
	}
	return false, true, fmt.Errorf("%s: unexpected %T", key, v)
}

func (b *fileBackend) set(key string, v any) error {
	b.values[key] = v
	return b.flush()
}

func (b *fileBackend) SetString(key, val string) error    { return b.set(key, val) }
func (b *fileBackend) SetInt(key string, val int) error   { return b.set(key, val) }
func (b *fileBackend) SetBool(key string, val bool) error { return b.set(key, val) }

func (b *fileBackend) Delete(key string) error {
	if _, ok := b.values[key]; !ok {
		return nil
	}
	delete(b.values, key)
	return b.flush()
}
