package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// secretService names folio's entries in the platform secret store.
const secretService = "folio"

// ErrSecretNotFound is returned when a secret has never been stored.
var ErrSecretNotFound = errors.New("secret not found")

// SecretStore keeps secret config values out of the config file. On macOS
// it is the login Keychain; elsewhere a 0600 JSON file under XDG_DATA_HOME.
type SecretStore interface {
	Get(account string) (string, error)
	Set(account, value string) error
	Delete(account string) error
}

// applySecrets fills secret keys from the store. A missing secret leaves
// the default; any other failure is reported and skipped so a locked
// keychain never prevents startup.
func applySecrets(cfg *Config, store SecretStore) {
	if store == nil {
		return
	}
	for _, s := range specs {
		if !s.secret {
			continue
		}
		v, err := store.Get(s.key)
		if errors.Is(err, ErrSecretNotFound) {
			continue
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] could not read %s from secret store: %v\n", s.key, err)
			continue
		}
		if v != "" {
			s.apply(cfg, v)
		}
	}
}

// secretsFile is the SecretStore used where no keychain is available.
// Layout: {"folio": {"admin.token": "..."}}.
type secretsFile struct {
	path string
}

func secretsFilePath() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			dir = "."
		}
	}
	return filepath.Join(dir, "folio", "secrets.json")
}

func (f *secretsFile) read() (map[string]map[string]string, error) {
	secrets := make(map[string]map[string]string)
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return secrets, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading secrets file: %w", err)
	}
	if err := json.Unmarshal(data, &secrets); err != nil {
		return nil, fmt.Errorf("parsing secrets file: %w", err)
	}
	return secrets, nil
}

func (f *secretsFile) write(secrets map[string]map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("creating secrets dir: %w", err)
	}
	out, err := json.MarshalIndent(secrets, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, out, 0o600)
}

func (f *secretsFile) Get(account string) (string, error) {
	secrets, err := f.read()
	if err != nil {
		return "", err
	}
	v, ok := secrets[secretService][account]
	if !ok {
		return "", ErrSecretNotFound
	}
	return v, nil
}

func (f *secretsFile) Set(account, value string) error {
	secrets, err := f.read()
	if err != nil {
		return err
	}
	if secrets[secretService] == nil {
		secrets[secretService] = make(map[string]string)
	}
	secrets[secretService][account] = value
	return f.write(secrets)
}

func (f *secretsFile) Delete(account string) error {
	secrets, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := secrets[secretService][account]; !ok {
		return nil
	}
	delete(secrets[secretService], account)
	return f.write(secrets)
}
