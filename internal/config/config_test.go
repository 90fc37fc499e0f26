package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// mapSecrets is an in-memory SecretStore.
type mapSecrets map[string]string

func (m mapSecrets) Get(account string) (string, error) {
	v, ok := m[account]
	if !ok {
		return "", ErrSecretNotFound
	}
	return v, nil
}

func (m mapSecrets) Set(account, value string) error {
	m[account] = value
	return nil
}

func (m mapSecrets) Delete(account string) error {
	delete(m, account)
	return nil
}

type brokenSecrets struct{ mapSecrets }

func (brokenSecrets) Get(string) (string, error) { return "", errors.New("keychain locked") }

func loadFromPath(t *testing.T, path string) (Config, error) {
	t.Helper()
	return loadWith(newFileBackend(path), mapSecrets{})
}

// TestDefaults verifies all default values are applied when loading an empty config file.
func TestDefaults(t *testing.T) {
	path := writeTempConfig(t, `{}`)

	cfg, err := loadFromPath(t, path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Server.Port != 4100 {
		t.Errorf("Server.Port = %d, want 4100", cfg.Server.Port)
	}
	if cfg.Server.MaxConns != 256 {
		t.Errorf("Server.MaxConns = %d, want 256", cfg.Server.MaxConns)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "info")
	}
	if cfg.Contact.RatePerMinute != 5 {
		t.Errorf("Contact.RatePerMinute = %d, want 5", cfg.Contact.RatePerMinute)
	}
	if !cfg.Chat.Record {
		t.Error("Chat.Record = false, want true")
	}
	minDelay, maxDelay, err := cfg.ChatDelays()
	if err != nil {
		t.Fatalf("ChatDelays: %v", err)
	}
	if minDelay != time.Second || maxDelay != 2*time.Second {
		t.Errorf("ChatDelays = %v, %v, want 1s, 2s", minDelay, maxDelay)
	}
	if d, _ := cfg.ChatRetention(); d != 90*24*time.Hour {
		t.Errorf("ChatRetention = %v, want 2160h", d)
	}
	if d, _ := cfg.ContactTimeout(); d != 10*time.Second {
		t.Errorf("ContactTimeout = %v, want 10s", d)
	}
	if cfg.Addr() != "127.0.0.1:4100" {
		t.Errorf("Addr() = %q", cfg.Addr())
	}
}

func TestMissingFileUsesDefaults(t *testing.T) {
	cfg, err := loadFromPath(t, filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 4100 {
		t.Errorf("Server.Port = %d, want 4100", cfg.Server.Port)
	}
}

func TestFileValues(t *testing.T) {
	path := writeTempConfig(t, `{
  "server.port": 9000,
  "contact.relay_url": "https://relay.example.com/exec",
  "contact.timezone": "UTC",
  "chat.record": false,
  "knowledge.path": "/etc/folio/kb.yaml"
}`)

	cfg, err := loadFromPath(t, path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Contact.RelayURL != "https://relay.example.com/exec" {
		t.Errorf("Contact.RelayURL = %q", cfg.Contact.RelayURL)
	}
	if cfg.Chat.Record {
		t.Error("Chat.Record = true, want false")
	}
	if cfg.Knowledge.Path != "/etc/folio/kb.yaml" {
		t.Errorf("Knowledge.Path = %q", cfg.Knowledge.Path)
	}
	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("Location: %v", err)
	}
	if loc.String() != "UTC" {
		t.Errorf("Location = %q, want UTC", loc)
	}
}

// TestEnvOverride verifies that environment variables override config file values.
func TestEnvOverride(t *testing.T) {
	path := writeTempConfig(t, `{"server.port": 9000, "log.level": "info"}`)

	t.Setenv("FOLIO_SERVER_PORT", "9100")
	t.Setenv("FOLIO_LOG_LEVEL", "debug")
	t.Setenv("FOLIO_CHAT_RECORD", "false")

	cfg, err := loadFromPath(t, path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("Server.Port = %d, want 9100", cfg.Server.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "debug")
	}
	if cfg.Chat.Record {
		t.Error("Chat.Record = true, want false")
	}
}

func TestEnvOverride_BadIntKeepsValue(t *testing.T) {
	path := writeTempConfig(t, `{}`)
	t.Setenv("FOLIO_SERVER_PORT", "not-a-number")

	cfg, err := loadFromPath(t, path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 4100 {
		t.Errorf("Server.Port = %d, want default 4100", cfg.Server.Port)
	}
}

// TestAdminTokenSources verifies the token comes from the secret store,
// env wins over it, and a copy in the config file is ignored.
func TestAdminTokenSources(t *testing.T) {
	path := writeTempConfig(t, `{"admin.token": "from-file"}`)
	secrets := mapSecrets{}

	cfg, err := loadWith(newFileBackend(path), secrets)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Admin.Token != "" {
		t.Errorf("Admin.Token = %q, want empty", cfg.Admin.Token)
	}

	secrets["admin.token"] = "from-store"
	cfg, err = loadWith(newFileBackend(path), secrets)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Admin.Token != "from-store" {
		t.Errorf("Admin.Token = %q, want %q", cfg.Admin.Token, "from-store")
	}

	t.Setenv("FOLIO_ADMIN_TOKEN", "from-env")
	cfg, err = loadWith(newFileBackend(path), secrets)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Admin.Token != "from-env" {
		t.Errorf("Admin.Token = %q, want %q", cfg.Admin.Token, "from-env")
	}
}

func TestSecretStoreErrorDoesNotFailLoad(t *testing.T) {
	cfg, err := loadWith(newFileBackend(writeTempConfig(t, `{}`)), brokenSecrets{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Admin.Token != "" {
		t.Errorf("Admin.Token = %q, want empty", cfg.Admin.Token)
	}
}

func TestFileBackend_BoolForms(t *testing.T) {
	tests := []struct {
		content string
		want    bool
	}{
		{`{"chat.record": false}`, false},
		{`{"chat.record": "false"}`, false},
		{`{"chat.record": "0"}`, false},
		{`{"chat.record": ""}`, true},
	}
	for _, tt := range tests {
		cfg, err := loadFromPath(t, writeTempConfig(t, tt.content))
		if err != nil {
			t.Fatalf("%s: %v", tt.content, err)
		}
		if cfg.Chat.Record != tt.want {
			t.Errorf("%s: Chat.Record = %v, want %v", tt.content, cfg.Chat.Record, tt.want)
		}
	}

	if _, err := loadFromPath(t, writeTempConfig(t, `{"chat.record": "maybe"}`)); err == nil || !strings.Contains(err.Error(), "chat.record") {
		t.Errorf("err = %v, want error naming chat.record", err)
	}
}

func TestFileBackend_UnparseableFileUsesDefaults(t *testing.T) {
	cfg, err := loadFromPath(t, writeTempConfig(t, `{not json`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 4100 {
		t.Errorf("Server.Port = %d, want 4100", cfg.Server.Port)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad port", `{"server.port": 70000}`, "server.port"},
		{"bad timeout", `{"contact.timeout": "soon"}`, "contact.timeout"},
		{"bad timezone", `{"contact.timezone": "Mars/Olympus"}`, "contact.timezone"},
		{"inverted delays", `{"chat.min_delay": "3s", "chat.max_delay": "1s"}`, "chat.max_delay"},
		{"bad delay", `{"chat.min_delay": "fast"}`, "chat.min_delay"},
		{"bad retention", `{"chat.retention": "forever"}`, "chat.retention"},
		{"negative retention", `{"chat.retention": "-1h"}`, "chat.retention"},
		{"non-integer port", `{"server.port": 4100.5}`, "server.port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadFromPath(t, writeTempConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestSetKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "folio", "config.json")
	b := newFileBackend(path)
	secrets := mapSecrets{}

	if err := setKeyWith(b, secrets, "server.port", "4200"); err != nil {
		t.Fatalf("setKeyWith(server.port): %v", err)
	}
	if err := setKeyWith(b, secrets, "chat.record", "false"); err != nil {
		t.Fatalf("setKeyWith(chat.record): %v", err)
	}
	if err := setKeyWith(b, secrets, "contact.relay_url", "https://relay.example.com"); err != nil {
		t.Fatalf("setKeyWith(contact.relay_url): %v", err)
	}

	if err := setKeyWith(b, secrets, "admin.token", "tok"); err != nil {
		t.Fatalf("setKeyWith(admin.token): %v", err)
	}
	if secrets["admin.token"] != "tok" {
		t.Errorf("secret store admin.token = %q, want %q", secrets["admin.token"], "tok")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), "tok\"") || strings.Contains(string(raw), "admin.token") {
		t.Errorf("config file contains the secret: %s", raw)
	}

	cfg, err := loadWith(newFileBackend(path), secrets)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if cfg.Admin.Token != "tok" {
		t.Errorf("Admin.Token = %q, want %q", cfg.Admin.Token, "tok")
	}
	if cfg.Server.Port != 4200 {
		t.Errorf("Server.Port = %d, want 4200", cfg.Server.Port)
	}
	if cfg.Chat.Record {
		t.Error("Chat.Record = true, want false")
	}
	if cfg.Contact.RelayURL != "https://relay.example.com" {
		t.Errorf("Contact.RelayURL = %q", cfg.Contact.RelayURL)
	}
}

func TestSetKey_Errors(t *testing.T) {
	b := newFileBackend(filepath.Join(t.TempDir(), "config.json"))
	secrets := mapSecrets{}

	if err := setKeyWith(b, secrets, "nope", "x"); err == nil {
		t.Error("expected error for unknown key")
	}
	if err := setKeyWith(b, secrets, "admin.token", ""); err == nil {
		t.Error("expected error for empty secret")
	}
	if err := setKeyWith(b, secrets, "server.port", "abc"); err == nil {
		t.Error("expected error for non-integer port")
	}
	if err := setKeyWith(b, secrets, "chat.record", "maybe"); err == nil {
		t.Error("expected error for non-boolean value")
	}
}

func TestUnsetKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	b := newFileBackend(path)
	secrets := mapSecrets{"admin.token": "tok"}

	if err := setKeyWith(b, secrets, "server.port", "4200"); err != nil {
		t.Fatal(err)
	}
	if err := unsetKeyWith(b, secrets, "server.port"); err != nil {
		t.Fatalf("unset server.port: %v", err)
	}
	if err := unsetKeyWith(b, secrets, "admin.token"); err != nil {
		t.Fatalf("unset admin.token: %v", err)
	}
	if _, ok := secrets["admin.token"]; ok {
		t.Error("admin.token still in secret store")
	}
	if err := unsetKeyWith(b, secrets, "nope"); err == nil {
		t.Error("expected error for unknown key")
	}

	cfg, err := loadWith(newFileBackend(path), secrets)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 4100 {
		t.Errorf("Server.Port = %d, want default 4100", cfg.Server.Port)
	}
}

func TestSecretsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "folio", "secrets.json")
	store := &secretsFile{path: path}

	if _, err := store.Get("admin.token"); !errors.Is(err, ErrSecretNotFound) {
		t.Fatalf("Get on empty store = %v, want ErrSecretNotFound", err)
	}
	if err := store.Set("admin.token", "tok"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := store.Get("admin.token")
	if err != nil || got != "tok" {
		t.Errorf("Get = %q, %v, want tok", got, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("secrets file mode = %o, want 600", perm)
	}

	if err := store.Delete("admin.token"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get("admin.token"); !errors.Is(err, ErrSecretNotFound) {
		t.Errorf("Get after Delete = %v, want ErrSecretNotFound", err)
	}
	if err := store.Delete("admin.token"); err != nil {
		t.Errorf("Delete of missing secret: %v", err)
	}
}

func TestSecretsFilePath_XDG(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")
	if got := secretsFilePath(); got != "/tmp/xdg-data/folio/secrets.json" {
		t.Errorf("secretsFilePath() = %q", got)
	}
}

func TestShowAllHidesSecrets(t *testing.T) {
	cfg := defaults()
	cfg.Admin.Token = "s3cret"
	for _, ki := range ShowAll(cfg) {
		if ki.Key == "admin.token" || ki.Value == "s3cret" {
			t.Errorf("ShowAll leaked secret: %+v", ki)
		}
	}
	if len(ShowAll(cfg)) != len(ValidKeys()) {
		t.Errorf("ShowAll has %d entries, ValidKeys has %d", len(ShowAll(cfg)), len(ValidKeys()))
	}
}

func TestFilePath_XDG(t *testing.T) {
	t.Setenv("FOLIO_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got := FilePath(); got != "/tmp/xdg/folio/config.json" {
		t.Errorf("FilePath() = %q", got)
	}
}

func TestFilePath_FolioConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	t.Setenv("FOLIO_CONFIG", "/etc/folio/config.json")
	if got := FilePath(); got != "/etc/folio/config.json" {
		t.Errorf("FilePath() = %q", got)
	}
}

func TestIsSecret(t *testing.T) {
	if !IsSecret("admin.token") {
		t.Error("IsSecret(admin.token) = false")
	}
	if IsSecret("server.port") || IsSecret("nope") {
		t.Error("IsSecret reported a non-secret key")
	}
}
