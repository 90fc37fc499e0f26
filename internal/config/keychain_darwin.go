//go:build darwin

package config

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// errSecItemNotFound is the exit status of security(1) for a missing item.
const errSecItemNotFound = 44

// keychain stores secrets as generic passwords in the login Keychain,
// service "folio", account = config key.
type keychain struct {
	service string
}

func newSecretStore() SecretStore {
	return keychain{service: secretService}
}

func keychainExec(args ...string) ([]byte, error) {
	return exec.Command("security", args...).Output()
}

func isNotFound(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr) && exitErr.ExitCode() == errSecItemNotFound
}

func (k keychain) Get(account string) (string, error) {
	out, err := keychainExec("find-generic-password", "-s", k.service, "-a", account, "-w")
	if isNotFound(err) {
		return "", ErrSecretNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading keychain item %s/%s: %w", k.service, account, err)
	}
	return strings.TrimSpace(string(out)), nil
}

func (k keychain) Set(account, value string) error {
	if _, err := keychainExec("add-generic-password", "-U", "-s", k.service, "-a", account, "-w", value); err != nil {
		return fmt.Errorf("writing keychain item %s/%s: %w", k.service, account, err)
	}
	return nil
}

func (k keychain) Delete(account string) error {
	_, err := keychainExec("delete-generic-password", "-s", k.service, "-a", account)
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("deleting keychain item %s/%s: %w", k.service, account, err)
	}
	return nil
}
