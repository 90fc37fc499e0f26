//go:build !darwin

package config

func newSecretStore() SecretStore {
	return &secretsFile{path: secretsFilePath()}
}
