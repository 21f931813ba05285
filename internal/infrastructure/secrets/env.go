// Package secrets resolves provider credentials from the environment.
// Secret persistence at rest is outside the pipeline's scope.
package secrets

import (
	"os"

	"github.com/Bardin08/docify/internal/ports"
)

// EnvStore reads credentials from environment variables, which godotenv
// seeds from a .env file at startup.
type EnvStore struct{}

// NewEnvStore creates an EnvStore.
func NewEnvStore() *EnvStore {
	return &EnvStore{}
}

// Credential implements ports.CredentialStore.
func (*EnvStore) Credential(envVar string) string {
	if envVar == "" {
		return ""
	}
	return os.Getenv(envVar)
}

var _ ports.CredentialStore = (*EnvStore)(nil)
