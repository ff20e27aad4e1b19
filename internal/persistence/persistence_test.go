package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearRequiredEnv sets every credential env var to empty string for the
// duration of the test. LoadCredentials treats an empty value the same as
// an unset one, so this is sufficient to simulate a missing variable.
func clearRequiredEnv(t *testing.T) {
	t.Helper()
	for _, name := range requiredEnvVars {
		t.Setenv(name, "")
	}
}

func TestLoadCredentials_MissingAllReturnsError(t *testing.T) {
	clearRequiredEnv(t)

	_, err := LoadCredentials()
	require.Error(t, err)
	for _, name := range requiredEnvVars {
		assert.Contains(t, err.Error(), name)
	}
}

func TestLoadCredentials_PartialMissingReturnsError(t *testing.T) {
	clearRequiredEnv(t)
	t.Setenv("CERT", "/tmp/ca.pem")
	t.Setenv("DB_HOST", "localhost")

	_, err := LoadCredentials()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PORT")
}

func TestLoadCredentials_AllPresentSucceeds(t *testing.T) {
	clearRequiredEnv(t)
	t.Setenv("CERT", "/tmp/ca.pem")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_NAME", "forc")
	t.Setenv("DB_USER", "forc")
	t.Setenv("DB_PASSWORD", "secret")

	creds, err := LoadCredentials()
	require.NoError(t, err)
	assert.Equal(t, Credentials{
		CertPath: "/tmp/ca.pem",
		Host:     "localhost",
		Port:     "5432",
		Name:     "forc",
		User:     "forc",
		Password: "secret",
	}, creds)
}
