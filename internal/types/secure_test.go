package types

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecretString_Redaction(t *testing.T) {
	secret := SecretString("whsec_supersecret")

	assert.Equal(t, "***REDACTED***", secret.String())
	assert.Equal(t, "***REDACTED***", fmt.Sprintf("%v", secret))
	assert.Equal(t, "***REDACTED***", fmt.Sprintf("%s", secret))

	b, err := json.Marshal(secret)
	require.NoError(t, err)
	assert.Equal(t, `"***REDACTED***"`, string(b))

	// Secrets embedded in structs must redact too.
	b, err = json.Marshal(struct {
		Key SecretString `json:"key"`
	}{Key: secret})
	require.NoError(t, err)
	assert.NotContains(t, string(b), "supersecret")
}

func TestSecretString_Unmask(t *testing.T) {
	secret := SecretString("whsec_supersecret")
	assert.Equal(t, "whsec_supersecret", secret.Unmask())
}

func TestSecretString_IsZero(t *testing.T) {
	assert.True(t, SecretString("").IsZero())
	assert.False(t, SecretString("x").IsZero())
}
