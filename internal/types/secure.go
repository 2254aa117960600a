package types

// redactedPlaceholder is the string used to replace secret values in logs
// and serialization.
const redactedPlaceholder = "***REDACTED***"

// redactedJSON is the pre-computed JSON encoding of the redacted placeholder.
var redactedJSON = []byte(`"***REDACTED***"`)

// SecretString is a string type that prevents accidental logging or
// serialization of sensitive values (webhook signing secrets, API keys,
// salts). It overrides String() and MarshalJSON() to return a redacted
// placeholder, so secrets never leak through fmt functions, structured log
// attributes, or JSON output.
//
// Use Unmask() to retrieve the raw value where it is genuinely needed
// (keying an HMAC, building an Authorization header).
type SecretString string

// String returns a redacted placeholder instead of the raw value.
func (s SecretString) String() string {
	return redactedPlaceholder
}

// MarshalJSON returns the redacted placeholder as a JSON string.
func (s SecretString) MarshalJSON() ([]byte, error) {
	return redactedJSON, nil
}

// Unmask returns the raw plaintext value of the secret.
func (s SecretString) Unmask() string {
	return string(s)
}

// IsZero reports whether no secret is configured. An empty secret means
// verification is skipped for that provider (unconfigured = unverified,
// not blocked) and the webhook is flagged low-trust in the audit trail.
func (s SecretString) IsZero() bool {
	return s == ""
}
