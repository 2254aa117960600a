package webhooks

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"hash"

	"printbridge/internal/types"
)

// Verifier authenticates an inbound webhook against the provider's signing
// secret. Implementations are pure: they read the exact raw bytes and headers
// of the request and produce no side effects. Every comparison of
// secret-derived values is constant-time.
type Verifier interface {
	Verify(hook *types.InboundWebhook, secret types.SecretString) error
}

// Decoder turns the raw request body into a provider-native payload.
type Decoder interface {
	Decode(rawBody []byte) (*NativePayload, error)
}

// Classifier maps a provider-native payload to a CanonicalEvent. It never
// fails: tags without a mapping classify to KindUnrecognized, which is
// acknowledged downstream so the provider does not retry indefinitely.
type Classifier interface {
	Classify(native *NativePayload, hook *types.InboundWebhook) types.CanonicalEvent
}

// NativePayload carries both the provider-typed decode result (consumed by
// that provider's classifier) and the generic decoded form (carried into the
// CanonicalEvent and the audit trail).
type NativePayload struct {
	Typed any
	Raw   map[string]any
}

// errSignatureMismatch is the uniform mismatch error. It deliberately carries
// no detail about where the comparison diverged.
var errSignatureMismatch = fmt.Errorf("signature mismatch")

// timingSafeEqual compares two signature strings in constant time.
func timingSafeEqual(got, want string) bool {
	// subtle.ConstantTimeCompare returns early on length mismatch, but the
	// length of an HMAC in a fixed encoding is public information.
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func computeHMAC(h func() hash.Hash, body []byte, secret string) []byte {
	mac := hmac.New(h, []byte(secret))
	mac.Write(body)
	return mac.Sum(nil)
}

func hmacSHA256Base64(body []byte, secret string) string {
	return base64.StdEncoding.EncodeToString(computeHMAC(sha256.New, body, secret))
}

func hmacSHA256Hex(body []byte, secret string) string {
	return hex.EncodeToString(computeHMAC(sha256.New, body, secret))
}

func hmacSHA512Hex(body []byte, secret string) string {
	return hex.EncodeToString(computeHMAC(sha512.New, body, secret))
}

func hmacSHA1Hex(body []byte, secret string) string {
	return hex.EncodeToString(computeHMAC(sha1.New, body, secret))
}

// hmacHeaderVerifier covers the common provider family: an HMAC over the raw
// body, encoded, carried in a single header, optionally with a fixed prefix
// (e.g. "sha256="). The raw byte sequence is signed; re-encoding the payload
// before verification would be a correctness bug.
type hmacHeaderVerifier struct {
	header  string
	prefix  string // stripped from the header value if present, e.g. "sha256="
	compute func(body []byte, secret string) string
}

func (v *hmacHeaderVerifier) Verify(hook *types.InboundWebhook, secret types.SecretString) error {
	got := hook.Header(v.header)
	if got == "" {
		return fmt.Errorf("missing %s header", v.header)
	}
	if v.prefix != "" && len(got) > len(v.prefix) && got[:len(v.prefix)] == v.prefix {
		got = got[len(v.prefix):]
	}

	want := v.compute(hook.RawBody, secret.Unmask())
	if !timingSafeEqual(got, want) {
		return errSignatureMismatch
	}
	return nil
}
