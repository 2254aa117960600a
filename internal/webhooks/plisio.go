package webhooks

import (
	"bytes"
	"encoding/json"
	"fmt"

	"printbridge/internal/types"
)

// Plisio callbacks carry their signature inside the JSON body: the
// verify_hash field is HMAC-SHA1 (keyed by the API key) over the payload
// object minus verify_hash itself, keys sorted ascending, re-serialized as
// JSON with non-ASCII preserved. Any tampered field invalidates the hash.
// The event tag is the "status" field.

type plisioVerifier struct{}

func newPlisioVerifier() Verifier {
	return &plisioVerifier{}
}

func (v *plisioVerifier) Verify(hook *types.InboundWebhook, secret types.SecretString) error {
	dec := json.NewDecoder(bytes.NewReader(hook.RawBody))
	// UseNumber keeps numeric literals byte-for-byte so re-serialization
	// reproduces what Plisio hashed.
	dec.UseNumber()

	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return fmt.Errorf("parsing payload: %w", err)
	}

	got, ok := payload["verify_hash"].(string)
	if !ok || got == "" {
		return fmt.Errorf("missing verify_hash field")
	}
	delete(payload, "verify_hash")

	canonical, err := canonicalJSON(payload)
	if err != nil {
		return fmt.Errorf("canonicalizing payload: %w", err)
	}

	want := hmacSHA1Hex(canonical, secret.Unmask())
	if !timingSafeEqual(got, want) {
		return errSignatureMismatch
	}
	return nil
}

// canonicalJSON serializes v with map keys sorted ascending (encoding/json's
// map behavior) and HTML/non-ASCII characters preserved rather than escaped.
func canonicalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	// Encoder.Encode appends a newline that is not part of the document.
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

type plisioPayload struct {
	TxnID       string      `json:"txn_id"`
	OrderNumber json.Number `json:"order_number"`
	OrderName   string      `json:"order_name"`
	Status      string      `json:"status"`
	Amount      json.Number `json:"amount"`
	Currency    string      `json:"currency"`
}

func newPlisioDecoder() Decoder {
	return &jsonDecoder{newTyped: func() any { return &plisioPayload{} }}
}

var plisioKinds = map[string]types.EventKind{
	"new":       types.KindCryptoPaymentPending,
	"pending":   types.KindCryptoPaymentPending,
	"completed": types.KindCryptoPaymentConfirmed,
	"mismatch":  types.KindCryptoPaymentPartial,
	"expired":   types.KindCryptoPaymentFailed,
	"error":     types.KindCryptoPaymentFailed,
	"cancelled": types.KindCryptoPaymentFailed,
}

type plisioClassifier struct{}

func (plisioClassifier) Classify(native *NativePayload, hook *types.InboundWebhook) types.CanonicalEvent {
	p := native.Typed.(*plisioPayload)

	kind, ok := plisioKinds[p.Status]
	if !ok {
		kind = types.KindUnrecognized
	}

	subject := p.OrderNumber.String()
	if subject == "" {
		subject = p.TxnID
	}

	return types.CanonicalEvent{
		Provider:   types.ProviderPlisio,
		Kind:       kind,
		SubjectID:  subject,
		NativeTag:  p.Status,
		RawPayload: native.Raw,
		OccurredAt: hook.ReceivedAt,
	}
}
