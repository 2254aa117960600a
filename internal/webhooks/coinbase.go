package webhooks

import (
	"time"

	"printbridge/internal/types"
)

// Coinbase Commerce pushes JSON events signed with HMAC-SHA256 over the raw
// body, hex-encoded in the X-CC-Webhook-Signature header. The payload nests
// the event under "event"; its "type" field is the tag.

const coinbaseSignatureHeader = "X-CC-Webhook-Signature"

func newCoinbaseVerifier() Verifier {
	return &hmacHeaderVerifier{
		header:  coinbaseSignatureHeader,
		compute: hmacSHA256Hex,
	}
}

type coinbasePayload struct {
	Event coinbaseEvent `json:"event"`
}

type coinbaseEvent struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	CreatedAt string            `json:"created_at"`
	Data      coinbaseChargeRef `json:"data"`
}

type coinbaseChargeRef struct {
	ID   string `json:"id"`
	Code string `json:"code"`
}

func newCoinbaseDecoder() Decoder {
	return &jsonDecoder{newTyped: func() any { return &coinbasePayload{} }}
}

var coinbaseKinds = map[string]types.EventKind{
	"charge:created":   types.KindCryptoPaymentPending,
	"charge:pending":   types.KindCryptoPaymentPending,
	"charge:confirmed": types.KindCryptoPaymentConfirmed,
	"charge:failed":    types.KindCryptoPaymentFailed,
	"charge:delayed":   types.KindCryptoPaymentDelayed,
	"charge:resolved":  types.KindCryptoPaymentResolved,
}

type coinbaseClassifier struct{}

func (coinbaseClassifier) Classify(native *NativePayload, hook *types.InboundWebhook) types.CanonicalEvent {
	p := native.Typed.(*coinbasePayload)

	kind, ok := coinbaseKinds[p.Event.Type]
	if !ok {
		kind = types.KindUnrecognized
	}

	subject := p.Event.Data.Code
	if subject == "" {
		subject = p.Event.Data.ID
	}

	occurredAt := hook.ReceivedAt
	if t, err := time.Parse(time.RFC3339, p.Event.CreatedAt); err == nil {
		occurredAt = t.UTC()
	}

	return types.CanonicalEvent{
		Provider:   types.ProviderCoinbase,
		Kind:       kind,
		SubjectID:  subject,
		NativeTag:  p.Event.Type,
		RawPayload: native.Raw,
		OccurredAt: occurredAt,
	}
}
