package webhooks

import (
	"time"

	"printbridge/internal/types"
)

// EasyPost pushes JSON events signed with HMAC-SHA256 over the raw body,
// carried hex-encoded in the X-Hmac-Signature header with an
// "hmac-sha256-hex=" prefix. The event tag is the "description" field
// (tracker.updated, batch.created, ...); the affected object is "result".

const easypostSignatureHeader = "X-Hmac-Signature"

func newEasyPostVerifier() Verifier {
	return &hmacHeaderVerifier{
		header:  easypostSignatureHeader,
		prefix:  "hmac-sha256-hex=",
		compute: hmacSHA256Hex,
	}
}

type easypostPayload struct {
	ID          string         `json:"id"`
	Description string         `json:"description"`
	CreatedAt   string         `json:"created_at"`
	Result      easypostResult `json:"result"`
}

type easypostResult struct {
	ID         string `json:"id"`
	Object     string `json:"object"`
	ShipmentID string `json:"shipment_id"`
	Status     string `json:"status"`
}

func newEasyPostDecoder() Decoder {
	return &jsonDecoder{newTyped: func() any { return &easypostPayload{} }}
}

var easypostKinds = map[string]types.EventKind{
	"tracker.created":   types.KindTrackingUpdate,
	"tracker.updated":   types.KindTrackingUpdate,
	"batch.created":     types.KindBatchUpdate,
	"batch.updated":     types.KindBatchUpdate,
	"scan_form.created": types.KindScanFormCreated,
	"scan_form.updated": types.KindScanFormCreated,
	"refund.successful": types.KindRefund,
}

type easypostClassifier struct{}

func (easypostClassifier) Classify(native *NativePayload, hook *types.InboundWebhook) types.CanonicalEvent {
	p := native.Typed.(*easypostPayload)

	kind, ok := easypostKinds[p.Description]
	if !ok {
		kind = types.KindUnrecognized
	}

	subject := p.Result.ShipmentID
	if subject == "" {
		subject = p.Result.ID
	}

	occurredAt := hook.ReceivedAt
	if t, err := time.Parse(time.RFC3339, p.CreatedAt); err == nil {
		occurredAt = t.UTC()
	}

	return types.CanonicalEvent{
		Provider:   types.ProviderEasyPost,
		Kind:       kind,
		SubjectID:  subject,
		NativeTag:  p.Description,
		RawPayload: native.Raw,
		OccurredAt: occurredAt,
	}
}
