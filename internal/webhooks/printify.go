package webhooks

import (
	"time"

	"printbridge/internal/types"
)

// Printify pushes JSON events signed with HMAC-SHA256 over the raw body,
// hex-encoded in the X-Pfy-Signature header (some deliveries carry a
// "sha256=" prefix). The event tag is the "topic" field; the affected
// entity rides in "resource".

const printifySignatureHeader = "X-Pfy-Signature"

func newPrintifyVerifier() Verifier {
	return &hmacHeaderVerifier{
		header:  printifySignatureHeader,
		prefix:  "sha256=",
		compute: hmacSHA256Hex,
	}
}

type printifyPayload struct {
	ID        string           `json:"id"`
	Topic     string           `json:"topic"`
	CreatedAt string           `json:"created_at"`
	Resource  printifyResource `json:"resource"`
}

type printifyResource struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

func newPrintifyDecoder() Decoder {
	return &jsonDecoder{newTyped: func() any { return &printifyPayload{} }}
}

var printifyKinds = map[string]types.EventKind{
	"order:created":            types.KindOrderCreated,
	"order:updated":            types.KindOrderUpdated,
	"order:sent-to-production": types.KindOrderInProduction,
	"order:shipment:created":   types.KindOrderShipped,
	"order:shipment:delivered": types.KindOrderDelivered,
	"product:publish:started":  types.KindProductPublishing,
	"product:deleted":          types.KindProductDeleted,
}

type printifyClassifier struct{}

func (printifyClassifier) Classify(native *NativePayload, hook *types.InboundWebhook) types.CanonicalEvent {
	p := native.Typed.(*printifyPayload)

	kind, ok := printifyKinds[p.Topic]
	if !ok {
		kind = types.KindUnrecognized
	}

	occurredAt := hook.ReceivedAt
	if t, err := time.Parse(time.RFC3339, p.CreatedAt); err == nil {
		occurredAt = t.UTC()
	}

	return types.CanonicalEvent{
		Provider:   types.ProviderPrintify,
		Kind:       kind,
		SubjectID:  p.Resource.ID,
		NativeTag:  p.Topic,
		RawPayload: native.Raw,
		OccurredAt: occurredAt,
	}
}
