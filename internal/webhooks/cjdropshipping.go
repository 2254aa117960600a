package webhooks

import (
	"encoding/json"

	"printbridge/internal/types"
)

// CJDropshipping pushes JSON order/logistics notifications. The vendor does
// not document a signing scheme, so verification uses our own shared-secret
// HMAC-SHA256 (hex, CJ-Signature header) configured on their push endpoint.
// Deployments without the secret fall back to the unverified low-trust path.

const cjSignatureHeader = "CJ-Signature"

func newCJVerifier() Verifier {
	return &hmacHeaderVerifier{
		header:  cjSignatureHeader,
		compute: hmacSHA256Hex,
	}
}

type cjPayload struct {
	Type string `json:"type"`
	Data cjData `json:"data"`
}

type cjData struct {
	OrderID        json.Number `json:"orderId"`
	CJOrderID      string      `json:"cjOrderId"`
	OrderStatus    string      `json:"orderStatus"`
	TrackingNumber string      `json:"trackingNumber"`
}

func newCJDecoder() Decoder {
	return &jsonDecoder{newTyped: func() any { return &cjPayload{} }}
}

var cjKinds = map[string]types.EventKind{
	"ORDER_CREATED":    types.KindOrderCreated,
	"ORDER_UPDATED":    types.KindOrderUpdated,
	"ORDER_SHIPPED":    types.KindOrderShipped,
	"ORDER_DELIVERED":  types.KindOrderDelivered,
	"ORDER_CANCELLED":  types.KindOrderCanceled,
	"TRACKING_UPDATED": types.KindTrackingUpdate,
}

type cjClassifier struct{}

func (cjClassifier) Classify(native *NativePayload, hook *types.InboundWebhook) types.CanonicalEvent {
	p := native.Typed.(*cjPayload)

	kind, ok := cjKinds[p.Type]
	if !ok {
		kind = types.KindUnrecognized
	}

	subject := p.Data.OrderID.String()
	if subject == "" {
		subject = p.Data.CJOrderID
	}

	return types.CanonicalEvent{
		Provider:   types.ProviderCJDropshipping,
		Kind:       kind,
		SubjectID:  subject,
		NativeTag:  p.Type,
		RawPayload: native.Raw,
		OccurredAt: hook.ReceivedAt,
	}
}
