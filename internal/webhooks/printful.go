package webhooks

import (
	"encoding/json"
	"time"

	"printbridge/internal/types"
)

// Printful pushes JSON events signed with HMAC-SHA256 over the raw body,
// base64-encoded, in the X-Printful-Signature header. The event tag lives in
// the top-level "type" field.

const printfulSignatureHeader = "X-Printful-Signature"

func newPrintfulVerifier() Verifier {
	return &hmacHeaderVerifier{
		header:  printfulSignatureHeader,
		compute: hmacSHA256Base64,
	}
}

type printfulPayload struct {
	Type    string       `json:"type"`
	Created int64        `json:"created"`
	Data    printfulData `json:"data"`
}

type printfulData struct {
	OrderID     json.Number          `json:"order_id"`
	Order       *printfulOrder       `json:"order"`
	SyncProduct *printfulSyncProduct `json:"sync_product"`
}

type printfulOrder struct {
	ID         json.Number `json:"id"`
	ExternalID string      `json:"external_id"`
	Status     string      `json:"status"`
}

type printfulSyncProduct struct {
	ID   json.Number `json:"id"`
	Name string      `json:"name"`
}

func newPrintfulDecoder() Decoder {
	return &jsonDecoder{newTyped: func() any { return &printfulPayload{} }}
}

// printfulKinds maps Printful event types to canonical kinds. Events without
// an entry (stock_updated, order_put_hold, ...) classify to Unrecognized and
// are acknowledged without dispatch.
var printfulKinds = map[string]types.EventKind{
	"order_created":    types.KindOrderCreated,
	"order_updated":    types.KindOrderUpdated,
	"order_failed":     types.KindOrderFailed,
	"order_canceled":   types.KindOrderCanceled,
	"package_shipped":  types.KindOrderShipped,
	"package_returned": types.KindOrderFailed,
	"product_synced":   types.KindProductSynced,
	"product_updated":  types.KindProductSynced,
	"product_deleted":  types.KindProductDeleted,
}

type printfulClassifier struct{}

func (printfulClassifier) Classify(native *NativePayload, hook *types.InboundWebhook) types.CanonicalEvent {
	p := native.Typed.(*printfulPayload)

	kind, ok := printfulKinds[p.Type]
	if !ok {
		kind = types.KindUnrecognized
	}

	subject := p.Data.OrderID.String()
	if subject == "" && p.Data.Order != nil {
		subject = p.Data.Order.ID.String()
	}
	if subject == "" && p.Data.SyncProduct != nil {
		subject = p.Data.SyncProduct.ID.String()
	}

	occurredAt := hook.ReceivedAt
	if p.Created > 0 {
		occurredAt = time.Unix(p.Created, 0).UTC()
	}

	return types.CanonicalEvent{
		Provider:   types.ProviderPrintful,
		Kind:       kind,
		SubjectID:  subject,
		NativeTag:  p.Type,
		RawPayload: native.Raw,
		OccurredAt: occurredAt,
	}
}
