package webhooks

import (
	"time"

	"printbridge/internal/types"
)

// BTCPay Server pushes JSON events signed with HMAC-SHA256 over the raw
// body, hex-encoded with a literal "sha256=" prefix in the BTCPay-Sig
// header. The event tag is the "type" field (InvoiceSettled, ...).

const btcpaySignatureHeader = "BTCPay-Sig"

func newBTCPayVerifier() Verifier {
	return &hmacHeaderVerifier{
		header:  btcpaySignatureHeader,
		prefix:  "sha256=",
		compute: hmacSHA256Hex,
	}
}

type btcpayPayload struct {
	DeliveryID      string `json:"deliveryId"`
	Type            string `json:"type"`
	Timestamp       int64  `json:"timestamp"`
	InvoiceID       string `json:"invoiceId"`
	StoreID         string `json:"storeId"`
	PartiallyPaid   bool   `json:"partiallyPaid"`
	ManuallyMarked  bool   `json:"manuallyMarked"`
	OverPaid        bool   `json:"overPaid"`
	AfterExpiration bool   `json:"afterExpiration"`
}

func newBTCPayDecoder() Decoder {
	return &jsonDecoder{newTyped: func() any { return &btcpayPayload{} }}
}

var btcpayKinds = map[string]types.EventKind{
	"InvoiceCreated":            types.KindCryptoPaymentPending,
	"InvoiceReceivedPayment":    types.KindCryptoPaymentPending,
	"InvoiceProcessing":         types.KindCryptoPaymentPending,
	"InvoicePaymentSettled":     types.KindCryptoPaymentConfirmed,
	"InvoiceSettled":            types.KindCryptoPaymentConfirmed,
	"InvoiceExpired":            types.KindCryptoPaymentFailed,
	"InvoiceInvalid":            types.KindCryptoPaymentFailed,
	"InvoiceExpiredPaidPartial": types.KindCryptoPaymentPartial,
}

type btcpayClassifier struct{}

func (btcpayClassifier) Classify(native *NativePayload, hook *types.InboundWebhook) types.CanonicalEvent {
	p := native.Typed.(*btcpayPayload)

	kind, ok := btcpayKinds[p.Type]
	if !ok {
		kind = types.KindUnrecognized
	}
	// An expired invoice with a partial payment is a partial, whatever the
	// type string said.
	if p.Type == "InvoiceExpired" && p.PartiallyPaid {
		kind = types.KindCryptoPaymentPartial
	}

	occurredAt := hook.ReceivedAt
	if p.Timestamp > 0 {
		occurredAt = time.Unix(p.Timestamp, 0).UTC()
	}

	return types.CanonicalEvent{
		Provider:   types.ProviderBTCPay,
		Kind:       kind,
		SubjectID:  p.InvoiceID,
		NativeTag:  p.Type,
		RawPayload: native.Raw,
		OccurredAt: occurredAt,
	}
}
