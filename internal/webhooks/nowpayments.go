package webhooks

import (
	"encoding/json"

	"printbridge/internal/types"
)

// NOWPayments IPN callbacks are JSON signed with HMAC-SHA512 over the raw
// body, hex-encoded in the x-nowpayments-sig header. The event tag is the
// "payment_status" field.

const nowpaymentsSignatureHeader = "x-nowpayments-sig"

func newNowPaymentsVerifier() Verifier {
	return &hmacHeaderVerifier{
		header:  nowpaymentsSignatureHeader,
		compute: hmacSHA512Hex,
	}
}

type nowpaymentsPayload struct {
	PaymentID     json.Number `json:"payment_id"`
	PaymentStatus string      `json:"payment_status"`
	OrderID       string      `json:"order_id"`
	PayCurrency   string      `json:"pay_currency"`
	ActuallyPaid  json.Number `json:"actually_paid"`
}

func newNowPaymentsDecoder() Decoder {
	return &jsonDecoder{newTyped: func() any { return &nowpaymentsPayload{} }}
}

var nowpaymentsKinds = map[string]types.EventKind{
	"waiting":        types.KindCryptoPaymentPending,
	"confirming":     types.KindCryptoPaymentPending,
	"sending":        types.KindCryptoPaymentPending,
	"confirmed":      types.KindCryptoPaymentConfirmed,
	"finished":       types.KindCryptoPaymentConfirmed,
	"partially_paid": types.KindCryptoPaymentPartial,
	"failed":         types.KindCryptoPaymentFailed,
	"expired":        types.KindCryptoPaymentFailed,
	"refunded":       types.KindRefund,
}

type nowpaymentsClassifier struct{}

func (nowpaymentsClassifier) Classify(native *NativePayload, hook *types.InboundWebhook) types.CanonicalEvent {
	p := native.Typed.(*nowpaymentsPayload)

	kind, ok := nowpaymentsKinds[p.PaymentStatus]
	if !ok {
		kind = types.KindUnrecognized
	}

	subject := p.OrderID
	if subject == "" {
		subject = p.PaymentID.String()
	}

	return types.CanonicalEvent{
		Provider:   types.ProviderNowPayments,
		Kind:       kind,
		SubjectID:  subject,
		NativeTag:  p.PaymentStatus,
		RawPayload: native.Raw,
		OccurredAt: hook.ReceivedAt,
	}
}
