// Package types defines the shared domain model for the printbridge
// integration backend: provider identities, the canonical event taxonomy,
// the inbound webhook envelope, audit records, and the application error
// type used across package boundaries.
package types

import (
	"net/http"
	"time"
)

// Provider identifies an external vendor or processor that pushes webhooks
// to this service. The value selects which verifier/decoder/classifier
// triple applies to a request; it is immutable once a webhook is received.
type Provider string

const (
	ProviderPrintful       Provider = "printful"
	ProviderPrintify       Provider = "printify"
	ProviderCJDropshipping Provider = "cjdropshipping"
	ProviderEasyPost       Provider = "easypost"
	ProviderCCBill         Provider = "ccbill"
	ProviderNowPayments    Provider = "nowpayments"
	ProviderCoinbase       Provider = "coinbase"
	ProviderBTCPay         Provider = "btcpay"
	ProviderPlisio         Provider = "plisio"
)

// AllProviders lists every registered provider identity. Order matches the
// vendor onboarding order and is stable for iteration in tests and docs.
var AllProviders = []Provider{
	ProviderPrintful,
	ProviderPrintify,
	ProviderCJDropshipping,
	ProviderEasyPost,
	ProviderCCBill,
	ProviderNowPayments,
	ProviderCoinbase,
	ProviderBTCPay,
	ProviderPlisio,
}

// ParseProvider resolves a raw provider name (e.g. the ?provider= query
// value) to a registered Provider. The second return value reports whether
// the name is known.
func ParseProvider(name string) (Provider, bool) {
	p := Provider(name)
	for _, known := range AllProviders {
		if p == known {
			return p, true
		}
	}
	return "", false
}

// EventKind is the canonical, provider-agnostic classification of a webhook.
// The set is closed: classifiers map unknown provider tags to KindUnrecognized
// instead of inventing new kinds.
type EventKind string

const (
	// Order lifecycle (POD and dropshipping vendors).
	KindOrderCreated      EventKind = "order_created"
	KindOrderUpdated      EventKind = "order_updated"
	KindOrderShipped      EventKind = "order_shipped"
	KindOrderDelivered    EventKind = "order_delivered"
	KindOrderCanceled     EventKind = "order_canceled"
	KindOrderFailed       EventKind = "order_failed"
	KindOrderInProduction EventKind = "order_in_production"

	// Catalog sync.
	KindProductSynced     EventKind = "product_synced"
	KindProductPublishing EventKind = "product_publishing"
	KindProductDeleted    EventKind = "product_deleted"

	// Shipping carrier.
	KindTrackingUpdate  EventKind = "tracking_update"
	KindBatchUpdate     EventKind = "batch_update"
	KindScanFormCreated EventKind = "scan_form_created"

	// Card payment processor.
	KindPaymentSucceeded          EventKind = "payment_succeeded"
	KindPaymentFailed             EventKind = "payment_failed"
	KindSubscriptionRenewed       EventKind = "subscription_renewed"
	KindSubscriptionRenewalFailed EventKind = "subscription_renewal_failed"
	KindSubscriptionCanceled      EventKind = "subscription_canceled"
	KindChargeback                EventKind = "chargeback"
	KindRefund                    EventKind = "refund"

	// Crypto payment processors.
	KindCryptoPaymentConfirmed EventKind = "crypto_payment_confirmed"
	KindCryptoPaymentPending   EventKind = "crypto_payment_pending"
	KindCryptoPaymentPartial   EventKind = "crypto_payment_partial"
	KindCryptoPaymentFailed    EventKind = "crypto_payment_failed"
	KindCryptoPaymentDelayed   EventKind = "crypto_payment_delayed"
	KindCryptoPaymentResolved  EventKind = "crypto_payment_resolved"

	// KindUnrecognized is the terminal classification for any provider tag
	// without a mapping. Unrecognized events are acknowledged, never rejected,
	// so providers do not retry them indefinitely.
	KindUnrecognized EventKind = "unrecognized"
)

// FinanciallySensitive reports whether events of this kind must be
// distinguishable in the audit trail for alerting (consumed by the ops
// alerting system).
func (k EventKind) FinanciallySensitive() bool {
	switch k {
	case KindChargeback, KindPaymentFailed, KindCryptoPaymentFailed:
		return true
	}
	return false
}

// InboundWebhook is the immutable envelope created once per HTTP request and
// consumed exactly once by the ingestion pipeline. RawBody holds the exact
// byte sequence received on the wire; verifiers operate on these bytes, never
// on a re-serialized form.
type InboundWebhook struct {
	Provider   Provider
	RawBody    []byte
	Headers    http.Header
	ReceivedAt time.Time
}

// Header returns the named header value with case-insensitive lookup.
func (w *InboundWebhook) Header(name string) string {
	if w.Headers == nil {
		return ""
	}
	return w.Headers.Get(name)
}

// CanonicalEvent is the internal, provider-agnostic representation of a
// webhook's meaning. It is derived deterministically from an InboundWebhook
// and immutable once constructed; downstream code never inspects
// provider-native payload shapes again.
type CanonicalEvent struct {
	Provider   Provider
	Kind       EventKind
	SubjectID  string // order/charge/invoice id extracted from the payload
	NativeTag  string // the provider's own event tag, kept for audit context
	RawPayload map[string]any
	OccurredAt time.Time
}

// AuditStage marks where in the pipeline an audit record was written.
type AuditStage string

const (
	AuditStageReceived AuditStage = "received"
	AuditStageOutcome  AuditStage = "outcome"
)

// AuditOutcome is the terminal result recorded for a webhook.
type AuditOutcome string

const (
	OutcomeDispatched AuditOutcome = "dispatched"
	OutcomeIgnored    AuditOutcome = "ignored"
	OutcomeRejected   AuditOutcome = "rejected"
)

// AuditRecord is one append-only entry in the webhook audit trail. Records
// are written at receipt and at the terminal outcome; each write is atomic
// (a single INSERT), so concurrent requests never interleave a record.
type AuditRecord struct {
	ID        string       `json:"id"`
	Timestamp time.Time    `json:"ts"`
	Provider  Provider     `json:"provider"`
	Stage     AuditStage   `json:"stage"`
	Outcome   AuditOutcome `json:"outcome,omitempty"` // empty for received-stage records
	Kind      EventKind    `json:"kind,omitempty"`    // empty until classification
	SubjectID string       `json:"subject_id,omitempty"`
	Message   string       `json:"message"`
	// LowTrust flags webhooks processed without signature verification
	// (unconfigured secret) or past a lenient verification failure.
	LowTrust bool `json:"low_trust,omitempty"`
	// Sensitive flags financially sensitive kinds for the alerting consumer.
	Sensitive bool           `json:"sensitive,omitempty"`
	Context   map[string]any `json:"context,omitempty"`
}

// AdminAlert is the fire-and-forget notification sent when a financially
// sensitive event (chargeback, payment failure) arrives. Consumed by the
// ops alerting system via the alert queue.
type AdminAlert struct {
	Provider  Provider  `json:"provider"`
	Kind      EventKind `json:"kind"`
	SubjectID string    `json:"subject_id"`
	Message   string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
}

// HandlerResult is the terminal outcome of dispatching a CanonicalEvent.
type HandlerResult struct {
	Kind      EventKind    `json:"kind"`
	SubjectID string       `json:"subject_id,omitempty"`
	Outcome   AuditOutcome `json:"outcome"`
}
