package webhooks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printbridge/internal/types"
)

func classify(t *testing.T, provider types.Provider, body string) types.CanonicalEvent {
	t.Helper()
	registry := NewRegistry()
	pipeline, ok := registry.Lookup(provider)
	require.True(t, ok)

	hook := inbound(provider, body, nil)
	native, err := pipeline.Decoder.Decode(hook.RawBody)
	require.NoError(t, err)
	return pipeline.Classifier.Classify(native, hook)
}

func TestClassifyPrintful(t *testing.T) {
	tests := []struct {
		body    string
		kind    types.EventKind
		subject string
	}{
		{`{"type":"package_shipped","created":1622456737,"data":{"order_id":123}}`, types.KindOrderShipped, "123"},
		{`{"type":"order_created","data":{"order":{"id":55,"status":"pending"}}}`, types.KindOrderCreated, "55"},
		{`{"type":"package_returned","data":{"order_id":9}}`, types.KindOrderFailed, "9"},
		{`{"type":"product_synced","data":{"sync_product":{"id":777,"name":"Mug"}}}`, types.KindProductSynced, "777"},
		{`{"type":"stock_updated","data":{}}`, types.KindUnrecognized, ""},
	}

	for _, tt := range tests {
		event := classify(t, types.ProviderPrintful, tt.body)
		assert.Equal(t, tt.kind, event.Kind, tt.body)
		assert.Equal(t, tt.subject, event.SubjectID, tt.body)
		assert.Equal(t, types.ProviderPrintful, event.Provider)
	}
}

func TestClassifyPrintful_OccurredAtFromCreated(t *testing.T) {
	event := classify(t, types.ProviderPrintful,
		`{"type":"package_shipped","created":1622456737,"data":{"order_id":123}}`)
	assert.Equal(t, time.Unix(1622456737, 0).UTC(), event.OccurredAt)
}

func TestClassifyPrintify(t *testing.T) {
	tests := []struct {
		body    string
		kind    types.EventKind
		subject string
	}{
		{`{"topic":"order:created","resource":{"id":"ord_1"}}`, types.KindOrderCreated, "ord_1"},
		{`{"topic":"order:sent-to-production","resource":{"id":"ord_2"}}`, types.KindOrderInProduction, "ord_2"},
		{`{"topic":"order:shipment:created","resource":{"id":"ord_3"}}`, types.KindOrderShipped, "ord_3"},
		{`{"topic":"order:shipment:delivered","resource":{"id":"ord_4"}}`, types.KindOrderDelivered, "ord_4"},
		{`{"topic":"product:publish:started","resource":{"id":"prod_1"}}`, types.KindProductPublishing, "prod_1"},
		{`{"topic":"shop:disconnected","resource":{"id":"shop_1"}}`, types.KindUnrecognized, "shop_1"},
	}

	for _, tt := range tests {
		event := classify(t, types.ProviderPrintify, tt.body)
		assert.Equal(t, tt.kind, event.Kind, tt.body)
		assert.Equal(t, tt.subject, event.SubjectID, tt.body)
	}
}

func TestClassifyCJDropshipping(t *testing.T) {
	event := classify(t, types.ProviderCJDropshipping,
		`{"type":"ORDER_SHIPPED","data":{"orderId":100200,"trackingNumber":"TRK1"}}`)
	assert.Equal(t, types.KindOrderShipped, event.Kind)
	assert.Equal(t, "100200", event.SubjectID)

	event = classify(t, types.ProviderCJDropshipping,
		`{"type":"TRACKING_UPDATED","data":{"cjOrderId":"CJ-55"}}`)
	assert.Equal(t, types.KindTrackingUpdate, event.Kind)
	assert.Equal(t, "CJ-55", event.SubjectID)

	event = classify(t, types.ProviderCJDropshipping, `{"type":"INVENTORY_SYNC","data":{}}`)
	assert.Equal(t, types.KindUnrecognized, event.Kind)
}

func TestClassifyEasyPost(t *testing.T) {
	event := classify(t, types.ProviderEasyPost,
		`{"description":"tracker.updated","result":{"id":"trk_1","shipment_id":"shp_1"}}`)
	assert.Equal(t, types.KindTrackingUpdate, event.Kind)
	assert.Equal(t, "shp_1", event.SubjectID)

	event = classify(t, types.ProviderEasyPost,
		`{"description":"refund.successful","result":{"id":"rfnd_1"}}`)
	assert.Equal(t, types.KindRefund, event.Kind)
	assert.Equal(t, "rfnd_1", event.SubjectID)

	event = classify(t, types.ProviderEasyPost,
		`{"description":"payment.created","result":{"id":"pay_1"}}`)
	assert.Equal(t, types.KindUnrecognized, event.Kind)
}

func TestClassifyNowPayments(t *testing.T) {
	tests := []struct {
		status string
		kind   types.EventKind
	}{
		{"waiting", types.KindCryptoPaymentPending},
		{"confirming", types.KindCryptoPaymentPending},
		{"finished", types.KindCryptoPaymentConfirmed},
		{"partially_paid", types.KindCryptoPaymentPartial},
		{"expired", types.KindCryptoPaymentFailed},
		{"refunded", types.KindRefund},
		{"mystery", types.KindUnrecognized},
	}

	for _, tt := range tests {
		event := classify(t, types.ProviderNowPayments,
			`{"payment_id":4521,"payment_status":"`+tt.status+`","order_id":"ord_77"}`)
		assert.Equal(t, tt.kind, event.Kind, tt.status)
		assert.Equal(t, "ord_77", event.SubjectID)
	}
}

func TestClassifyNowPayments_FallsBackToPaymentID(t *testing.T) {
	event := classify(t, types.ProviderNowPayments,
		`{"payment_id":4521,"payment_status":"finished"}`)
	assert.Equal(t, "4521", event.SubjectID)
}

func TestClassifyCoinbase(t *testing.T) {
	event := classify(t, types.ProviderCoinbase,
		`{"event":{"id":"evt_1","type":"charge:confirmed","created_at":"2026-08-01T10:00:00Z","data":{"id":"ch_1","code":"66BEOV2A"}}}`)
	assert.Equal(t, types.KindCryptoPaymentConfirmed, event.Kind)
	assert.Equal(t, "66BEOV2A", event.SubjectID)
	assert.Equal(t, time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC), event.OccurredAt)

	event = classify(t, types.ProviderCoinbase,
		`{"event":{"type":"charge:delayed","data":{"id":"ch_2"}}}`)
	assert.Equal(t, types.KindCryptoPaymentDelayed, event.Kind)
	assert.Equal(t, "ch_2", event.SubjectID)
}

func TestClassifyBTCPay(t *testing.T) {
	event := classify(t, types.ProviderBTCPay,
		`{"type":"InvoiceSettled","timestamp":1622456737,"invoiceId":"inv_1"}`)
	assert.Equal(t, types.KindCryptoPaymentConfirmed, event.Kind)
	assert.Equal(t, "inv_1", event.SubjectID)
	assert.Equal(t, time.Unix(1622456737, 0).UTC(), event.OccurredAt)
}

func TestClassifyBTCPay_ExpiredPartialIsPartial(t *testing.T) {
	event := classify(t, types.ProviderBTCPay,
		`{"type":"InvoiceExpired","invoiceId":"inv_2","partiallyPaid":true}`)
	assert.Equal(t, types.KindCryptoPaymentPartial, event.Kind)

	event = classify(t, types.ProviderBTCPay,
		`{"type":"InvoiceExpired","invoiceId":"inv_3","partiallyPaid":false}`)
	assert.Equal(t, types.KindCryptoPaymentFailed, event.Kind)
}

func TestClassifyPlisio(t *testing.T) {
	event := classify(t, types.ProviderPlisio,
		`{"txn_id":"tx_1","order_number":31415,"status":"completed"}`)
	assert.Equal(t, types.KindCryptoPaymentConfirmed, event.Kind)
	assert.Equal(t, "31415", event.SubjectID)

	event = classify(t, types.ProviderPlisio,
		`{"txn_id":"tx_2","status":"mismatch"}`)
	assert.Equal(t, types.KindCryptoPaymentPartial, event.Kind)
	assert.Equal(t, "tx_2", event.SubjectID)
}

func TestClassify_UnknownTagNeverErrors(t *testing.T) {
	// Every JSON provider must classify an unknown tag to Unrecognized
	// rather than failing. CCBill is form-encoded and covered separately.
	jsonProviders := []types.Provider{
		types.ProviderPrintful,
		types.ProviderPrintify,
		types.ProviderCJDropshipping,
		types.ProviderEasyPost,
		types.ProviderNowPayments,
		types.ProviderCoinbase,
		types.ProviderBTCPay,
		types.ProviderPlisio,
	}
	for _, p := range jsonProviders {
		event := classify(t, p, `{}`)
		assert.Equal(t, types.KindUnrecognized, event.Kind, string(p))
	}
}

func TestClassify_RawPayloadCarried(t *testing.T) {
	event := classify(t, types.ProviderPrintful,
		`{"type":"order_created","data":{"order_id":1},"retries":2}`)
	require.NotNil(t, event.RawPayload)
	assert.Equal(t, "order_created", event.RawPayload["type"])
	assert.Equal(t, float64(2), event.RawPayload["retries"])
}
