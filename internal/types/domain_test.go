package types

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProvider_Known(t *testing.T) {
	for _, p := range AllProviders {
		got, ok := ParseProvider(string(p))
		require.True(t, ok, "provider %q should parse", p)
		assert.Equal(t, p, got)
	}
}

func TestParseProvider_Unknown(t *testing.T) {
	for _, name := range []string{"", "foo", "PRINTFUL", "stripe"} {
		_, ok := ParseProvider(name)
		assert.False(t, ok, "name %q should not parse", name)
	}
}

func TestEventKind_FinanciallySensitive(t *testing.T) {
	sensitive := []EventKind{KindChargeback, KindPaymentFailed, KindCryptoPaymentFailed}
	for _, k := range sensitive {
		assert.True(t, k.FinanciallySensitive(), "kind %q", k)
	}

	benign := []EventKind{
		KindOrderShipped, KindPaymentSucceeded, KindRefund,
		KindCryptoPaymentConfirmed, KindUnrecognized,
	}
	for _, k := range benign {
		assert.False(t, k.FinanciallySensitive(), "kind %q", k)
	}
}

func TestInboundWebhook_Header_CaseInsensitive(t *testing.T) {
	h := http.Header{}
	h.Set("X-Printful-Signature", "abc123")

	hook := &InboundWebhook{Headers: h}
	assert.Equal(t, "abc123", hook.Header("x-printful-signature"))
	assert.Equal(t, "abc123", hook.Header("X-PRINTFUL-SIGNATURE"))
	assert.Equal(t, "", hook.Header("X-Missing"))
}

func TestInboundWebhook_Header_NilHeaders(t *testing.T) {
	hook := &InboundWebhook{}
	assert.Equal(t, "", hook.Header("Anything"))
}
