// Package webhooks implements the unified webhook ingestion and
// event-normalization layer: per-provider signature verification, payload
// decoding, classification into the canonical event taxonomy, and dispatch
// to idempotent handlers, with an audit record written at receipt and at
// the terminal outcome of every delivery.
package webhooks

import "printbridge/internal/types"

// Pipeline is the verifier/decoder/classifier triple registered for one
// provider, plus the verification policy applied to it.
type Pipeline struct {
	Provider   types.Provider
	Verifier   Verifier
	Decoder    Decoder
	Classifier Classifier

	// LenientVerify makes a verification failure log-only: the delivery is
	// flagged low-trust and processing continues. Only CCBill uses this
	// (its digest format varies by account configuration).
	LenientVerify bool
}

// Registry maps provider identities to their pipelines. It is built once at
// startup and read-only afterwards, so concurrent requests share it without
// locking.
type Registry struct {
	pipelines map[types.Provider]*Pipeline
}

// NewRegistry builds the registry with every supported provider wired in.
// Adding a provider means adding a file with its triple and one entry here;
// nothing else in the pipeline changes.
func NewRegistry() *Registry {
	pipelines := []*Pipeline{
		{
			Provider:   types.ProviderPrintful,
			Verifier:   newPrintfulVerifier(),
			Decoder:    newPrintfulDecoder(),
			Classifier: printfulClassifier{},
		},
		{
			Provider:   types.ProviderPrintify,
			Verifier:   newPrintifyVerifier(),
			Decoder:    newPrintifyDecoder(),
			Classifier: printifyClassifier{},
		},
		{
			Provider:   types.ProviderCJDropshipping,
			Verifier:   newCJVerifier(),
			Decoder:    newCJDecoder(),
			Classifier: cjClassifier{},
		},
		{
			Provider:   types.ProviderEasyPost,
			Verifier:   newEasyPostVerifier(),
			Decoder:    newEasyPostDecoder(),
			Classifier: easypostClassifier{},
		},
		{
			Provider:      types.ProviderCCBill,
			Verifier:      newCCBillVerifier(),
			Decoder:       newCCBillDecoder(),
			Classifier:    ccbillClassifier{},
			LenientVerify: true,
		},
		{
			Provider:   types.ProviderNowPayments,
			Verifier:   newNowPaymentsVerifier(),
			Decoder:    newNowPaymentsDecoder(),
			Classifier: nowpaymentsClassifier{},
		},
		{
			Provider:   types.ProviderCoinbase,
			Verifier:   newCoinbaseVerifier(),
			Decoder:    newCoinbaseDecoder(),
			Classifier: coinbaseClassifier{},
		},
		{
			Provider:   types.ProviderBTCPay,
			Verifier:   newBTCPayVerifier(),
			Decoder:    newBTCPayDecoder(),
			Classifier: btcpayClassifier{},
		},
		{
			Provider:   types.ProviderPlisio,
			Verifier:   newPlisioVerifier(),
			Decoder:    newPlisioDecoder(),
			Classifier: plisioClassifier{},
		},
	}

	byProvider := make(map[types.Provider]*Pipeline, len(pipelines))
	for _, p := range pipelines {
		byProvider[p.Provider] = p
	}
	return &Registry{pipelines: byProvider}
}

// Lookup resolves the pipeline for a provider.
func (r *Registry) Lookup(p types.Provider) (*Pipeline, bool) {
	pipeline, ok := r.pipelines[p]
	return pipeline, ok
}
