package webhooks

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"

	"printbridge/internal/types"
)

// CCBill is a legacy card processor that posts form-encoded fields. The
// digest scheme is MD5(subscriptionId + "1" + salt) compared against the
// responseDigest field. CCBill sends varying digest formats depending on
// account configuration, so a mismatch is logged but does not block
// processing: the pipeline registers this verifier as lenient. This is a
// deliberate, documented leniency; tightening it could reject legitimate
// traffic using an undocumented digest variant.
//
// There is no explicit event tag. The event is inferred from which fields
// are present, checked in a fixed priority order.

type ccbillVerifier struct{}

func newCCBillVerifier() Verifier {
	return &ccbillVerifier{}
}

func (v *ccbillVerifier) Verify(hook *types.InboundWebhook, secret types.SecretString) error {
	// The digest covers form fields, not the raw byte stream, so the form is
	// parsed here. Decode failures surface later as MalformedPayload; for
	// verification they read as a digest mismatch.
	values, err := url.ParseQuery(string(hook.RawBody))
	if err != nil {
		return fmt.Errorf("parsing form fields: %w", err)
	}

	got := values.Get("responseDigest")
	if got == "" {
		return fmt.Errorf("missing responseDigest field")
	}

	sum := md5.Sum([]byte(values.Get("subscriptionId") + "1" + secret.Unmask()))
	want := hex.EncodeToString(sum[:])

	if !timingSafeEqual(got, want) {
		return errSignatureMismatch
	}
	return nil
}

func newCCBillDecoder() Decoder {
	return &formDecoder{}
}

// ccbillEventNames are CCBill's own event vocabulary, resolved either from
// an explicit eventType field or inferred from field presence.
const (
	ccbillNewSaleSuccess = "NewSaleSuccess"
	ccbillNewSaleFailure = "NewSaleFailure"
	ccbillRenewalSuccess = "RenewalSuccess"
	ccbillRenewalFailure = "RenewalFailure"
	ccbillCancellation   = "Cancellation"
	ccbillChargeback     = "Chargeback"
	ccbillRefund         = "Refund"
	ccbillUnknown        = "Unknown"
)

var ccbillKinds = map[string]types.EventKind{
	ccbillNewSaleSuccess: types.KindPaymentSucceeded,
	ccbillNewSaleFailure: types.KindPaymentFailed,
	ccbillRenewalSuccess: types.KindSubscriptionRenewed,
	ccbillRenewalFailure: types.KindSubscriptionRenewalFailed,
	ccbillCancellation:   types.KindSubscriptionCanceled,
	ccbillChargeback:     types.KindChargeback,
	ccbillRefund:         types.KindRefund,
}

type ccbillClassifier struct{}

func (ccbillClassifier) Classify(native *NativePayload, hook *types.InboundWebhook) types.CanonicalEvent {
	fields := native.Typed.(map[string]string)

	tag := resolveCCBillEvent(fields)
	kind, ok := ccbillKinds[tag]
	if !ok {
		kind = types.KindUnrecognized
	}

	subject := fields["subscriptionId"]
	if subject == "" {
		subject = fields["transactionId"]
	}

	return types.CanonicalEvent{
		Provider:   types.ProviderCCBill,
		Kind:       kind,
		SubjectID:  subject,
		NativeTag:  tag,
		RawPayload: native.Raw,
		OccurredAt: hook.ReceivedAt,
	}
}

// resolveCCBillEvent infers the event name. The priority order is fixed:
// an explicit eventType always wins, then failure, cancellation, chargeback,
// refund, and renewal markers, then the new-sale field pair.
func resolveCCBillEvent(fields map[string]string) string {
	if tag := fields["eventType"]; tag != "" {
		return tag
	}
	if fields["failureReason"] != "" {
		return ccbillNewSaleFailure
	}
	if fields["cancellationReason"] != "" {
		return ccbillCancellation
	}
	if fields["chargebackType"] != "" {
		return ccbillChargeback
	}
	if fields["refundReason"] != "" {
		return ccbillRefund
	}
	if fields["renewalTransactionId"] != "" {
		return ccbillRenewalSuccess
	}
	if fields["subscriptionId"] != "" && fields["transactionId"] != "" {
		return ccbillNewSaleSuccess
	}
	return ccbillUnknown
}
