package webhooks

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"printbridge/internal/audit"
	"printbridge/internal/config"
	"printbridge/internal/core"
	"printbridge/internal/types"
)

// Metrics records webhook telemetry. The CloudWatch implementation lives in
// internal/metrics; tests and alert-free deployments use NoopMetrics.
type Metrics interface {
	RecordReceived(ctx context.Context, provider string)
	RecordOutcome(ctx context.Context, provider string, outcome types.AuditOutcome, duration time.Duration)
}

// NoopMetrics discards all telemetry.
type NoopMetrics struct{}

func (NoopMetrics) RecordReceived(context.Context, string) {}
func (NoopMetrics) RecordOutcome(context.Context, string, types.AuditOutcome, time.Duration) {}

// Ingress is the only component touching the transport. It resolves the
// provider from the request, reads the raw body exactly once, and runs
// Verifier → Decoder → Classifier → Dispatcher, converting every failure
// into a structured HTTP response. It is unauthenticated in the platform
// sense: authenticity comes from the per-provider signatures.
type Ingress struct {
	registry   *Registry
	secrets    config.ProviderSecrets
	dispatcher *Dispatcher
	trail      audit.Trail
	metrics    Metrics
	logger     *slog.Logger

	maxBodyBytes  int64
	handleTimeout time.Duration
}

// NewIngress wires the ingestion pipeline. metrics may be nil.
func NewIngress(
	registry *Registry,
	secrets config.ProviderSecrets,
	dispatcher *Dispatcher,
	trail audit.Trail,
	metrics Metrics,
	webhookCfg config.WebhookConfig,
	logger *slog.Logger,
) *Ingress {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingress{
		registry:      registry,
		secrets:       secrets,
		dispatcher:    dispatcher,
		trail:         trail,
		metrics:       metrics,
		logger:        logger,
		maxBodyBytes:  webhookCfg.MaxBodyBytes,
		handleTimeout: webhookCfg.HandleTimeout,
	}
}

// RegisterRoutes mounts the webhook endpoint.
func (i *Ingress) RegisterRoutes(r chi.Router) {
	r.Post("/webhooks", i.Handle)
}

// Handle processes one webhook delivery. Every path through this function
// writes a receipt audit record before processing and an outcome record
// after, and returns a definite response within the configured handling
// timeout.
func (i *Ingress) Handle(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	providerName := r.URL.Query().Get("provider")

	ctx, cancel := context.WithTimeout(r.Context(), i.handleTimeout)
	defer cancel()

	// The raw body is read exactly once. Several verifiers sign the exact
	// byte sequence, so it is never re-read or re-encoded downstream.
	r.Body = http.MaxBytesReader(w, r.Body, i.maxBodyBytes)
	rawBody, err := io.ReadAll(r.Body)
	if err != nil {
		i.trail.Record(ctx, types.AuditRecord{
			Provider: types.Provider(providerName),
			Stage:    types.AuditStageReceived,
			Message:  "webhook received, body unreadable",
		})
		i.reject(ctx, w, types.Provider(providerName), "", start, types.NewAppError(
			types.ErrCodeValidationBodyTooLarge,
			"failed to read request body",
			err,
		))
		return
	}

	// Receipt record first: even a rejected delivery leaves a trail.
	i.trail.Record(ctx, types.AuditRecord{
		Provider: types.Provider(providerName),
		Stage:    types.AuditStageReceived,
		Message:  "webhook received",
		Context: map[string]any{
			"content_length": len(rawBody),
			"remote_addr":    r.RemoteAddr,
		},
	})
	i.metrics.RecordReceived(ctx, providerName)

	provider, ok := types.ParseProvider(providerName)
	if !ok {
		i.reject(ctx, w, types.Provider(providerName), "", start, types.NewAppErrorWithDetails(
			types.ErrCodeWebhookUnknownProvider,
			"unknown provider",
			nil,
			map[string]any{"provider": providerName},
		))
		return
	}

	pipeline, ok := i.registry.Lookup(provider)
	if !ok {
		// Parseable but unregistered would be a wiring bug; treat it the
		// same as an unknown provider.
		i.reject(ctx, w, provider, "", start, types.NewAppError(
			types.ErrCodeWebhookUnknownProvider,
			"unknown provider",
			nil,
		))
		return
	}

	hook := &types.InboundWebhook{
		Provider:   provider,
		RawBody:    rawBody,
		Headers:    r.Header,
		ReceivedAt: start.UTC(),
	}

	// Verification. An unconfigured secret skips verification entirely:
	// unconfigured means unverified, not blocked, so providers can be
	// onboarded before their secret is provisioned. The delivery is flagged
	// low-trust in the audit trail.
	lowTrust := false
	secret := i.secrets.ForProvider(provider)
	switch {
	case secret.IsZero():
		lowTrust = true
		i.logger.WarnContext(ctx, "no signing secret configured, skipping verification",
			"provider", string(provider),
		)
	default:
		if err := pipeline.Verifier.Verify(hook, secret); err != nil {
			if !pipeline.LenientVerify {
				i.reject(ctx, w, provider, "", start, types.NewAppError(
					types.ErrCodeWebhookInvalidSignature,
					"signature verification failed",
					err,
				))
				return
			}
			// Lenient policy (ccbill): log, flag low-trust, continue.
			lowTrust = true
			i.logger.WarnContext(ctx, "signature verification failed, continuing per lenient policy",
				"provider", string(provider),
				"error", err,
			)
		}
	}

	native, err := pipeline.Decoder.Decode(rawBody)
	if err != nil {
		i.reject(ctx, w, provider, "", start, types.NewAppError(
			types.ErrCodeWebhookMalformedPayload,
			"malformed payload",
			err,
		))
		return
	}

	event := pipeline.Classifier.Classify(native, hook)

	result, err := i.dispatcher.Dispatch(ctx, event)
	if err != nil {
		i.logger.ErrorContext(ctx, "webhook handler failed",
			"provider", string(provider),
			"kind", string(event.Kind),
			"subject_id", event.SubjectID,
			"error", err,
		)
		i.trail.Record(ctx, types.AuditRecord{
			Provider:  provider,
			Stage:     types.AuditStageOutcome,
			Outcome:   types.OutcomeRejected,
			Kind:      event.Kind,
			SubjectID: event.SubjectID,
			Message:   err.Error(),
			LowTrust:  lowTrust,
		})
		i.metrics.RecordOutcome(ctx, string(provider), types.OutcomeRejected, time.Since(start))
		core.Error(w, err)
		return
	}

	outcomeMsg := "event dispatched"
	if result.Outcome == types.OutcomeIgnored {
		outcomeMsg = "event acknowledged without dispatch"
	}
	i.trail.Record(ctx, types.AuditRecord{
		Provider:  provider,
		Stage:     types.AuditStageOutcome,
		Outcome:   result.Outcome,
		Kind:      event.Kind,
		SubjectID: event.SubjectID,
		Message:   outcomeMsg,
		LowTrust:  lowTrust,
		Context:   map[string]any{"native_tag": event.NativeTag},
	})
	i.metrics.RecordOutcome(ctx, string(provider), result.Outcome, time.Since(start))

	core.JSON(w, http.StatusOK, result)
}

// reject audits the terminal failure and writes the structured rejection.
// The response body carries only the AppError's own message; wrapped detail
// and secret material never leave the process.
func (i *Ingress) reject(ctx context.Context, w http.ResponseWriter, provider types.Provider, subjectID string, start time.Time, appErr *types.AppError) {
	i.logger.WarnContext(ctx, "webhook rejected",
		"provider", string(provider),
		"code", string(appErr.Code),
		"error", appErr.Error(),
	)
	i.trail.Record(ctx, types.AuditRecord{
		Provider:  provider,
		Stage:     types.AuditStageOutcome,
		Outcome:   types.OutcomeRejected,
		SubjectID: subjectID,
		Message:   appErr.Error(),
	})
	i.metrics.RecordOutcome(ctx, string(provider), types.OutcomeRejected, time.Since(start))
	core.Error(w, appErr)
}
