package webhooks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"printbridge/internal/types"
)

// OrderStateStore persists order status transitions. MarkOrderStatus is an
// idempotent upsert keyed by vendor+externalOrderID: re-applying the same
// event is a no-op at the storage layer, which is what makes provider
// redelivery and concurrent delivery safe.
type OrderStateStore interface {
	MarkOrderStatus(ctx context.Context, vendor types.Provider, externalOrderID string, status types.EventKind, occurredAt time.Time) (applied bool, err error)
}

// PaymentEventStore records payment and crypto events. RecordPaymentEvent is
// an idempotent upsert keyed by processor+transactionID+kind; applied is
// false when the event had already been recorded.
type PaymentEventStore interface {
	RecordPaymentEvent(ctx context.Context, processor types.Provider, transactionID string, kind types.EventKind, occurredAt time.Time) (applied bool, err error)
}

// AdminNotifier delivers fire-and-forget alerts for financially sensitive
// kinds. Implementations must not block webhook processing on delivery
// failure; errors are logged, never returned.
type AdminNotifier interface {
	Notify(ctx context.Context, alert types.AdminAlert)
}

// OrderEventsHandler applies order lifecycle and shipping events to the
// persisted order state.
type OrderEventsHandler struct {
	orders OrderStateStore
	logger *slog.Logger
}

// NewOrderEventsHandler creates the handler for order and shipping kinds.
func NewOrderEventsHandler(orders OrderStateStore, logger *slog.Logger) *OrderEventsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderEventsHandler{orders: orders, logger: logger}
}

// Kinds lists the kinds this handler is registered for.
func (h *OrderEventsHandler) Kinds() []types.EventKind {
	return []types.EventKind{
		types.KindOrderCreated,
		types.KindOrderUpdated,
		types.KindOrderShipped,
		types.KindOrderDelivered,
		types.KindOrderCanceled,
		types.KindOrderFailed,
		types.KindOrderInProduction,
		types.KindTrackingUpdate,
	}
}

func (h *OrderEventsHandler) Handle(ctx context.Context, event types.CanonicalEvent) error {
	if event.SubjectID == "" {
		return fmt.Errorf("%s event from %s has no order id", event.Kind, event.Provider)
	}

	applied, err := h.orders.MarkOrderStatus(ctx, event.Provider, event.SubjectID, event.Kind, event.OccurredAt)
	if err != nil {
		return fmt.Errorf("marking order status: %w", err)
	}

	if !applied {
		// Redelivery of an already-applied event; the upsert was a no-op.
		h.logger.InfoContext(ctx, "order event redelivered, state unchanged",
			"provider", string(event.Provider),
			"order_id", event.SubjectID,
			"kind", string(event.Kind),
		)
	}
	return nil
}

// PaymentEventsHandler records card and crypto payment events and raises
// admin alerts for financially sensitive kinds.
type PaymentEventsHandler struct {
	payments PaymentEventStore
	notifier AdminNotifier
	logger   *slog.Logger
}

// NewPaymentEventsHandler creates the handler for payment kinds. notifier
// may be nil when alerting is not configured.
func NewPaymentEventsHandler(payments PaymentEventStore, notifier AdminNotifier, logger *slog.Logger) *PaymentEventsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PaymentEventsHandler{payments: payments, notifier: notifier, logger: logger}
}

// Kinds lists the kinds this handler is registered for.
func (h *PaymentEventsHandler) Kinds() []types.EventKind {
	return []types.EventKind{
		types.KindPaymentSucceeded,
		types.KindPaymentFailed,
		types.KindSubscriptionRenewed,
		types.KindSubscriptionRenewalFailed,
		types.KindSubscriptionCanceled,
		types.KindChargeback,
		types.KindRefund,
		types.KindCryptoPaymentConfirmed,
		types.KindCryptoPaymentPending,
		types.KindCryptoPaymentPartial,
		types.KindCryptoPaymentFailed,
		types.KindCryptoPaymentDelayed,
		types.KindCryptoPaymentResolved,
	}
}

func (h *PaymentEventsHandler) Handle(ctx context.Context, event types.CanonicalEvent) error {
	if event.SubjectID == "" {
		return fmt.Errorf("%s event from %s has no transaction id", event.Kind, event.Provider)
	}

	applied, err := h.payments.RecordPaymentEvent(ctx, event.Provider, event.SubjectID, event.Kind, event.OccurredAt)
	if err != nil {
		return fmt.Errorf("recording payment event: %w", err)
	}

	// Alert once per logical event: a redelivery that was already recorded
	// must not page the admin twice.
	if applied && event.Kind.FinanciallySensitive() && h.notifier != nil {
		h.notifier.Notify(ctx, types.AdminAlert{
			Provider:   event.Provider,
			Kind:       event.Kind,
			SubjectID:  event.SubjectID,
			Message:    fmt.Sprintf("%s reported %s for %s", event.Provider, event.Kind, event.SubjectID),
			OccurredAt: event.OccurredAt,
		})
	}

	if !applied {
		h.logger.InfoContext(ctx, "payment event redelivered, state unchanged",
			"provider", string(event.Provider),
			"transaction_id", event.SubjectID,
			"kind", string(event.Kind),
		)
	}
	return nil
}
