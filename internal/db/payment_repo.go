package db

import (
	"context"
	"time"

	"printbridge/internal/types"
)

// PaymentEventRepository records payment and crypto events in the
// payment_events table, keyed by (processor, transaction_id, kind).
type PaymentEventRepository struct {
	db DBTX
}

// NewPaymentEventRepository creates a PaymentEventRepository.
func NewPaymentEventRepository(db DBTX) *PaymentEventRepository {
	return &PaymentEventRepository{db: db}
}

// RecordPaymentEvent inserts the event if it has not been seen before.
// ON CONFLICT DO NOTHING makes redelivery a no-op: the returned applied
// flag is false when the same processor+transaction+kind was already
// recorded, which callers use to suppress duplicate downstream effects
// (double alerts, double refund processing).
func (r *PaymentEventRepository) RecordPaymentEvent(
	ctx context.Context,
	processor types.Provider,
	transactionID string,
	kind types.EventKind,
	occurredAt time.Time,
) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`INSERT INTO payment_events (processor, transaction_id, kind, occurred_at, recorded_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 ON CONFLICT (processor, transaction_id, kind) DO NOTHING`,
		string(processor),
		transactionID,
		string(kind),
		occurredAt,
	)
	if err != nil {
		return false, types.NewAppError(types.ErrCodeInternalDB, "failed to record payment event", err)
	}
	return tag.RowsAffected() > 0, nil
}
