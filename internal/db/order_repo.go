package db

import (
	"context"
	"time"

	"printbridge/internal/types"
)

// OrderStateRepository persists the last known status of vendor orders in
// the vendor_orders table, keyed by (vendor, external_order_id).
type OrderStateRepository struct {
	db DBTX
}

// NewOrderStateRepository creates an OrderStateRepository.
func NewOrderStateRepository(db DBTX) *OrderStateRepository {
	return &OrderStateRepository{db: db}
}

// MarkOrderStatus upserts the order's status. The operation is idempotent:
// re-applying an event the row already reflects changes nothing, and an
// event older than the recorded status never overwrites it, so out-of-order
// and redelivered webhooks are safe. Returns whether the write changed state.
func (r *OrderStateRepository) MarkOrderStatus(
	ctx context.Context,
	vendor types.Provider,
	externalOrderID string,
	status types.EventKind,
	occurredAt time.Time,
) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`INSERT INTO vendor_orders (vendor, external_order_id, status, status_occurred_at, updated_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 ON CONFLICT (vendor, external_order_id) DO UPDATE
		 SET status = EXCLUDED.status,
		     status_occurred_at = EXCLUDED.status_occurred_at,
		     updated_at = NOW()
		 WHERE vendor_orders.status_occurred_at < EXCLUDED.status_occurred_at
		    OR (vendor_orders.status_occurred_at = EXCLUDED.status_occurred_at
		        AND vendor_orders.status IS DISTINCT FROM EXCLUDED.status)`,
		string(vendor),
		externalOrderID,
		string(status),
		occurredAt,
	)
	if err != nil {
		return false, types.NewAppError(types.ErrCodeInternalDB, "failed to mark order status", err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetOrderStatus returns the recorded status for an order, or a not-found
// AppError.
func (r *OrderStateRepository) GetOrderStatus(
	ctx context.Context,
	vendor types.Provider,
	externalOrderID string,
) (types.EventKind, error) {
	var status string
	err := r.db.QueryRow(ctx,
		`SELECT status FROM vendor_orders WHERE vendor = $1 AND external_order_id = $2`,
		string(vendor), externalOrderID,
	).Scan(&status)
	if err != nil {
		return "", types.NewAppError(types.ErrCodeNotFoundOrder, "order not found", err)
	}
	return types.EventKind(status), nil
}
