// Package audit provides the append-only webhook audit trail. Every inbound
// webhook produces a receipt record and a terminal outcome record; the trail
// is the after-the-fact debugging and compliance surface, and the alerting
// system's source for financially sensitive events.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"printbridge/internal/types"
)

// Trail accepts audit records. Record is best-effort by contract: a storage
// failure is logged and swallowed so that auditing problems never turn a
// valid webhook into a rejection, but both the receipt and the outcome
// write are always attempted.
type Trail interface {
	Record(ctx context.Context, rec types.AuditRecord)
}

// Store is the persistence half of the trail (implemented by
// db.AuditLogRepository). Each Append is a single atomic insert, so
// concurrent writers never interleave a record.
type Store interface {
	Append(ctx context.Context, rec types.AuditRecord) error
}

// StoreTrail writes records to a Store and mirrors them to the structured
// log. IDs and timestamps are filled in here so callers only describe what
// happened.
type StoreTrail struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewStoreTrail creates a trail backed by the given store.
func NewStoreTrail(store Store, logger *slog.Logger) *StoreTrail {
	if logger == nil {
		logger = slog.Default()
	}
	return &StoreTrail{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Record fills in identity fields and appends the record. Storage errors are
// logged, never propagated.
func (t *StoreTrail) Record(ctx context.Context, rec types.AuditRecord) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = t.now().UTC()
	}
	rec.Sensitive = rec.Kind.FinanciallySensitive()

	attrs := []any{
		slog.String("audit_id", rec.ID),
		slog.String("provider", string(rec.Provider)),
		slog.String("stage", string(rec.Stage)),
		slog.String("message", rec.Message),
		slog.String("request_id", types.GetRequestID(ctx)),
	}
	if rec.Outcome != "" {
		attrs = append(attrs, slog.String("outcome", string(rec.Outcome)))
	}
	if rec.Kind != "" {
		attrs = append(attrs, slog.String("kind", string(rec.Kind)))
	}
	if rec.SubjectID != "" {
		attrs = append(attrs, slog.String("subject_id", rec.SubjectID))
	}
	if rec.LowTrust {
		attrs = append(attrs, slog.Bool("low_trust", true))
	}
	if rec.Sensitive {
		attrs = append(attrs, slog.Bool("sensitive", true))
	}
	t.logger.InfoContext(ctx, "webhook audit", attrs...)

	if t.store == nil {
		return
	}
	if err := t.store.Append(ctx, rec); err != nil {
		t.logger.ErrorContext(ctx, "failed to append audit record",
			"audit_id", rec.ID,
			"error", err,
		)
	}
}
