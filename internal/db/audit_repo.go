package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"printbridge/internal/types"
)

// AuditLogRepository persists the append-only webhook audit trail in the
// webhook_audit_log table. Appends are single INSERTs, so each record is
// atomic under concurrency; there are no updates or deletes on the hot path.
type AuditLogRepository struct {
	db DBTX
}

// NewAuditLogRepository creates an AuditLogRepository backed by the given
// connection (pool or transaction).
func NewAuditLogRepository(db DBTX) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// Append inserts one audit record.
func (r *AuditLogRepository) Append(ctx context.Context, rec types.AuditRecord) error {
	var contextJSON []byte
	if rec.Context != nil {
		var err error
		contextJSON, err = json.Marshal(rec.Context)
		if err != nil {
			return types.NewAppError(types.ErrCodeInternalDB, "failed to encode audit context", err)
		}
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO webhook_audit_log
		   (id, ts, provider, stage, outcome, kind, subject_id, message, low_trust, sensitive, context)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		rec.ID,
		rec.Timestamp,
		string(rec.Provider),
		string(rec.Stage),
		nilIfEmpty(string(rec.Outcome)),
		nilIfEmpty(string(rec.Kind)),
		nilIfEmpty(rec.SubjectID),
		rec.Message,
		rec.LowTrust,
		rec.Sensitive,
		contextJSON,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to append audit record", err)
	}
	return nil
}

// AuditQuery filters List results. Zero values mean "no filter".
type AuditQuery struct {
	Provider      types.Provider
	Kind          types.EventKind
	OnlySensitive bool
	OnlyLowTrust  bool
	Limit         int
}

// defaultAuditLimit bounds unfiltered queries from the ops surface.
const defaultAuditLimit = 100

// List returns audit records newest-first, filtered by the query.
func (r *AuditLogRepository) List(ctx context.Context, q AuditQuery) ([]types.AuditRecord, error) {
	limit := q.Limit
	if limit <= 0 || limit > 1000 {
		limit = defaultAuditLimit
	}

	sql := `SELECT id, ts, provider, stage, outcome, kind, subject_id, message, low_trust, sensitive, context
	        FROM webhook_audit_log WHERE 1=1`
	args := []any{}
	n := 0
	next := func(v any) string {
		n++
		args = append(args, v)
		return fmt.Sprintf("$%d", n)
	}

	if q.Provider != "" {
		sql += " AND provider = " + next(string(q.Provider))
	}
	if q.Kind != "" {
		sql += " AND kind = " + next(string(q.Kind))
	}
	if q.OnlySensitive {
		sql += " AND sensitive = true"
	}
	if q.OnlyLowTrust {
		sql += " AND low_trust = true"
	}
	sql += " ORDER BY ts DESC LIMIT " + next(limit)

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query audit log", err)
	}
	defer rows.Close()

	return scanAuditRecords(rows)
}

// ListOlderThan returns up to limit records with ts before the cutoff,
// oldest-first. Used by the archiver to page through expired records.
func (r *AuditLogRepository) ListOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]types.AuditRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, ts, provider, stage, outcome, kind, subject_id, message, low_trust, sensitive, context
		 FROM webhook_audit_log
		 WHERE ts < $1
		 ORDER BY ts ASC
		 LIMIT $2`,
		cutoff, limit,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query expired audit records", err)
	}
	defer rows.Close()

	return scanAuditRecords(rows)
}

// DeleteByIDs removes archived records. Called only after the archive file
// for those records has been flushed to disk.
func (r *AuditLogRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := r.db.Exec(ctx,
		`DELETE FROM webhook_audit_log WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		return 0, types.NewAppError(types.ErrCodeInternalDB, "failed to delete archived audit records", err)
	}
	return tag.RowsAffected(), nil
}

type auditRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanAuditRecords(rows auditRows) ([]types.AuditRecord, error) {
	var records []types.AuditRecord
	for rows.Next() {
		var (
			rec                        types.AuditRecord
			outcome, kind, subjectID   *string
			contextJSON                []byte
		)
		if err := rows.Scan(
			&rec.ID, &rec.Timestamp, &rec.Provider, &rec.Stage,
			&outcome, &kind, &subjectID, &rec.Message,
			&rec.LowTrust, &rec.Sensitive, &contextJSON,
		); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan audit record", err)
		}
		if outcome != nil {
			rec.Outcome = types.AuditOutcome(*outcome)
		}
		if kind != nil {
			rec.Kind = types.EventKind(*kind)
		}
		if subjectID != nil {
			rec.SubjectID = *subjectID
		}
		if len(contextJSON) > 0 {
			// A corrupt context blob should not hide the record itself.
			_ = json.Unmarshal(contextJSON, &rec.Context)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to iterate audit records", err)
	}
	return records, nil
}

// nilIfEmpty returns nil for empty strings, for nullable text columns.
func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
