package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"printbridge/internal/types"
)

// --- Mock DBTX ---

type mockDBTX struct {
	mock.Mock
}

func (m *mockDBTX) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgconn.CommandTag), args.Error(1)
}

func (m *mockDBTX) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	args := m.Called(ctx, sql, arguments)
	if r := args.Get(0); r != nil {
		return r.(pgx.Rows), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDBTX) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgx.Row)
}

// --- Mock Row ---

type mockRow struct {
	scanErr error
	scanFn  func(dest ...any) error
}

func (r *mockRow) Scan(dest ...any) error {
	if r.scanFn != nil {
		return r.scanFn(dest...)
	}
	return r.scanErr
}

// --- Mock Rows for Query ---

// mockRows implements pgx.Rows for testing Query results.
type mockRows struct {
	data    [][]any
	idx     int
	closed  bool
	scanErr error
	errVal  error
}

func newMockRows(data [][]any) *mockRows {
	return &mockRows{data: data, idx: -1}
}

func (r *mockRows) Next() bool {
	if r.closed {
		return false
	}
	r.idx++
	return r.idx < len(r.data)
}

func (r *mockRows) Scan(dest ...any) error {
	if r.scanErr != nil {
		return r.scanErr
	}
	row := r.data[r.idx]
	for i, d := range dest {
		switch v := d.(type) {
		case *string:
			*v = row[i].(string)
		case **string:
			if row[i] == nil {
				*v = nil
			} else {
				s := row[i].(string)
				*v = &s
			}
		case *time.Time:
			*v = row[i].(time.Time)
		case *bool:
			*v = row[i].(bool)
		case *[]byte:
			if row[i] == nil {
				*v = nil
			} else {
				*v = row[i].([]byte)
			}
		case *types.Provider:
			*v = types.Provider(row[i].(string))
		case *types.AuditStage:
			*v = types.AuditStage(row[i].(string))
		}
	}
	return nil
}

func (r *mockRows) Close()                                       { r.closed = true }
func (r *mockRows) Err() error                                   { return r.errVal }
func (r *mockRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *mockRows) RawValues() [][]byte                          { return nil }
func (r *mockRows) Values() ([]any, error)                       { return nil, nil }
func (r *mockRows) Conn() *pgx.Conn                              { return nil }

// auditRow builds a row in the column order the repository selects.
func auditRow(rec types.AuditRecord, contextJSON []byte) []any {
	var outcome, kind, subjectID any
	if rec.Outcome != "" {
		outcome = string(rec.Outcome)
	}
	if rec.Kind != "" {
		kind = string(rec.Kind)
	}
	if rec.SubjectID != "" {
		subjectID = rec.SubjectID
	}
	var ctx any
	if contextJSON != nil {
		ctx = contextJSON
	}
	return []any{
		rec.ID, rec.Timestamp, string(rec.Provider), string(rec.Stage),
		outcome, kind, subjectID, rec.Message,
		rec.LowTrust, rec.Sensitive, ctx,
	}
}

// --- AuditLogRepository Tests ---

func TestAuditLogRepository_Append_Success(t *testing.T) {
	db := new(mockDBTX)
	repo := NewAuditLogRepository(db)

	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("INSERT 0 1"), nil)

	err := repo.Append(context.Background(), types.AuditRecord{
		ID:        "aud_1",
		Timestamp: time.Now().UTC(),
		Provider:  types.ProviderPrintful,
		Stage:     types.AuditStageOutcome,
		Outcome:   types.OutcomeDispatched,
		Kind:      types.KindOrderShipped,
		SubjectID: "123",
		Message:   "dispatched",
		Context:   map[string]any{"native_tag": "package_shipped"},
	})
	require.NoError(t, err)
	db.AssertExpectations(t)
}

func TestAuditLogRepository_Append_NilContext(t *testing.T) {
	db := new(mockDBTX)
	repo := NewAuditLogRepository(db)

	var gotArgs []any
	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Run(func(args mock.Arguments) {
			gotArgs = args.Get(2).([]any)
		}).
		Return(pgconn.NewCommandTag("INSERT 0 1"), nil)

	err := repo.Append(context.Background(), types.AuditRecord{
		ID:        "aud_2",
		Timestamp: time.Now().UTC(),
		Provider:  types.ProviderCCBill,
		Stage:     types.AuditStageReceived,
		Message:   "received",
	})
	require.NoError(t, err)

	// Nullable columns use nil, not empty strings.
	require.Len(t, gotArgs, 11)
	assert.Nil(t, gotArgs[4])  // outcome
	assert.Nil(t, gotArgs[5])  // kind
	assert.Nil(t, gotArgs[6])  // subject_id
	assert.Nil(t, gotArgs[10]) // context
}

func TestAuditLogRepository_Append_DBError(t *testing.T) {
	db := new(mockDBTX)
	repo := NewAuditLogRepository(db)

	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.CommandTag{}, errors.New("connection refused"))

	err := repo.Append(context.Background(), types.AuditRecord{
		ID:        "aud_3",
		Timestamp: time.Now().UTC(),
		Provider:  types.ProviderPrintify,
		Stage:     types.AuditStageReceived,
	})
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeInternalDB, appErr.Code)
}

func TestAuditLogRepository_List_ScansRecords(t *testing.T) {
	db := new(mockDBTX)
	repo := NewAuditLogRepository(db)

	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	rows := newMockRows([][]any{
		auditRow(types.AuditRecord{
			ID: "aud_1", Timestamp: ts, Provider: types.ProviderPrintful,
			Stage: types.AuditStageOutcome, Outcome: types.OutcomeDispatched,
			Kind: types.KindOrderShipped, SubjectID: "123", Message: "dispatched",
		}, []byte(`{"native_tag":"package_shipped"}`)),
		auditRow(types.AuditRecord{
			ID: "aud_2", Timestamp: ts, Provider: types.ProviderCCBill,
			Stage: types.AuditStageReceived, Message: "received", LowTrust: true,
		}, nil),
	})

	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(rows, nil)

	records, err := repo.List(context.Background(), AuditQuery{})
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, types.OutcomeDispatched, records[0].Outcome)
	assert.Equal(t, types.KindOrderShipped, records[0].Kind)
	assert.Equal(t, "123", records[0].SubjectID)
	assert.Equal(t, "package_shipped", records[0].Context["native_tag"])

	assert.Empty(t, records[1].Outcome)
	assert.Empty(t, records[1].SubjectID)
	assert.True(t, records[1].LowTrust)
	assert.Nil(t, records[1].Context)
}

func TestAuditLogRepository_List_AppliesFilters(t *testing.T) {
	db := new(mockDBTX)
	repo := NewAuditLogRepository(db)

	var gotSQL string
	var gotArgs []any
	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Run(func(args mock.Arguments) {
			gotSQL = args.String(1)
			gotArgs = args.Get(2).([]any)
		}).
		Return(newMockRows(nil), nil)

	_, err := repo.List(context.Background(), AuditQuery{
		Provider:      types.ProviderNowPayments,
		Kind:          types.KindChargeback,
		OnlySensitive: true,
		OnlyLowTrust:  true,
		Limit:         25,
	})
	require.NoError(t, err)

	assert.Contains(t, gotSQL, "provider = $1")
	assert.Contains(t, gotSQL, "kind = $2")
	assert.Contains(t, gotSQL, "sensitive = true")
	assert.Contains(t, gotSQL, "low_trust = true")
	assert.Contains(t, gotSQL, "LIMIT $3")
	assert.Equal(t, []any{"nowpayments", "chargeback", 25}, gotArgs)
}

func TestAuditLogRepository_List_ClampsLimit(t *testing.T) {
	db := new(mockDBTX)
	repo := NewAuditLogRepository(db)

	var gotArgs []any
	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Run(func(args mock.Arguments) {
			gotArgs = args.Get(2).([]any)
		}).
		Return(newMockRows(nil), nil)

	_, err := repo.List(context.Background(), AuditQuery{Limit: 50000})
	require.NoError(t, err)
	assert.Equal(t, []any{defaultAuditLimit}, gotArgs)
}

func TestAuditLogRepository_List_DBError(t *testing.T) {
	db := new(mockDBTX)
	repo := NewAuditLogRepository(db)

	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(nil, errors.New("timeout"))

	_, err := repo.List(context.Background(), AuditQuery{})
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeInternalDB, appErr.Code)
}

func TestAuditLogRepository_ListOlderThan_Success(t *testing.T) {
	db := new(mockDBTX)
	repo := NewAuditLogRepository(db)

	ts := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	rows := newMockRows([][]any{
		auditRow(types.AuditRecord{
			ID: "aud_old", Timestamp: ts, Provider: types.ProviderBTCPay,
			Stage: types.AuditStageOutcome, Outcome: types.OutcomeIgnored, Message: "ignored",
		}, nil),
	})

	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(rows, nil)

	records, err := repo.ListOlderThan(context.Background(), time.Now(), 500)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "aud_old", records[0].ID)
}

func TestAuditLogRepository_DeleteByIDs_Success(t *testing.T) {
	db := new(mockDBTX)
	repo := NewAuditLogRepository(db)

	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("DELETE 3"), nil)

	n, err := repo.DeleteByIDs(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	db.AssertExpectations(t)
}

func TestAuditLogRepository_DeleteByIDs_EmptySkipsQuery(t *testing.T) {
	db := new(mockDBTX)
	repo := NewAuditLogRepository(db)

	n, err := repo.DeleteByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	db.AssertNotCalled(t, "Exec")
}
