package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"printbridge/internal/types"
)

// --- PaymentEventRepository Tests ---

func TestPaymentEventRepository_RecordPaymentEvent_FirstDelivery(t *testing.T) {
	db := new(mockDBTX)
	repo := NewPaymentEventRepository(db)

	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("INSERT 0 1"), nil)

	applied, err := repo.RecordPaymentEvent(
		context.Background(),
		types.ProviderCCBill,
		"txn_100",
		types.KindChargeback,
		time.Now().UTC(),
	)
	require.NoError(t, err)
	assert.True(t, applied)
	db.AssertExpectations(t)
}

func TestPaymentEventRepository_RecordPaymentEvent_Redelivery(t *testing.T) {
	db := new(mockDBTX)
	repo := NewPaymentEventRepository(db)

	// ON CONFLICT DO NOTHING: the duplicate insert affects zero rows.
	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("INSERT 0 0"), nil)

	applied, err := repo.RecordPaymentEvent(
		context.Background(),
		types.ProviderCCBill,
		"txn_100",
		types.KindChargeback,
		time.Now().UTC(),
	)
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestPaymentEventRepository_RecordPaymentEvent_DBError(t *testing.T) {
	db := new(mockDBTX)
	repo := NewPaymentEventRepository(db)

	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.CommandTag{}, errors.New("timeout"))

	_, err := repo.RecordPaymentEvent(
		context.Background(),
		types.ProviderNowPayments,
		"pay_1",
		types.KindCryptoPaymentConfirmed,
		time.Now(),
	)
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeInternalDB, appErr.Code)
}
