package webhooks

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printbridge/internal/types"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDispatcher_Dispatch_RoutesToHandler(t *testing.T) {
	d := NewDispatcher(discardLogger())

	var got types.CanonicalEvent
	d.Register(HandlerFunc(func(_ context.Context, event types.CanonicalEvent) error {
		got = event
		return nil
	}), types.KindOrderShipped)

	event := types.CanonicalEvent{
		Provider:  types.ProviderPrintful,
		Kind:      types.KindOrderShipped,
		SubjectID: "123",
	}
	result, err := d.Dispatch(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, types.OutcomeDispatched, result.Outcome)
	assert.Equal(t, "123", result.SubjectID)
	assert.Equal(t, event, got)
}

func TestDispatcher_Dispatch_NoHandlerIsIgnored(t *testing.T) {
	d := NewDispatcher(discardLogger())

	result, err := d.Dispatch(context.Background(), types.CanonicalEvent{
		Provider: types.ProviderEasyPost,
		Kind:     types.KindBatchUpdate,
	})
	require.NoError(t, err)
	assert.Equal(t, types.OutcomeIgnored, result.Outcome)
}

func TestDispatcher_Dispatch_UnrecognizedIsIgnored(t *testing.T) {
	d := NewDispatcher(discardLogger())

	result, err := d.Dispatch(context.Background(), types.CanonicalEvent{
		Provider: types.ProviderPrintful,
		Kind:     types.KindUnrecognized,
	})
	require.NoError(t, err)
	assert.Equal(t, types.OutcomeIgnored, result.Outcome)
}

func TestDispatcher_Dispatch_HandlerErrorIsRejected(t *testing.T) {
	d := NewDispatcher(discardLogger())
	d.Register(HandlerFunc(func(context.Context, types.CanonicalEvent) error {
		return errors.New("storage down")
	}), types.KindChargeback)

	result, err := d.Dispatch(context.Background(), types.CanonicalEvent{
		Provider: types.ProviderCCBill,
		Kind:     types.KindChargeback,
	})
	require.Error(t, err)
	assert.Equal(t, types.OutcomeRejected, result.Outcome)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeWebhookHandlerFailure, appErr.Code)
}

func TestDispatcher_Register_DuplicateKindPanics(t *testing.T) {
	d := NewDispatcher(discardLogger())
	noop := HandlerFunc(func(context.Context, types.CanonicalEvent) error { return nil })

	d.Register(noop, types.KindRefund)
	assert.Panics(t, func() {
		d.Register(noop, types.KindRefund)
	})
}
