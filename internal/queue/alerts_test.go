package queue

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"printbridge/internal/config"
	"printbridge/internal/types"
)

// --- Mock SQS Client ---

// mockSQSSender captures SendMessage calls for test assertions.
type mockSQSSender struct {
	calls []*sqs.SendMessageInput
	err   error
}

func (m *mockSQSSender) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	m.calls = append(m.calls, params)
	if m.err != nil {
		return nil, m.err
	}
	return &sqs.SendMessageOutput{}, nil
}

const testAlertQueueURL = "https://sqs.us-east-1.amazonaws.com/123456789/admin-alerts"

func newTestNotifier(mock *mockSQSSender, queueURL string) *AlertNotifier {
	awsCfg := config.AWSConfig{AlertQueueURL: queueURL}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAlertNotifier(mock, awsCfg, logger)
}

func testAlert() types.AdminAlert {
	return types.AdminAlert{
		Provider:   types.ProviderCCBill,
		Kind:       types.KindChargeback,
		SubjectID:  "sub_100",
		Message:    "ccbill reported chargeback for sub_100",
		OccurredAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

// --- Tests ---

func TestNotify_SendsAlertToQueue(t *testing.T) {
	mock := &mockSQSSender{}
	notifier := newTestNotifier(mock, testAlertQueueURL)

	notifier.Notify(context.Background(), testAlert())

	if len(mock.calls) != 1 {
		t.Fatalf("expected 1 SQS call, got %d", len(mock.calls))
	}

	call := mock.calls[0]
	if *call.QueueUrl != testAlertQueueURL {
		t.Errorf("expected queue URL %q, got %q", testAlertQueueURL, *call.QueueUrl)
	}

	var sent types.AdminAlert
	if err := json.Unmarshal([]byte(*call.MessageBody), &sent); err != nil {
		t.Fatalf("message body is not valid AdminAlert JSON: %v", err)
	}
	if sent.Kind != types.KindChargeback {
		t.Errorf("expected kind %q, got %q", types.KindChargeback, sent.Kind)
	}
	if sent.SubjectID != "sub_100" {
		t.Errorf("expected subject sub_100, got %q", sent.SubjectID)
	}
}

func TestNotify_SetsMessageAttributes(t *testing.T) {
	mock := &mockSQSSender{}
	notifier := newTestNotifier(mock, testAlertQueueURL)

	notifier.Notify(context.Background(), testAlert())

	attrs := mock.calls[0].MessageAttributes
	if got := *attrs["kind"].StringValue; got != "chargeback" {
		t.Errorf("expected kind attribute chargeback, got %q", got)
	}
	if got := *attrs["provider"].StringValue; got != "ccbill" {
		t.Errorf("expected provider attribute ccbill, got %q", got)
	}
}

func TestNotify_NoQueueConfiguredLogsOnly(t *testing.T) {
	mock := &mockSQSSender{}
	notifier := newTestNotifier(mock, "")

	notifier.Notify(context.Background(), testAlert())

	if len(mock.calls) != 0 {
		t.Fatalf("expected no SQS calls without a queue URL, got %d", len(mock.calls))
	}
}

func TestNotify_SendFailureDoesNotPanic(t *testing.T) {
	mock := &mockSQSSender{err: errors.New("sqs unavailable")}
	notifier := newTestNotifier(mock, testAlertQueueURL)

	// Fire-and-forget: failures are swallowed.
	notifier.Notify(context.Background(), testAlert())
}
