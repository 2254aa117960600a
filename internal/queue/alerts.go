// Package queue provides the SQS-based admin alert producer. Financially
// sensitive webhook events (chargebacks, payment failures) are pushed onto
// the alert queue for the ops alerting consumer.
package queue

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqsTypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"printbridge/internal/config"
	"printbridge/internal/types"
)

// SQSSender abstracts the SQS SendMessage operation for testability.
// Production code uses the *sqs.Client from aws-sdk-go-v2.
type SQSSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// AlertNotifier sends AdminAlerts to the configured SQS queue. Delivery is
// fire-and-forget: a send failure is logged and dropped, because alerting
// problems must never fail the webhook that triggered the alert. With no
// queue URL configured, alerts are logged only.
type AlertNotifier struct {
	client   SQSSender
	queueURL string
	logger   *slog.Logger
}

// NewAlertNotifier creates an AlertNotifier from the AWS configuration.
func NewAlertNotifier(client SQSSender, awsCfg config.AWSConfig, logger *slog.Logger) *AlertNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &AlertNotifier{
		client:   client,
		queueURL: awsCfg.AlertQueueURL,
		logger:   logger,
	}
}

// Notify enqueues one alert.
func (n *AlertNotifier) Notify(ctx context.Context, alert types.AdminAlert) {
	n.logger.WarnContext(ctx, "admin alert",
		"provider", string(alert.Provider),
		"kind", string(alert.Kind),
		"subject_id", alert.SubjectID,
		"message", alert.Message,
	)

	if n.queueURL == "" || n.client == nil {
		return
	}

	body, err := json.Marshal(alert)
	if err != nil {
		n.logger.ErrorContext(ctx, "failed to marshal admin alert", "error", err)
		return
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(n.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqsTypes.MessageAttributeValue{
			"kind": {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(alert.Kind)),
			},
			"provider": {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(alert.Provider)),
			},
		},
	}

	if _, err := n.client.SendMessage(ctx, input); err != nil {
		n.logger.ErrorContext(ctx, "failed to send admin alert",
			"queue_url", n.queueURL,
			"provider", string(alert.Provider),
			"kind", string(alert.Kind),
			"error", err,
		)
		return
	}

	n.logger.InfoContext(ctx, "admin alert sent",
		"queue_url", n.queueURL,
		"provider", string(alert.Provider),
		"kind", string(alert.Kind),
		"subject_id", alert.SubjectID,
	)
}
