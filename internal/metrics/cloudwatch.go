// Package metrics emits webhook telemetry to AWS CloudWatch.
package metrics

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"printbridge/internal/types"
)

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Metric and dimension names.
const (
	metricWebhookReceived = "WebhookReceived"
	metricWebhookOutcome  = "WebhookOutcome"
	metricWebhookDuration = "WebhookDuration"

	dimProvider = "Provider"
	dimOutcome  = "Outcome"
)

// CloudWatchMetrics implements the ingress Metrics interface by publishing
// per-provider counters and handling latency to CloudWatch. Publish failures
// are logged and dropped; telemetry never affects webhook processing.
type CloudWatchMetrics struct {
	client    CloudWatchClient
	namespace string
	logger    *slog.Logger
}

// NewCloudWatchMetrics creates a CloudWatchMetrics publishing to the given
// namespace.
func NewCloudWatchMetrics(client CloudWatchClient, namespace string, logger *slog.Logger) *CloudWatchMetrics {
	if logger == nil {
		logger = slog.Default()
	}
	return &CloudWatchMetrics{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

// RecordReceived counts one inbound delivery for the provider.
func (m *CloudWatchMetrics) RecordReceived(ctx context.Context, provider string) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String(metricWebhookReceived),
				Value:      aws.Float64(1),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: []cwtypes.Dimension{
					{
						Name:  aws.String(dimProvider),
						Value: aws.String(provider),
					},
				},
			},
		},
	}

	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.ErrorContext(ctx, "failed to record received metric",
			"provider", provider,
			"error", err,
		)
	}
}

// RecordOutcome counts the terminal outcome and records handling duration.
func (m *CloudWatchMetrics) RecordOutcome(ctx context.Context, provider string, outcome types.AuditOutcome, duration time.Duration) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String(metricWebhookOutcome),
				Value:      aws.Float64(1),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: []cwtypes.Dimension{
					{
						Name:  aws.String(dimProvider),
						Value: aws.String(provider),
					},
					{
						Name:  aws.String(dimOutcome),
						Value: aws.String(string(outcome)),
					},
				},
			},
			{
				MetricName: aws.String(metricWebhookDuration),
				Value:      aws.Float64(float64(duration.Milliseconds())),
				Unit:       cwtypes.StandardUnitMilliseconds,
				Dimensions: []cwtypes.Dimension{
					{
						Name:  aws.String(dimProvider),
						Value: aws.String(provider),
					},
				},
			},
		},
	}

	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.ErrorContext(ctx, "failed to record outcome metric",
			"provider", provider,
			"outcome", string(outcome),
			"error", err,
		)
	}
}
