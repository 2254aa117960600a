// Package config defines the read-only configuration object for printbridge.
// Configuration is read from the environment (optionally seeded by a .env
// file) exactly once at process start via envconfig, validated with
// go-playground/validator, and then threaded explicitly into constructors.
// There is no ambient global configuration state.
package config

import (
	"time"

	"printbridge/internal/types"
)

// SecretString is re-exported so config consumers do not need to import
// types just to unmask a secret field.
type SecretString = types.SecretString

// Config is the root configuration struct populated by envconfig.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"printbridge-api"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Server    ServerConfig
	Database  DatabaseConfig
	AWS       AWSConfig
	Providers ProviderSecrets
	Webhooks  WebhookConfig
	Vendors   VendorConfig
	Ops       OpsConfig
	Archive   ArchiveConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
}

// DatabaseConfig holds PostgreSQL connection pool settings.
type DatabaseConfig struct {
	URL             SecretString  `envconfig:"DATABASE_URL" validate:"required"`
	MaxConns        int           `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `envconfig:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	AcquireTimeout  time.Duration `envconfig:"DB_ACQUIRE_TIMEOUT" default:"2s"`
}

// AWSConfig holds settings for the SQS alert queue and CloudWatch metrics.
// AlertQueueURL may be empty, in which case admin alerting is disabled and
// alerts are only logged.
type AWSConfig struct {
	Region           string `envconfig:"AWS_REGION" default:"us-east-1"`
	AlertQueueURL    string `envconfig:"SQS_ALERT_QUEUE"`
	MetricsNamespace string `envconfig:"METRICS_NAMESPACE" default:"PrintBridge"`
	// EndpointURL overrides the AWS endpoint for localstack-based development.
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL"`
}

// ProviderSecrets holds the per-provider webhook signing secrets. An empty
// value means verification is skipped for that provider (unconfigured =
// unverified, not blocked) and the webhook is processed as low-trust so
// vendors can be onboarded progressively. Production deployments should
// alarm on low-trust audit records rather than rely on this default.
type ProviderSecrets struct {
	Printful       SecretString `envconfig:"PRINTFUL_WEBHOOK_SECRET"`
	Printify       SecretString `envconfig:"PRINTIFY_WEBHOOK_SECRET"`
	CJDropshipping SecretString `envconfig:"CJ_WEBHOOK_SECRET"`
	EasyPost       SecretString `envconfig:"EASYPOST_WEBHOOK_SECRET"`
	CCBillSalt     SecretString `envconfig:"CCBILL_SALT"`
	NowPayments    SecretString `envconfig:"NOWPAYMENTS_IPN_SECRET"`
	Coinbase       SecretString `envconfig:"COINBASE_WEBHOOK_SECRET"`
	BTCPay         SecretString `envconfig:"BTCPAY_WEBHOOK_SECRET"`
	PlisioAPIKey   SecretString `envconfig:"PLISIO_API_KEY"`
}

// ForProvider returns the signing secret configured for the given provider.
// Unknown providers yield the zero secret.
func (s ProviderSecrets) ForProvider(p types.Provider) SecretString {
	switch p {
	case types.ProviderPrintful:
		return s.Printful
	case types.ProviderPrintify:
		return s.Printify
	case types.ProviderCJDropshipping:
		return s.CJDropshipping
	case types.ProviderEasyPost:
		return s.EasyPost
	case types.ProviderCCBill:
		return s.CCBillSalt
	case types.ProviderNowPayments:
		return s.NowPayments
	case types.ProviderCoinbase:
		return s.Coinbase
	case types.ProviderBTCPay:
		return s.BTCPay
	case types.ProviderPlisio:
		return s.PlisioAPIKey
	default:
		return ""
	}
}

// WebhookConfig bounds webhook request handling.
type WebhookConfig struct {
	// MaxBodyBytes caps inbound payload size. Provider payloads are small;
	// the limit protects against abuse.
	MaxBodyBytes int64 `envconfig:"WEBHOOK_MAX_BODY_BYTES" default:"262144"`
	// HandleTimeout bounds total processing time for one webhook, including
	// handler-side storage calls. The router always returns a definite
	// response rather than hanging.
	HandleTimeout time.Duration `envconfig:"WEBHOOK_HANDLE_TIMEOUT" default:"25s"`
}

// VendorConfig holds credentials and timeouts for the outbound vendor REST
// clients used to enrich order state after fulfillment events.
type VendorConfig struct {
	PrintfulAPIKey SecretString  `envconfig:"PRINTFUL_API_KEY"`
	PrintifyAPIKey SecretString  `envconfig:"PRINTIFY_API_KEY"`
	PrintifyShopID string        `envconfig:"PRINTIFY_SHOP_ID"`
	CallTimeout    time.Duration `envconfig:"VENDOR_CALL_TIMEOUT" default:"10s"`
	UserAgent      string        `envconfig:"VENDOR_USER_AGENT" default:"PrintBridge/1.0"`
}

// OpsConfig guards the read-only operational surface (audit queries).
// TokenHash is a bcrypt hash of the bearer token; the plaintext token is
// never stored in configuration.
type OpsConfig struct {
	TokenHash SecretString `envconfig:"OPS_TOKEN_HASH"`
}

// ArchiveConfig controls the audit archiver job.
type ArchiveConfig struct {
	Retention time.Duration `envconfig:"AUDIT_RETENTION" default:"2160h"` // 90 days
	Dir       string        `envconfig:"AUDIT_ARCHIVE_DIR" default:"/var/lib/printbridge/audit-archive"`
	BatchSize int           `envconfig:"AUDIT_ARCHIVE_BATCH" default:"500"`
}
