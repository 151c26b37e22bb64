package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/sethvargo/go-envconfig"
)

// SourceQueue describes one upstream queue bridged into the primary queue.
// Queues are independently enabled and sized; MaxMessages is clamped to the
// SQS receive cap.
type SourceQueue struct {
	QueueURL          string
	MaxMessages       int32
	VisibilityTimeout int32
	Enabled           bool
}

// Config is the process-wide configuration for the API and worker binaries.
// Database settings live in internal/storage/postgres.
type Config struct {
	ListenAddr string `env:"LISTEN_ADDR,default=:8080"`

	AWSRegion          string `env:"AWS_DEFAULT_REGION,default=ap-northeast-2"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`

	MainQueueURL string `env:"AWS_SQS_QUEUE_URL"`

	CryptoQueueURL string `env:"AWS_SQS_CRYPTO_QUEUE_URL"`
	OxQueueURL     string `env:"AWS_SQS_OX_QUEUE_URL"`

	SchedulerRoleARN   string `env:"AWS_SCHEDULER_ROLE_ARN"`
	SchedulerTargetURL string `env:"AWS_SCHEDULER_TARGET_URL"`
}

// to help with testing
var envProcess = envconfig.Process

// Load reads configuration from the environment.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envProcess(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	var errs []string

	if strings.TrimSpace(cfg.AWSRegion) == "" {
		errs = append(errs, "AWS_DEFAULT_REGION is required")
	}

	// One explicit credential without the other is always a mistake.
	if (cfg.AWSAccessKeyID != "") != (cfg.AWSSecretAccessKey != "") {
		errs = append(errs, "AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// SourceQueues returns the bridgeable upstream queues keyed by name.
// A queue with no configured URL stays in the map but disabled, so a poll
// request for it reports cleanly instead of failing lookup.
func (c *Config) SourceQueues() map[string]SourceQueue {
	return map[string]SourceQueue{
		"crypto": {
			QueueURL:          c.CryptoQueueURL,
			MaxMessages:       4,
			VisibilityTimeout: 120,
			Enabled:           c.CryptoQueueURL != "",
		},
		"ox": {
			QueueURL:          c.OxQueueURL,
			MaxMessages:       9,
			VisibilityTimeout: 120,
			Enabled:           c.OxQueueURL != "",
		},
	}
}
