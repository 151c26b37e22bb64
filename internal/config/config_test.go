package config

import (
	"context"
	"testing"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withEnv(t *testing.T, vals map[string]string) {
	t.Helper()
	orig := envProcess
	envProcess = func(ctx context.Context, i any, mus ...envconfig.Mutator) error {
		return envconfig.ProcessWith(ctx, &envconfig.Config{
			Target:   i,
			Lookuper: envconfig.MapLookuper(vals),
			Mutators: mus,
		})
	}
	t.Cleanup(func() { envProcess = orig })
}

func TestLoadDefaults(t *testing.T) {
	withEnv(t, map[string]string{})

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "ap-northeast-2", cfg.AWSRegion)
	assert.Empty(t, cfg.MainQueueURL)
}

func TestLoadRejectsHalfCredentials(t *testing.T) {
	withEnv(t, map[string]string{
		"AWS_ACCESS_KEY_ID": "AKID",
	})

	_, err := Load(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be set together")
}

func TestLoadAcceptsFullCredentials(t *testing.T) {
	withEnv(t, map[string]string{
		"AWS_ACCESS_KEY_ID":     "AKID",
		"AWS_SECRET_ACCESS_KEY": "SECRET",
		"AWS_SQS_QUEUE_URL":     "https://sqs/main",
	})

	cfg, err := Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://sqs/main", cfg.MainQueueURL)
}

func TestSourceQueues(t *testing.T) {
	cfg := &Config{CryptoQueueURL: "https://sqs/crypto"}

	sources := cfg.SourceQueues()
	require.Len(t, sources, 2)

	crypto := sources["crypto"]
	assert.True(t, crypto.Enabled)
	assert.Equal(t, int32(4), crypto.MaxMessages)
	assert.Equal(t, int32(120), crypto.VisibilityTimeout)

	ox := sources["ox"]
	assert.False(t, ox.Enabled)
	assert.Equal(t, int32(9), ox.MaxMessages)
}

func TestJobStatusTerminal(t *testing.T) {
	assert.False(t, JobStatusPending.Terminal())
	assert.False(t, JobStatusRetrying.Terminal())
	assert.True(t, JobStatusSucceeded.Terminal())
	assert.True(t, JobStatusFailed.Terminal())
	assert.True(t, JobStatusDead.Terminal())
}
