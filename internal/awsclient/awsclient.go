// Package awsclient builds the shared AWS SDK clients from process
// configuration.
package awsclient

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/scheduler"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/biizlabs/jobengine/internal/config"
)

// Clients bundles the AWS service clients the engine uses. Credentials is
// exposed separately because the lambda-url dispatch signs raw HTTP requests.
type Clients struct {
	SQS         *sqs.Client
	Lambda      *lambda.Client
	Scheduler   *scheduler.Client
	Credentials aws.CredentialsProvider
}

// New loads the default AWS configuration for the configured region. Static
// credentials take precedence when both keys are set; otherwise the default
// chain (env, shared config, instance role) applies.
func New(ctx context.Context, cfg *config.Config) (*Clients, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWSRegion),
	}
	if cfg.AWSAccessKeyID != "" && cfg.AWSSecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		))
	}

	ac, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &Clients{
		SQS:         sqs.NewFromConfig(ac),
		Lambda:      lambda.NewFromConfig(ac),
		Scheduler:   scheduler.NewFromConfig(ac),
		Credentials: ac.Credentials,
	}, nil
}
