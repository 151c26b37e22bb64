package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"go.uber.org/zap"

	"github.com/biizlabs/jobengine/internal/config"
	"github.com/biizlabs/jobengine/internal/dto"
)

// ErrUnknownQueue reports a poll for a queue name outside the configured
// source set.
var ErrUnknownQueue = errors.New("unknown source queue")

// FailedJobStore persists a unified message that could not be forwarded to
// the primary queue, store-only, so the sweep picks it up later.
type FailedJobStore interface {
	PersistFailedMessage(ctx context.Context, msg *dto.UnifiedJobMessage) error
}

// Bridge drains configured upstream source queues into the primary queue.
// Every received message either reaches the primary queue or lands in the
// record store; a message is only deleted from its source once it has been
// forwarded.
type Bridge struct {
	client  SQSAPI
	primary *PrimaryQueue
	sources map[string]config.SourceQueue
	store   FailedJobStore
	logger  *zap.Logger
}

func NewBridge(client SQSAPI, primary *PrimaryQueue, sources map[string]config.SourceQueue, store FailedJobStore, logger *zap.Logger) *Bridge {
	return &Bridge{
		client:  client,
		primary: primary,
		sources: sources,
		store:   store,
		logger:  logger,
	}
}

// SourceNames lists the queue names the bridge knows about, enabled or not.
func (b *Bridge) SourceNames() []string {
	names := make([]string, 0, len(b.sources))
	for name := range b.sources {
		names = append(names, name)
	}
	return names
}

// PollQueue receives up to limit messages from the named source queue and
// forwards each to the primary queue. It returns the number of messages
// forwarded. An explicit limit overrides the queue's configured batch size,
// capped at the SQS receive maximum; limit <= 0 falls back to the configured
// size. A disabled queue polls as zero, not as an error.
//
// Forward failures fall back to the record store; the source message is then
// left in place so the queue's own visibility timeout acts as a second
// safety net.
func (b *Bridge) PollQueue(ctx context.Context, queueName string, limit int) (int, error) {
	src, ok := b.sources[queueName]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownQueue, queueName)
	}
	if !src.Enabled {
		b.logger.Debug("source queue disabled, skipping", zap.String("queue", queueName))
		return 0, nil
	}

	maxMessages := src.MaxMessages
	if limit > 0 {
		maxMessages = int32(limit)
	}
	if maxMessages > config.ReceiveBatchCap {
		maxMessages = config.ReceiveBatchCap
	}

	out, err := b.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(src.QueueURL),
		MaxNumberOfMessages: maxMessages,
		VisibilityTimeout:   src.VisibilityTimeout,
	})
	if err != nil {
		return 0, fmt.Errorf("receive from %s: %w", queueName, err)
	}

	forwarded := 0
	for _, m := range out.Messages {
		body := ""
		if m.Body != nil {
			body = *m.Body
		}
		msg := MapSourceMessage(body, queueName)

		if err := b.primary.Publish(ctx, msg); err != nil {
			b.logger.Warn("forward to primary queue failed, persisting to store",
				zap.String("queue", queueName),
				zap.String("job_id", msg.Metadata.JobID),
				zap.Error(err),
			)
			if perr := b.store.PersistFailedMessage(ctx, msg); perr != nil {
				b.logger.Error("store fallback failed, message stays on source queue",
					zap.String("queue", queueName),
					zap.String("job_id", msg.Metadata.JobID),
					zap.Error(perr),
				)
			}
			continue
		}

		forwarded++

		if m.ReceiptHandle != nil {
			if _, err := b.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
				QueueUrl:      aws.String(src.QueueURL),
				ReceiptHandle: m.ReceiptHandle,
			}); err != nil {
				// Already forwarded; the duplicate redelivery is absorbed by
				// the dedup id.
				b.logger.Warn("delete from source queue failed",
					zap.String("queue", queueName),
					zap.String("job_id", msg.Metadata.JobID),
					zap.Error(err),
				)
			}
		}
	}

	b.logger.Info("source queue poll completed",
		zap.String("queue", queueName),
		zap.Int("received", len(out.Messages)),
		zap.Int("forwarded", forwarded),
	)

	return forwarded, nil
}
