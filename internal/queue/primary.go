// Package queue wraps the SQS transports: the primary FIFO job queue and
// the bridge that normalizes upstream source queues into it.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/biizlabs/jobengine/internal/config"
	"github.com/biizlabs/jobengine/internal/dto"
)

// SQSAPI is the slice of the SQS client this package uses. *sqs.Client
// satisfies it; tests substitute a mock.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// PrimaryQueue is the main FIFO queue every unified job message flows
// through. The message-group id partitions ordering; the deduplication id
// is the idempotency key.
type PrimaryQueue struct {
	client SQSAPI
	url    string
}

func NewPrimaryQueue(client SQSAPI, url string) *PrimaryQueue {
	return &PrimaryQueue{client: client, url: url}
}

// Publish sends msg to the primary queue.
func (q *PrimaryQueue) Publish(ctx context.Context, msg *dto.UnifiedJobMessage) error {
	if q.url == "" {
		return fmt.Errorf("primary queue url not configured")
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	_, err = q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:               aws.String(q.url),
		MessageBody:            aws.String(string(body)),
		MessageGroupId:         aws.String(msg.Metadata.MessageGroupID),
		MessageDeduplicationId: aws.String(msg.DedupID()),
	})
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// Receive fetches up to limit messages, clamped to the SQS cap.
func (q *PrimaryQueue) Receive(ctx context.Context, limit int32) ([]types.Message, error) {
	if q.url == "" {
		return nil, fmt.Errorf("primary queue url not configured")
	}

	if limit <= 0 || limit > config.ReceiveBatchCap {
		limit = config.ReceiveBatchCap
	}

	out, err := q.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(q.url),
		MaxNumberOfMessages: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("receive messages: %w", err)
	}
	return out.Messages, nil
}

// Delete acknowledges one received message.
func (q *PrimaryQueue) Delete(ctx context.Context, receiptHandle string) error {
	_, err := q.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.url),
		ReceiptHandle: aws.String(receiptHandle),
	})
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}
