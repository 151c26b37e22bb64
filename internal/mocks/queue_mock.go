package mocks

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/mock"

	"github.com/biizlabs/jobengine/internal/dto"
	"github.com/biizlabs/jobengine/internal/job"
	"github.com/biizlabs/jobengine/internal/queue"
)

// QueueMock stands in for the primary queue wrapper.
type QueueMock struct {
	mock.Mock
}

var _ job.QueueInterface = (*QueueMock)(nil)

func (m *QueueMock) Publish(ctx context.Context, msg *dto.UnifiedJobMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *QueueMock) Receive(ctx context.Context, limit int32) ([]types.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Message), args.Error(1)
}

func (m *QueueMock) Delete(ctx context.Context, receiptHandle string) error {
	args := m.Called(ctx, receiptHandle)
	return args.Error(0)
}

// BridgeMock stands in for the source queue bridge.
type BridgeMock struct {
	mock.Mock
}

var _ job.BridgeInterface = (*BridgeMock)(nil)

func (m *BridgeMock) PollQueue(ctx context.Context, queueName string, limit int) (int, error) {
	args := m.Called(ctx, queueName, limit)
	return args.Int(0), args.Error(1)
}

// SQSMock implements the raw SQS client slice used by the queue package.
type SQSMock struct {
	mock.Mock
}

var _ queue.SQSAPI = (*SQSMock)(nil)

func (m *SQSMock) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sqs.SendMessageOutput), args.Error(1)
}

func (m *SQSMock) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sqs.ReceiveMessageOutput), args.Error(1)
}

func (m *SQSMock) DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sqs.DeleteMessageOutput), args.Error(1)
}
