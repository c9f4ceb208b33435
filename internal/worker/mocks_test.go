package worker_test

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// Mocks

type MockPipeline struct{ mock.Mock }

func (m *MockPipeline) Ingest(ctx context.Context, text, personaID string, metadata map[string]interface{}) (int, error) {
	args := m.Called(ctx, text, personaID, metadata)
	return args.Int(0), args.Error(1)
}

type MockJobTracker struct{ mock.Mock }

func (m *MockJobTracker) MarkProcessing(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockJobTracker) Complete(ctx context.Context, id string, chunkCount int) error {
	args := m.Called(ctx, id, chunkCount)
	return args.Error(0)
}

func (m *MockJobTracker) Fail(ctx context.Context, id, errMsg string) error {
	args := m.Called(ctx, id, errMsg)
	return args.Error(0)
}

type MockTaskPublisher struct{ mock.Mock }

func (m *MockTaskPublisher) Publish(topic string, body []byte) error {
	args := m.Called(topic, body)
	return args.Error(0)
}
