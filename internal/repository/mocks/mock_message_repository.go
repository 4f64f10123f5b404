package mocks

import (
	"context"
	"time"

	"instainstru/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) EnsureConversation(ctx context.Context, c *model.Conversation) (*model.Conversation, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Conversation), args.Error(1)
}

func (m *MockMessageRepository) FindConversation(ctx context.Context, id string) (*model.Conversation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Conversation), args.Error(1)
}

func (m *MockMessageRepository) ListConversations(ctx context.Context, userID string) ([]model.Conversation, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Conversation), args.Error(1)
}

func (m *MockMessageRepository) CreateMessage(ctx context.Context, msg *model.Message) (*model.Message, error) {
	args := m.Called(ctx, msg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Message), args.Error(1)
}

func (m *MockMessageRepository) ListMessages(ctx context.Context, conversationID string, before *time.Time, limit int) ([]model.Message, error) {
	args := m.Called(ctx, conversationID, before, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Message), args.Error(1)
}

func (m *MockMessageRepository) MarkRead(ctx context.Context, conversationID string, readerID string, at time.Time) (int64, error) {
	args := m.Called(ctx, conversationID, readerID, at)
	return args.Get(0).(int64), args.Error(1)
}
