package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"instainstru/internal/model"
	"instainstru/internal/realtime"
	"instainstru/internal/service"
)

type MockMessagingService struct {
	mock.Mock
}

func (m *MockMessagingService) Send(ctx context.Context, senderID string, in service.SendMessageInput) (*model.Message, error) {
	args := m.Called(ctx, senderID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Message), args.Error(1)
}

func (m *MockMessagingService) ListConversations(ctx context.Context, userID string) ([]model.Conversation, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Conversation), args.Error(1)
}

func (m *MockMessagingService) ListMessages(ctx context.Context, userID, conversationID string, before *time.Time, limit int) ([]model.Message, error) {
	args := m.Called(ctx, userID, conversationID, before, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Message), args.Error(1)
}

func (m *MockMessagingService) MarkRead(ctx context.Context, userID, conversationID string) (int64, error) {
	args := m.Called(ctx, userID, conversationID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMessagingService) Subscribe(ctx context.Context, userID string) (realtime.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(realtime.Subscription), args.Error(1)
}
