package repository

import (
	"context"
	"time"

	"instainstru/internal/model"
)

// MessageRepository persists conversations and messages.
type MessageRepository interface {
	// EnsureConversation returns the conversation of the pair, creating it if needed.
	EnsureConversation(ctx context.Context, c *model.Conversation) (*model.Conversation, error)
	FindConversation(ctx context.Context, id string) (*model.Conversation, error)
	// ListConversations returns the user's conversations with unread counts for that user.
	ListConversations(ctx context.Context, userID string) ([]model.Conversation, error)
	CreateMessage(ctx context.Context, m *model.Message) (*model.Message, error)
	// ListMessages returns newest first; before, when non-nil, is an exclusive cursor.
	ListMessages(ctx context.Context, conversationID string, before *time.Time, limit int) ([]model.Message, error)
	// MarkRead stamps every unread message not sent by readerID.
	MarkRead(ctx context.Context, conversationID, readerID string, at time.Time) (int64, error)
}
