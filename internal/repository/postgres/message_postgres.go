package postgres

import (
	"context"
	"database/sql"
	"time"

	"instainstru/internal/model"
	"instainstru/internal/repository"
)

// MessagePostgres is a PostgreSQL implementation of repository.MessageRepository.
type MessagePostgres struct {
	db *sql.DB
}

// NewMessagePostgres creates a new MessagePostgres repository.
func NewMessagePostgres(db *sql.DB) *MessagePostgres {
	return &MessagePostgres{db: db}
}

var _ repository.MessageRepository = (*MessagePostgres)(nil)

func scanConversation(row interface{ Scan(...any) error }, withUnread bool) (*model.Conversation, error) {
	var c model.Conversation
	var last sql.NullTime
	dest := []any{&c.ID, &c.StudentID, &c.InstructorID, &last, &c.CreatedAt}
	if withUnread {
		dest = append(dest, &c.UnreadCount)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	c.LastMessageAt = timePtr(last)
	return &c, nil
}

// EnsureConversation inserts the pair's conversation or returns the existing one.
func (r *MessagePostgres) EnsureConversation(ctx context.Context, c *model.Conversation) (*model.Conversation, error) {
	const q = `
		INSERT INTO conversations (id, student_id, instructor_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (student_id, instructor_id) DO UPDATE SET student_id = EXCLUDED.student_id
		RETURNING id, student_id, instructor_id, last_message_at, created_at
	`
	row := conn(ctx, r.db).QueryRowContext(ctx, q, c.ID, c.StudentID, c.InstructorID, c.CreatedAt)
	return scanConversation(row, false)
}

// FindConversation fetches a conversation by ID.
func (r *MessagePostgres) FindConversation(ctx context.Context, id string) (*model.Conversation, error) {
	const q = `SELECT id, student_id, instructor_id, last_message_at, created_at FROM conversations WHERE id = $1`
	return scanConversation(conn(ctx, r.db).QueryRowContext(ctx, q, id), false)
}

// ListConversations returns the user's conversations, most recently active first.
func (r *MessagePostgres) ListConversations(ctx context.Context, userID string) ([]model.Conversation, error) {
	const q = `
		SELECT c.id, c.student_id, c.instructor_id, c.last_message_at, c.created_at,
		       (SELECT COUNT(*) FROM messages m
		        WHERE m.conversation_id = c.id AND m.sender_id <> $1 AND m.read_at IS NULL) AS unread
		FROM conversations c
		WHERE c.student_id = $1 OR c.instructor_id = $1
		ORDER BY c.last_message_at DESC NULLS LAST, c.created_at DESC
	`
	rows, err := conn(ctx, r.db).QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Conversation, 0)
	for rows.Next() {
		c, err := scanConversation(rows, true)
		if err != nil {
			return nil, err
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

// CreateMessage inserts a message and bumps the conversation's activity time.
func (r *MessagePostgres) CreateMessage(ctx context.Context, m *model.Message) (*model.Message, error) {
	const q = `
		WITH touched AS (
			UPDATE conversations SET last_message_at = $5 WHERE id = $2
		)
		INSERT INTO messages (id, conversation_id, sender_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, conversation_id, sender_id, body, read_at, created_at
	`
	var out model.Message
	var readAt sql.NullTime
	if err := conn(ctx, r.db).QueryRowContext(ctx, q, m.ID, m.ConversationID, m.SenderID, m.Body, m.CreatedAt).
		Scan(&out.ID, &out.ConversationID, &out.SenderID, &out.Body, &readAt, &out.CreatedAt); err != nil {
		return nil, err
	}
	out.ReadAt = timePtr(readAt)
	return &out, nil
}

// ListMessages returns up to limit messages older than before, newest first.
func (r *MessagePostgres) ListMessages(ctx context.Context, conversationID string, before *time.Time, limit int) ([]model.Message, error) {
	const q = `
		SELECT id, conversation_id, sender_id, body, read_at, created_at
		FROM messages
		WHERE conversation_id = $1 AND ($2::timestamptz IS NULL OR created_at < $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`
	rows, err := conn(ctx, r.db).QueryContext(ctx, q, conversationID, nullTime(before), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Message, 0)
	for rows.Next() {
		var m model.Message
		var readAt sql.NullTime
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Body, &readAt, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.ReadAt = timePtr(readAt)
		items = append(items, m)
	}
	return items, rows.Err()
}

// MarkRead stamps the other participant's unread messages as read.
func (r *MessagePostgres) MarkRead(ctx context.Context, conversationID, readerID string, at time.Time) (int64, error) {
	const q = `
		UPDATE messages SET read_at = $3
		WHERE conversation_id = $1 AND sender_id <> $2 AND read_at IS NULL
	`
	res, err := conn(ctx, r.db).ExecContext(ctx, q, conversationID, readerID, at)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
