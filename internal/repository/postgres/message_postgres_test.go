package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"instainstru/internal/model"
)

func TestMessagePostgres(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMessagePostgres(db)
	ctx := context.Background()
	now := time.Now().UTC()
	convCols := []string{"id", "student_id", "instructor_id", "last_message_at", "created_at"}
	msgCols := []string{"id", "conversation_id", "sender_id", "body", "read_at", "created_at"}

	t.Run("ensure conversation", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO conversations (.+) ON CONFLICT").
			WithArgs("c-new", "stu", "inst", now).
			WillReturnRows(sqlmock.NewRows(convCols).AddRow("c-existing", "stu", "inst", now, now))
		c, err := repo.EnsureConversation(ctx, &model.Conversation{ID: "c-new", StudentID: "stu", InstructorID: "inst", CreatedAt: now})
		require.NoError(t, err)
		assert.Equal(t, "c-existing", c.ID)
		assert.NotNil(t, c.LastMessageAt)
	})

	t.Run("list conversations with unread", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM conversations c").WithArgs("stu").
			WillReturnRows(sqlmock.NewRows(append(convCols, "unread")).AddRow("c1", "stu", "inst", nil, now, 4))
		list, err := repo.ListConversations(ctx, "stu")
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, 4, list[0].UnreadCount)
		assert.Nil(t, list[0].LastMessageAt)
	})

	t.Run("create message", func(t *testing.T) {
		mock.ExpectQuery("WITH touched AS").
			WithArgs("m1", "c1", "stu", "hello", now).
			WillReturnRows(sqlmock.NewRows(msgCols).AddRow("m1", "c1", "stu", "hello", nil, now))
		m, err := repo.CreateMessage(ctx, &model.Message{ID: "m1", ConversationID: "c1", SenderID: "stu", Body: "hello", CreatedAt: now})
		require.NoError(t, err)
		assert.Equal(t, "hello", m.Body)
	})

	t.Run("list messages with cursor", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM messages").WithArgs("c1", now, 50).
			WillReturnRows(sqlmock.NewRows(msgCols).
				AddRow("m2", "c1", "inst", "b", now, now.Add(-time.Minute)).
				AddRow("m1", "c1", "stu", "a", nil, now.Add(-2*time.Minute)))
		list, err := repo.ListMessages(ctx, "c1", &now, 50)
		require.NoError(t, err)
		assert.Len(t, list, 2)
		assert.NotNil(t, list[0].ReadAt)
	})

	t.Run("list messages without cursor", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM messages").WithArgs("c1", nil, 20).
			WillReturnRows(sqlmock.NewRows(msgCols))
		list, err := repo.ListMessages(ctx, "c1", nil, 20)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("mark read", func(t *testing.T) {
		mock.ExpectExec("UPDATE messages SET read_at").WithArgs("c1", "stu", now).WillReturnResult(sqlmock.NewResult(0, 2))
		n, err := repo.MarkRead(ctx, "c1", "stu", now)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
