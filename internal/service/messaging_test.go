package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"instainstru/internal/model"
	notifMocks "instainstru/internal/notification/mocks"
	"instainstru/internal/realtime"
	repoMocks "instainstru/internal/repository/mocks"
)

type messagingFixture struct {
	repo     *repoMocks.MockMessageRepository
	users    *repoMocks.MockUserRepository
	bookings *repoMocks.MockBookingRepository
	broker   *realtime.LocalBroker
	notifier *notifMocks.MockNotifier
	svc      *messagingService
}

func newMessagingFixture() *messagingFixture {
	f := &messagingFixture{
		repo:     new(repoMocks.MockMessageRepository),
		users:    new(repoMocks.MockUserRepository),
		bookings: new(repoMocks.MockBookingRepository),
		broker:   realtime.NewLocalBroker(),
		notifier: new(notifMocks.MockNotifier),
	}
	f.svc = NewMessagingService(f.repo, f.users, f.bookings, f.broker, f.notifier, zerolog.Nop()).(*messagingService)
	f.svc.now = fixedClock
	f.users.On("FindByID", mock.Anything, "stu").Return(&model.User{ID: "stu", Role: model.RoleStudent}, nil).Maybe()
	f.users.On("FindByID", mock.Anything, "ins").Return(&model.User{ID: "ins", Role: model.RoleInstructor}, nil).Maybe()
	f.users.On("FindByID", mock.Anything, "stu2").Return(&model.User{ID: "stu2", Role: model.RoleStudent}, nil).Maybe()
	return f
}

func TestMessagingService_Send(t *testing.T) {
	t.Run("delivers to the recipient", func(t *testing.T) {
		f := newMessagingFixture()
		sub, err := f.broker.Subscribe(context.Background(), "stu")
		require.NoError(t, err)
		defer sub.Close()

		f.bookings.On("HasSharedBooking", mock.Anything, "stu", "ins").Return(true, nil)
		f.repo.On("EnsureConversation", mock.Anything, mock.MatchedBy(func(c *model.Conversation) bool {
			return c.StudentID == "stu" && c.InstructorID == "ins"
		})).Return(&model.Conversation{ID: "c1", StudentID: "stu", InstructorID: "ins"}, nil)
		out := &model.Message{}
		f.repo.On("CreateMessage", mock.Anything, mock.AnythingOfType("*model.Message")).
			Run(func(args mock.Arguments) { *out = *args.Get(1).(*model.Message) }).Return(out, nil)
		f.notifier.On("NewMessage", mock.Anything, mock.MatchedBy(func(u model.User) bool { return u.ID == "stu" }), mock.Anything, "See you at 5").Once()

		msg, err := f.svc.Send(context.Background(), "ins", SendMessageInput{RecipientID: "stu", Body: "  See you at 5 "})
		require.NoError(t, err)
		assert.Equal(t, "c1", msg.ConversationID)
		assert.Equal(t, "See you at 5", msg.Body)

		select {
		case ev := <-sub.Events():
			assert.Equal(t, realtime.EventMessage, ev.Type)
			assert.Contains(t, string(ev.Data), msg.ID)
		case <-time.After(time.Second):
			t.Fatal("no realtime event")
		}
		f.notifier.AssertExpectations(t)
	})

	tests := []struct {
		name       string
		sender     string
		in         SendMessageInput
		setupMocks func(f *messagingFixture)
		wantKind   error
	}{
		{name: "empty body", sender: "stu", in: SendMessageInput{RecipientID: "ins", Body: "   "}, setupMocks: func(*messagingFixture) {}, wantKind: ErrValidation},
		{name: "too long", sender: "stu", in: SendMessageInput{RecipientID: "ins", Body: strings.Repeat("é", MaxMessageLength+1)}, setupMocks: func(*messagingFixture) {}, wantKind: ErrValidation},
		{name: "to self", sender: "stu", in: SendMessageInput{RecipientID: "stu", Body: "hi"}, setupMocks: func(*messagingFixture) {}, wantKind: ErrValidation},
		{name: "student to student", sender: "stu", in: SendMessageInput{RecipientID: "stu2", Body: "hi"}, setupMocks: func(*messagingFixture) {}, wantKind: ErrForbidden},
		{
			name:   "no shared booking",
			sender: "stu",
			in:     SendMessageInput{RecipientID: "ins", Body: "hi"},
			setupMocks: func(f *messagingFixture) {
				f.bookings.On("HasSharedBooking", mock.Anything, "stu", "ins").Return(false, nil)
			},
			wantKind: ErrForbidden,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newMessagingFixture()
			tt.setupMocks(f)

			_, err := f.svc.Send(context.Background(), tt.sender, tt.in)
			assert.ErrorIs(t, err, tt.wantKind)
			f.repo.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
		})
	}
}

func TestMessagingService_Conversations(t *testing.T) {
	f := newMessagingFixture()
	f.repo.On("FindConversation", mock.Anything, "c1").Return(&model.Conversation{ID: "c1", StudentID: "stu", InstructorID: "ins"}, nil)
	before := testNow.Add(-time.Hour)
	f.repo.On("ListMessages", mock.Anything, "c1", &before, 100).Return([]model.Message{{ID: "m1"}}, nil)
	f.repo.On("MarkRead", mock.Anything, "c1", "ins", testNow).Return(int64(3), nil)

	msgs, err := f.svc.ListMessages(context.Background(), "stu", "c1", &before, 500)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)

	n, err := f.svc.MarkRead(context.Background(), "ins", "c1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	_, err = f.svc.ListMessages(context.Background(), "stu2", "c1", nil, 10)
	assert.ErrorIs(t, err, ErrForbidden)
}
