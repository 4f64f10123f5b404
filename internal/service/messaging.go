package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"instainstru/internal/model"
	"instainstru/internal/notification"
	"instainstru/internal/realtime"
	"instainstru/internal/repository"
)

// MaxMessageLength is the longest accepted message body in characters.
const MaxMessageLength = 2000

// SendMessageInput is a new chat message.
type SendMessageInput struct {
	RecipientID string `json:"recipient_id"`
	Body        string `json:"body"`
}

// MessagingService handles conversations between students and instructors.
type MessagingService interface {
	Send(ctx context.Context, senderID string, in SendMessageInput) (*model.Message, error)
	ListConversations(ctx context.Context, userID string) ([]model.Conversation, error)
	ListMessages(ctx context.Context, userID, conversationID string, before *time.Time, limit int) ([]model.Message, error)
	MarkRead(ctx context.Context, userID, conversationID string) (int64, error)
	// Subscribe streams realtime events addressed to userID.
	Subscribe(ctx context.Context, userID string) (realtime.Subscription, error)
}

type messagingService struct {
	repo     repository.MessageRepository
	users    repository.UserRepository
	bookings repository.BookingRepository
	broker   realtime.Broker
	notifier notification.Notifier
	log      zerolog.Logger
	now      func() time.Time
}

// NewMessagingService constructs a MessagingService.
func NewMessagingService(repo repository.MessageRepository, users repository.UserRepository, bookings repository.BookingRepository, broker realtime.Broker, notifier notification.Notifier, logger zerolog.Logger) MessagingService {
	return &messagingService{
		repo:     repo,
		users:    users,
		bookings: bookings,
		broker:   broker,
		notifier: notifier,
		log:      logger,
		now:      time.Now,
	}
}

func (s *messagingService) Send(ctx context.Context, senderID string, in SendMessageInput) (*model.Message, error) {
	body := strings.TrimSpace(in.Body)
	if body == "" {
		return nil, errorf(ErrValidation, "message body is required")
	}
	if utf8.RuneCountInString(body) > MaxMessageLength {
		return nil, errorf(ErrValidation, "message body exceeds %d characters", MaxMessageLength)
	}
	if in.RecipientID == "" || in.RecipientID == senderID {
		return nil, errorf(ErrValidation, "recipient_id is invalid")
	}

	sender, err := s.users.FindByID(ctx, senderID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	recipient, err := s.users.FindByID(ctx, in.RecipientID)
	if err != nil {
		return nil, notFound(err, "recipient")
	}

	var studentID, instructorID string
	switch {
	case sender.Role == model.RoleStudent && recipient.Role == model.RoleInstructor:
		studentID, instructorID = sender.ID, recipient.ID
	case sender.Role == model.RoleInstructor && recipient.Role == model.RoleStudent:
		studentID, instructorID = recipient.ID, sender.ID
	default:
		return nil, errorf(ErrForbidden, "messages are only exchanged between students and instructors")
	}
	shared, err := s.bookings.HasSharedBooking(ctx, studentID, instructorID)
	if err != nil {
		return nil, err
	}
	if !shared {
		return nil, errorf(ErrForbidden, "you can only message users you have a booking with")
	}

	now := s.now().UTC()
	conv, err := s.repo.EnsureConversation(ctx, &model.Conversation{
		ID:           uuid.NewString(),
		StudentID:    studentID,
		InstructorID: instructorID,
		CreatedAt:    now,
	})
	if err != nil {
		return nil, err
	}
	msg, err := s.repo.CreateMessage(ctx, &model.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		SenderID:       senderID,
		Body:           body,
		CreatedAt:      now,
	})
	if err != nil {
		return nil, err
	}

	if ev, err := realtime.NewEvent(realtime.EventMessage, msg); err == nil {
		if err := s.broker.Publish(ctx, recipient.ID, ev); err != nil {
			s.log.Warn().Err(err).Str("message_id", msg.ID).Msg("publish message event")
		}
	}
	s.notifier.NewMessage(ctx, *recipient, *sender, body)
	return msg, nil
}

func (s *messagingService) ListConversations(ctx context.Context, userID string) ([]model.Conversation, error) {
	return s.repo.ListConversations(ctx, userID)
}

func (s *messagingService) conversation(ctx context.Context, userID, conversationID string) (*model.Conversation, error) {
	c, err := s.repo.FindConversation(ctx, conversationID)
	if err != nil {
		return nil, notFound(err, "conversation")
	}
	if !c.HasParticipant(userID) {
		return nil, errorf(ErrForbidden, "not your conversation")
	}
	return c, nil
}

func (s *messagingService) ListMessages(ctx context.Context, userID, conversationID string, before *time.Time, limit int) ([]model.Message, error) {
	if _, err := s.conversation(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	limit, _ = normalizePage(limit, 0, 100)
	msgs, err := s.repo.ListMessages(ctx, conversationID, before, limit)
	if errors.Is(err, sql.ErrNoRows) {
		return []model.Message{}, nil
	}
	return msgs, err
}

func (s *messagingService) MarkRead(ctx context.Context, userID, conversationID string) (int64, error) {
	if _, err := s.conversation(ctx, userID, conversationID); err != nil {
		return 0, err
	}
	return s.repo.MarkRead(ctx, conversationID, userID, s.now().UTC())
}

func (s *messagingService) Subscribe(ctx context.Context, userID string) (realtime.Subscription, error) {
	return s.broker.Subscribe(ctx, userID)
}
