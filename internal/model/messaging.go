package model

import "time"

// Conversation is the single thread between a student and an instructor.
type Conversation struct {
	ID            string     `json:"id"`
	StudentID     string     `json:"student_id"`
	InstructorID  string     `json:"instructor_id"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	UnreadCount   int        `json:"unread_count"`
	CreatedAt     time.Time  `json:"created_at"`
}

// HasParticipant reports whether userID belongs to the conversation.
func (c Conversation) HasParticipant(userID string) bool {
	return userID != "" && (c.StudentID == userID || c.InstructorID == userID)
}

// Message is a single chat message.
type Message struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversation_id"`
	SenderID       string     `json:"sender_id"`
	Body           string     `json:"body"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
