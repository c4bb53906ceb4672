package model

import "encoding/json"

// Conversation is a support chat thread between a customer and the staff.
type Conversation struct {
	ID            int64  `json:"id"`
	UserID        int64  `json:"user_id"`
	UserName      string `json:"user_name,omitempty"`
	UserEmail     string `json:"user_email,omitempty"`
	Status        string `json:"status"`
	UnreadAdmin   int    `json:"unread_admin"`
	LastMessage   string `json:"last_message,omitempty"`
	LastMessageAt Time   `json:"last_message_at"`
	CreatedAt     Time   `json:"created_at"`
}

// Conversation statuses.
const (
	ConversationActive = "active"
	ConversationClosed = "closed"
)

// Message is a single chat message.
type Message struct {
	ID             int64  `json:"id"`
	ConversationID int64  `json:"conversation_id"`
	SenderID       int64  `json:"sender_id"`
	SenderRole     string `json:"sender_role"`
	SenderName     string `json:"sender_name,omitempty"`
	Content        string `json:"content"`
	IsRead         bool   `json:"is_read"`
	CreatedAt      Time   `json:"created_at"`
}

// UnmarshalJSON accepts the message body under either "content" or "message".
func (m *Message) UnmarshalJSON(data []byte) error {
	type alias Message
	aux := struct {
		*alias
		Message string `json:"message"`
	}{alias: (*alias)(m)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if m.Content == "" {
		m.Content = aux.Message
	}
	return nil
}

// FromStaff reports whether the message was written by back-office staff.
func (m Message) FromStaff() bool {
	return m.SenderRole == RoleAdmin || m.SenderRole == RoleStaff
}
