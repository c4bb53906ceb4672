package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/erazemk/auberge/internal/model"
)

// ListConversations returns the support conversations.
func (c *Client) ListConversations(ctx context.Context, opts ListOptions) ([]model.Conversation, error) {
	var convs []model.Conversation
	path := withQuery("/chat/conversations", opts.values())
	if err := c.do(ctx, http.MethodGet, "/chat/conversations", path, nil, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

// ListMessages returns the messages of a conversation, oldest first.
func (c *Client) ListMessages(ctx context.Context, conversationID int64) ([]model.Message, error) {
	var msgs []model.Message
	path := fmt.Sprintf("/chat/conversations/%d/messages", conversationID)
	if err := c.do(ctx, http.MethodGet, "/chat/conversations/{id}/messages", path, nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// SendMessage posts a staff message into a conversation.
func (c *Client) SendMessage(ctx context.Context, conversationID int64, content string) (model.Message, error) {
	req := struct {
		Content string `json:"content"`
	}{content}
	var msg model.Message
	path := fmt.Sprintf("/chat/conversations/%d/messages", conversationID)
	if err := c.do(ctx, http.MethodPost, "/chat/conversations/{id}/messages", path, req, &msg); err != nil {
		return model.Message{}, err
	}
	return msg, nil
}

// MarkConversationRead clears the admin unread counter.
func (c *Client) MarkConversationRead(ctx context.Context, conversationID int64) error {
	path := fmt.Sprintf("/chat/conversations/%d/read", conversationID)
	return c.do(ctx, http.MethodPatch, "/chat/conversations/{id}/read", path, nil, nil)
}

// CloseConversation marks a conversation closed and returns it.
func (c *Client) CloseConversation(ctx context.Context, conversationID int64) (model.Conversation, error) {
	req := struct {
		Status string `json:"status"`
	}{model.ConversationClosed}
	var conv model.Conversation
	path := fmt.Sprintf("/chat/conversations/%d", conversationID)
	if err := c.do(ctx, http.MethodPatch, "/chat/conversations/{id}", path, req, &conv); err != nil {
		return model.Conversation{}, err
	}
	return conv, nil
}

// ChatbotReply is the assistant's answer.
type ChatbotReply struct {
	Reply     string `json:"reply"`
	SessionID string `json:"session_id,omitempty"`
}

// AskChatbot sends a question to the site assistant.
func (c *Client) AskChatbot(ctx context.Context, message, sessionID string) (ChatbotReply, error) {
	req := struct {
		Message   string `json:"message"`
		SessionID string `json:"session_id,omitempty"`
	}{message, sessionID}
	var reply ChatbotReply
	if err := c.do(ctx, http.MethodPost, "/chatbot/chat", "/chatbot/chat", req, &reply); err != nil {
		return ChatbotReply{}, err
	}
	return reply, nil
}
