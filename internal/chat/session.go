// Package chat holds the state of the staff support chat: the conversation
// list, the selected conversation and its messages, and the reply draft.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/erazemk/auberge/internal/apiclient"
	"github.com/erazemk/auberge/internal/filter"
	"github.com/erazemk/auberge/internal/loader"
	"github.com/erazemk/auberge/internal/model"
	"github.com/erazemk/auberge/internal/poller"
)

var (
	ErrEmptyMessage   = errors.New("message is empty")
	ErrNoConversation = errors.New("no conversation selected")
	ErrSendInProgress = errors.New("a message is already being sent")
)

// Backend is the part of the API the chat needs.
type Backend interface {
	ListConversations(ctx context.Context, opts apiclient.ListOptions) ([]model.Conversation, error)
	ListMessages(ctx context.Context, conversationID int64) ([]model.Message, error)
	SendMessage(ctx context.Context, conversationID int64, content string) (model.Message, error)
	MarkConversationRead(ctx context.Context, conversationID int64) error
	CloseConversation(ctx context.Context, conversationID int64) (model.Conversation, error)
}

// Snapshot is a copy of the session state.
type Snapshot struct {
	Conversations []model.Conversation
	Selected      int64
	Messages      []model.Message
	Draft         string
	Loading       bool
	Sending       bool
}

// Unread sums the admin unread counters.
func (s Snapshot) Unread() int {
	n := 0
	for _, c := range s.Conversations {
		n += c.UnreadAdmin
	}
	return n
}

// Session is the chat state of one staff member. It is safe for concurrent use.
type Session struct {
	backend      Backend
	chatInterval time.Duration
	listInterval time.Duration

	// selMu serializes selection changes so pollers are swapped one at a time.
	selMu sync.Mutex

	mu            sync.Mutex
	conversations []model.Conversation
	selected      int64
	generation    uint64
	messages      []model.Message
	draft         string
	loading       bool
	sending       bool
	onChange      func(Snapshot)

	messagePoller *poller.Poller
	listPoller    *poller.Poller
}

// NewSession creates an empty session.
func NewSession(backend Backend) *Session {
	return &Session{
		backend:      backend,
		chatInterval: poller.ChatInterval,
		listInterval: poller.ConversationsInterval,
	}
}

// WithIntervals overrides the message and conversation list polling periods.
func (s *Session) WithIntervals(messages, conversations time.Duration) *Session {
	if messages > 0 {
		s.chatInterval = messages
	}
	if conversations > 0 {
		s.listInterval = conversations
	}
	return s
}

// OnChange registers fn to receive a snapshot after every state change.
func (s *Session) OnChange(fn func(Snapshot)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		Conversations: append([]model.Conversation(nil), s.conversations...),
		Selected:      s.selected,
		Messages:      append([]model.Message(nil), s.messages...),
		Draft:         s.draft,
		Loading:       s.loading,
		Sending:       s.sending,
	}
}

// notify must be called without s.mu held.
func (s *Session) notify() {
	s.mu.Lock()
	fn := s.onChange
	snap := s.snapshotLocked()
	s.mu.Unlock()
	if fn != nil {
		fn(snap)
	}
}

// LoadConversations replaces the conversation list.
func (s *Session) LoadConversations(ctx context.Context, mode loader.Mode) error {
	if mode == loader.Visible {
		s.setLoading(true)
		defer s.setLoading(false)
	}
	convs, err := s.backend.ListConversations(ctx, apiclient.ListOptions{})
	if err != nil {
		return fmt.Errorf("loading conversations: %w", err)
	}
	s.mu.Lock()
	s.conversations = convs
	s.mu.Unlock()
	s.notify()
	return nil
}

func (s *Session) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
	s.notify()
}

// StartConversationPolling refreshes the conversation list in the background
// until ctx ends or the session is closed.
func (s *Session) StartConversationPolling(ctx context.Context) {
	s.selMu.Lock()
	defer s.selMu.Unlock()
	if s.listPoller == nil {
		s.listPoller = poller.New(s.listInterval, func(ctx context.Context) error {
			return s.LoadConversations(ctx, loader.Silent)
		}).WithName("chat.conversations")
	}
	s.listPoller.Start(ctx)
}

// Open selects a conversation, loads its messages and marks it read,
// without starting the message poller.
func (s *Session) Open(ctx context.Context, id int64) error {
	s.selMu.Lock()
	defer s.selMu.Unlock()
	s.stopMessagePoller()
	_, err := s.open(ctx, id)
	return err
}

// Select opens a conversation and polls its messages every chat interval
// until another conversation is selected or the session is closed.
func (s *Session) Select(ctx context.Context, id int64) error {
	s.selMu.Lock()
	defer s.selMu.Unlock()
	s.stopMessagePoller()

	gen, err := s.open(ctx, id)
	if err != nil {
		return err
	}
	s.messagePoller = poller.New(s.chatInterval, func(ctx context.Context) error {
		return s.pollMessages(ctx, gen, id)
	}).WithName("chat.messages")
	s.messagePoller.Start(ctx)
	return nil
}

func (s *Session) open(ctx context.Context, id int64) (uint64, error) {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.selected = id
	s.messages = nil
	s.draft = ""
	s.loading = true
	s.mu.Unlock()
	s.notify()

	msgs, err := s.backend.ListMessages(ctx, id)

	s.mu.Lock()
	if s.generation == gen {
		s.loading = false
		if err == nil {
			s.messages = msgs
		}
	}
	s.mu.Unlock()
	if err != nil {
		s.notify()
		return gen, fmt.Errorf("loading messages of conversation %d: %w", id, err)
	}

	if err := s.backend.MarkConversationRead(ctx, id); err != nil {
		slog.Warn("failed to mark conversation read", "conversation", id, "error", apiclient.Message(err))
	} else {
		s.mu.Lock()
		for i := range s.conversations {
			if s.conversations[i].ID == id {
				s.conversations[i].UnreadAdmin = 0
			}
		}
		s.mu.Unlock()
	}
	s.notify()
	return gen, nil
}

func (s *Session) pollMessages(ctx context.Context, gen uint64, id int64) error {
	msgs, err := s.backend.ListMessages(ctx, id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return nil
	}
	s.messages = mergeMessages(msgs, s.messages)
	s.mu.Unlock()
	s.notify()
	return nil
}

// Deselect clears the selection and stops message polling.
func (s *Session) Deselect() {
	s.selMu.Lock()
	defer s.selMu.Unlock()
	s.stopMessagePoller()
	s.mu.Lock()
	s.generation++
	s.selected = 0
	s.messages = nil
	s.draft = ""
	s.loading = false
	s.mu.Unlock()
	s.notify()
}

// Close stops every poller of the session.
func (s *Session) Close() {
	s.selMu.Lock()
	defer s.selMu.Unlock()
	s.stopMessagePoller()
	if s.listPoller != nil {
		s.listPoller.Stop()
	}
}

// stopMessagePoller must be called with selMu held and mu not held.
func (s *Session) stopMessagePoller() {
	if s.messagePoller != nil {
		s.messagePoller.Stop()
		s.messagePoller = nil
	}
}

// SetDraft replaces the reply draft.
func (s *Session) SetDraft(text string) {
	s.mu.Lock()
	s.draft = text
	s.mu.Unlock()
	s.notify()
}

// Send posts the draft to the selected conversation. The message is appended
// and the draft cleared only once the backend accepted it.
func (s *Session) Send(ctx context.Context) (model.Message, error) {
	s.mu.Lock()
	id := s.selected
	gen := s.generation
	content := strings.TrimSpace(s.draft)
	switch {
	case id == 0:
		s.mu.Unlock()
		return model.Message{}, ErrNoConversation
	case content == "":
		s.mu.Unlock()
		return model.Message{}, ErrEmptyMessage
	case s.sending:
		s.mu.Unlock()
		return model.Message{}, ErrSendInProgress
	}
	s.sending = true
	s.mu.Unlock()

	msg, err := s.backend.SendMessage(ctx, id, content)

	s.mu.Lock()
	s.sending = false
	if err != nil {
		s.mu.Unlock()
		s.notify()
		return model.Message{}, fmt.Errorf("sending message: %w", err)
	}
	if msg.Content == "" {
		msg.Content = content
	}
	if s.generation == gen {
		if !containsMessage(s.messages, msg.ID) {
			s.messages = append(s.messages, msg)
		}
		s.draft = ""
	}
	for i := range s.conversations {
		if s.conversations[i].ID == id {
			s.conversations[i].LastMessage = msg.Content
			s.conversations[i].LastMessageAt = msg.CreatedAt
		}
	}
	s.mu.Unlock()
	s.notify()
	return msg, nil
}

// CloseConversation closes a conversation on the backend and splices the
// returned conversation into the list.
func (s *Session) CloseConversation(ctx context.Context, id int64) error {
	conv, err := s.backend.CloseConversation(ctx, id)
	if err != nil {
		return fmt.Errorf("closing conversation %d: %w", id, err)
	}
	if conv.ID == 0 {
		conv.ID = id
	}
	if conv.Status == "" {
		conv.Status = model.ConversationClosed
	}
	s.mu.Lock()
	for i := range s.conversations {
		if s.conversations[i].ID == id {
			s.conversations[i] = conv
		}
	}
	s.mu.Unlock()
	s.notify()
	return nil
}

// FilterConversations matches the list by customer and last message.
// An empty status keeps every status.
func (s *Session) FilterConversations(query, status string) []model.Conversation {
	q := filter.Parse(query)
	s.mu.Lock()
	defer s.mu.Unlock()
	return filter.Apply(s.conversations, func(c model.Conversation) bool {
		if status != "" && c.Status != status {
			return false
		}
		return q.Match(c.UserName, c.UserEmail, c.LastMessage)
	})
}

// SearchMessages matches the messages of the selected conversation.
func (s *Session) SearchMessages(query string) []model.Message {
	q := filter.Parse(query)
	s.mu.Lock()
	defer s.mu.Unlock()
	return filter.Apply(s.messages, func(m model.Message) bool {
		return q.Match(m.Content, m.SenderName)
	})
}

// mergeMessages takes the fetched list and keeps local messages that are
// newer than its tail, e.g. one just sent whose fetch was already in flight.
func mergeMessages(fetched, local []model.Message) []model.Message {
	out := append([]model.Message(nil), fetched...)
	if len(fetched) == 0 {
		return append(out, local...)
	}
	tail := fetched[len(fetched)-1]
	for _, m := range local {
		if containsMessage(fetched, m.ID) {
			continue
		}
		if newerThan(m, tail) {
			out = append(out, m)
		}
	}
	return out
}

func newerThan(m, tail model.Message) bool {
	if m.ID != 0 && tail.ID != 0 {
		return m.ID > tail.ID
	}
	return m.CreatedAt.After(tail.CreatedAt.Time)
}

func containsMessage(msgs []model.Message, id int64) bool {
	if id == 0 {
		return false
	}
	for _, m := range msgs {
		if m.ID == id {
			return true
		}
	}
	return false
}
