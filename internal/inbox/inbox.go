// Package inbox lists the messages left through the public contact form.
package inbox

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/erazemk/auberge/internal/filter"
	"github.com/erazemk/auberge/internal/loader"
	"github.com/erazemk/auberge/internal/model"
)

// Backend is the part of the API the inbox needs.
type Backend interface {
	ListContactMessages(ctx context.Context) ([]model.ContactMessage, error)
	MarkContactMessageRead(ctx context.Context, id int64) (model.ContactMessage, error)
}

// Inbox holds the loaded contact messages. It is safe for concurrent use.
type Inbox struct {
	backend Backend

	mu       sync.Mutex
	messages []model.ContactMessage
	loading  bool
}

// New creates an empty inbox.
func New(backend Backend) *Inbox {
	return &Inbox{backend: backend}
}

// Load replaces the message list.
func (in *Inbox) Load(ctx context.Context, mode loader.Mode) error {
	if mode == loader.Visible {
		in.setLoading(true)
		defer in.setLoading(false)
	}
	msgs, err := in.backend.ListContactMessages(ctx)
	if err != nil {
		return fmt.Errorf("loading contact messages: %w", err)
	}
	in.mu.Lock()
	in.messages = msgs
	in.mu.Unlock()
	return nil
}

func (in *Inbox) setLoading(v bool) {
	in.mu.Lock()
	in.loading = v
	in.mu.Unlock()
}

// Loading reports whether a visible load is in progress.
func (in *Inbox) Loading() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.loading
}

// Messages returns a copy of the list.
func (in *Inbox) Messages() []model.ContactMessage {
	in.mu.Lock()
	defer in.mu.Unlock()
	return slices.Clone(in.messages)
}

// Unread counts unread messages.
func (in *Inbox) Unread() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	n := 0
	for _, m := range in.messages {
		if !m.IsRead {
			n++
		}
	}
	return n
}

// MarkRead flags a message read on the backend and splices the result.
func (in *Inbox) MarkRead(ctx context.Context, id int64) (model.ContactMessage, error) {
	msg, err := in.backend.MarkContactMessageRead(ctx, id)
	if err != nil {
		return model.ContactMessage{}, fmt.Errorf("marking message %d read: %w", id, err)
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	for i := range in.messages {
		if in.messages[i].ID != id {
			continue
		}
		if msg.ID == 0 {
			msg = in.messages[i]
		}
		msg.IsRead = true
		in.messages[i] = msg
	}
	return msg, nil
}

// Filter matches sender and content. unreadOnly drops read messages.
func (in *Inbox) Filter(query string, unreadOnly bool) []model.ContactMessage {
	q := filter.Parse(query)
	in.mu.Lock()
	defer in.mu.Unlock()
	return filter.Apply(in.messages, func(m model.ContactMessage) bool {
		if unreadOnly && m.IsRead {
			return false
		}
		return q.Match(m.Name, m.Email, m.Subject, m.Body)
	})
}
