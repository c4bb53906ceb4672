package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/erazemk/auberge/internal/apiclient"
	"github.com/erazemk/auberge/internal/model"
	"github.com/erazemk/auberge/internal/poller"
)

// Lister lists conversations.
type Lister interface {
	ListConversations(ctx context.Context, opts apiclient.ListOptions) ([]model.Conversation, error)
}

// Alert reports a conversation that received new customer messages.
type Alert struct {
	Conversation model.Conversation
	New          int
}

// Monitor polls the conversation list with a service account and reports
// conversations whose admin unread counter grew since the previous poll.
type Monitor struct {
	lister  Lister
	onAlert func(ctx context.Context, alerts []Alert)
	poller  *poller.Poller

	mu     sync.Mutex
	seeded bool
	unread map[int64]int
}

// NewMonitor creates a monitor polling every interval.
func NewMonitor(lister Lister, interval time.Duration, onAlert func(ctx context.Context, alerts []Alert)) *Monitor {
	m := &Monitor{
		lister:  lister,
		onAlert: onAlert,
		unread:  map[int64]int{},
	}
	m.poller = poller.New(interval, m.Check).WithName("chat.monitor")
	return m
}

// Start begins polling.
func (m *Monitor) Start(ctx context.Context) {
	m.poller.Start(ctx)
}

// Stop stops polling and waits for an in-flight check.
func (m *Monitor) Stop() {
	m.poller.Stop()
}

// Check runs one poll. The first successful poll only records the counters.
func (m *Monitor) Check(ctx context.Context) error {
	convs, err := m.lister.ListConversations(ctx, apiclient.ListOptions{Status: model.ConversationActive})
	if err != nil {
		return fmt.Errorf("monitor: listing conversations: %w", err)
	}

	m.mu.Lock()
	var alerts []Alert
	next := make(map[int64]int, len(convs))
	for _, c := range convs {
		next[c.ID] = c.UnreadAdmin
		if m.seeded && c.UnreadAdmin > m.unread[c.ID] {
			alerts = append(alerts, Alert{Conversation: c, New: c.UnreadAdmin - m.unread[c.ID]})
		}
	}
	m.unread = next
	m.seeded = true
	m.mu.Unlock()

	if len(alerts) > 0 && m.onAlert != nil {
		m.onAlert(ctx, alerts)
	}
	return nil
}
