package chat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitorReportsGrowth(t *testing.T) {
	f := newFakeBackend()
	var alerts []Alert
	m := NewMonitor(f, time.Hour, func(ctx context.Context, a []Alert) {
		alerts = append(alerts, a...)
	})
	ctx := context.Background()

	require.NoError(t, m.Check(ctx))
	assert.Empty(t, alerts, "first poll only seeds counters")

	f.mu.Lock()
	f.conversations[0].UnreadAdmin = 5
	f.mu.Unlock()
	require.NoError(t, m.Check(ctx))
	require.Len(t, alerts, 1)
	assert.Equal(t, int64(1), alerts[0].Conversation.ID)
	assert.Equal(t, 3, alerts[0].New)

	require.NoError(t, m.Check(ctx))
	assert.Len(t, alerts, 1, "unchanged counters raise nothing")
}

func TestMonitorIgnoresClosedConversations(t *testing.T) {
	f := newFakeBackend()
	var n int
	m := NewMonitor(f, time.Hour, func(ctx context.Context, a []Alert) { n += len(a) })
	require.NoError(t, m.Check(context.Background()))

	f.mu.Lock()
	f.conversations[1].UnreadAdmin = 4
	f.mu.Unlock()
	require.NoError(t, m.Check(context.Background()))
	assert.Zero(t, n)
}
