package tracker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asketd/simplex-exchange-bot/internal/exchange"
)

type fakeFetcher struct {
	mu        sync.Mutex
	snapshots []*exchange.OrderSnapshot
	err       error
	calls     int
}

func (f *fakeFetcher) OrderStatus(_ context.Context, _ string) (*exchange.OrderSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}

	idx := f.calls
	if idx >= len(f.snapshots) {
		idx = len(f.snapshots) - 1
	}
	f.calls++
	return f.snapshots[idx], nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *fakeNotifier) Send(_ context.Context, _, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, text)
	return nil
}

func (n *fakeNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestTracker(fetcher StatusFetcher, notifier Notifier) *Tracker {
	return New(fetcher, notifier, testLogger(), time.Second, 30*time.Minute)
}

func snapshot(state exchange.OrderState) *exchange.OrderSnapshot {
	return &exchange.OrderSnapshot{
		OrderID:      "ord1",
		State:        state,
		FromCurrency: "BTC",
		ToCurrency:   "ETH",
	}
}

func TestTracker_EdgeTriggeredNotifications(t *testing.T) {
	received := snapshot(exchange.StateConfirmingInput)
	received.FromAmountReceived = "0.5"

	sent := snapshot(exchange.StateConfirmingSend)
	sent.FromAmountReceived = "0.5"
	sent.ToAmount = "7.2"

	// Two consecutive polls per state must notify once per transition.
	fetcher := &fakeFetcher{snapshots: []*exchange.OrderSnapshot{
		received, received, sent, sent,
	}}
	notifier := &fakeNotifier{}
	tr := newTestTracker(fetcher, notifier)
	tr.Add("alice", "ord1")

	for i := 0; i < 4; i++ {
		tr.sweep(context.Background())
	}

	messages := notifier.all()
	require.Len(t, messages, 2)
	assert.Contains(t, messages[0], "Transaction Detected")
	assert.Contains(t, messages[0], "0.5 BTC")
	assert.Contains(t, messages[1], "Funds Sent")
	assert.Contains(t, messages[1], "7.2 ETH")
	assert.True(t, tr.Tracking("alice"))
}

func TestTracker_CompleteEvictsOnlyWithTransactionID(t *testing.T) {
	complete := snapshot(exchange.StateComplete)
	complete.ToAmount = "7.2"

	fetcher := &fakeFetcher{snapshots: []*exchange.OrderSnapshot{complete}}
	notifier := &fakeNotifier{}
	tr := newTestTracker(fetcher, notifier)
	tr.Add("alice", "ord1")

	tr.sweep(context.Background())
	assert.Empty(t, notifier.all())
	assert.True(t, tr.Tracking("alice"))

	withTx := snapshot(exchange.StateComplete)
	withTx.ToAmount = "7.2"
	withTx.TransactionIDSent = "0xfeed"
	fetcher.mu.Lock()
	fetcher.snapshots = []*exchange.OrderSnapshot{withTx}
	fetcher.mu.Unlock()

	// State did not change since last sweep, so force a fresh baseline.
	tr.Remove("alice")
	tr.Add("alice", "ord1")
	tr.sweep(context.Background())

	messages := notifier.all()
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0], "Completed")
	assert.Contains(t, messages[0], "0xfeed")
	assert.False(t, tr.Tracking("alice"))
}

func TestTracker_TerminalStatesEvict(t *testing.T) {
	for _, state := range []exchange.OrderState{exchange.StateCancelled, exchange.StateRefunded} {
		fetcher := &fakeFetcher{snapshots: []*exchange.OrderSnapshot{snapshot(state)}}
		notifier := &fakeNotifier{}
		tr := newTestTracker(fetcher, notifier)
		tr.Add("alice", "ord1")

		tr.sweep(context.Background())

		messages := notifier.all()
		require.Len(t, messages, 1, "state %s", state)
		assert.Contains(t, messages[0], string(state))
		assert.False(t, tr.Tracking("alice"))
	}
}

func TestTracker_StallEviction(t *testing.T) {
	waiting := snapshot(exchange.StateAwaitingInput)

	fetcher := &fakeFetcher{snapshots: []*exchange.OrderSnapshot{waiting}}
	notifier := &fakeNotifier{}
	tr := newTestTracker(fetcher, notifier)

	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return clock }
	tr.Add("alice", "ord1")

	clock = clock.Add(29 * time.Minute)
	tr.sweep(context.Background())
	assert.True(t, tr.Tracking("alice"))

	clock = clock.Add(time.Minute)
	tr.sweep(context.Background())

	messages := notifier.all()
	require.NotEmpty(t, messages)
	assert.Contains(t, messages[len(messages)-1], "Removed from Tracking")
	assert.Contains(t, messages[len(messages)-1], "30 minutes")
	assert.False(t, tr.Tracking("alice"))
}

func TestTracker_NoStallEvictionWithFundsReceived(t *testing.T) {
	waiting := snapshot(exchange.StateAwaitingInput)
	waiting.FromAmountReceived = "0.1"

	fetcher := &fakeFetcher{snapshots: []*exchange.OrderSnapshot{waiting}}
	notifier := &fakeNotifier{}
	tr := newTestTracker(fetcher, notifier)

	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return clock }
	tr.Add("alice", "ord1")

	clock = clock.Add(2 * time.Hour)
	tr.sweep(context.Background())

	assert.True(t, tr.Tracking("alice"))
}

func TestTracker_PollErrorNotifiesAndKeepsTracking(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("connection refused")}
	notifier := &fakeNotifier{}
	tr := newTestTracker(fetcher, notifier)
	tr.Add("alice", "ord1")

	tr.sweep(context.Background())

	messages := notifier.all()
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0], "Error Tracking Order ord1")
	assert.True(t, tr.Tracking("alice"))
}

func TestTracker_OpaqueStateChangesBaselineSilently(t *testing.T) {
	odd := snapshot(exchange.OrderState("EXCHANGING"))

	fetcher := &fakeFetcher{snapshots: []*exchange.OrderSnapshot{odd, odd}}
	notifier := &fakeNotifier{}
	tr := newTestTracker(fetcher, notifier)
	tr.Add("alice", "ord1")

	tr.sweep(context.Background())
	tr.sweep(context.Background())

	assert.Empty(t, notifier.all())
	assert.True(t, tr.Tracking("alice"))
}

func TestTracker_AddReplacesPreviousOrder(t *testing.T) {
	fetcher := &fakeFetcher{snapshots: []*exchange.OrderSnapshot{snapshot(exchange.StateCreated)}}
	tr := newTestTracker(fetcher, &fakeNotifier{})

	tr.Add("alice", "ord1")
	tr.Add("alice", "ord2")

	tr.mu.Lock()
	defer tr.mu.Unlock()
	assert.Equal(t, "ord2", tr.orders["alice"].orderID)
}
