// Package tracker polls active orders and narrates their lifecycle to
// users: one notification per observed state transition, eviction on
// completion, terminal failure, or stall timeout.
package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/asketd/simplex-exchange-bot/internal/exchange"
	"github.com/asketd/simplex-exchange-bot/pkg/metrics"
)

// StatusFetcher is the external order-status source.
type StatusFetcher interface {
	OrderStatus(ctx context.Context, orderID string) (*exchange.OrderSnapshot, error)
}

// Notifier delivers tracker messages to users.
type Notifier interface {
	Send(ctx context.Context, userID, text string) error
}

// trackedOrder is the tracker's record for one user's active order.
// lastState changes only inside the sweep, which is what makes the
// notifications edge-triggered.
type trackedOrder struct {
	orderID   string
	startedAt time.Time
	lastState exchange.OrderState
}

// Tracker owns the tracked-order map and the periodic polling sweep.
// One tracked order per user at a time.
type Tracker struct {
	mu     sync.Mutex
	orders map[string]*trackedOrder

	fetcher    StatusFetcher
	notifier   Notifier
	log        *slog.Logger
	interval   time.Duration
	stallAfter time.Duration

	now func() time.Time
}

// New constructs a Tracker. Run must be started separately.
func New(fetcher StatusFetcher, notifier Notifier, log *slog.Logger, interval, stallAfter time.Duration) *Tracker {
	if log == nil {
		log = slog.Default()
	}

	return &Tracker{
		orders:     make(map[string]*trackedOrder),
		fetcher:    fetcher,
		notifier:   notifier,
		log:        log,
		interval:   interval,
		stallAfter: stallAfter,
		now:        time.Now,
	}
}

// Add starts tracking an order for the user, replacing any previous one.
func (t *Tracker) Add(userID, orderID string) {
	t.mu.Lock()
	t.orders[userID] = &trackedOrder{
		orderID:   orderID,
		startedAt: t.now(),
		lastState: exchange.StateCreated,
	}
	count := len(t.orders)
	t.mu.Unlock()

	metrics.SetTrackedOrders(count)
	t.log.Info("started tracking order", slog.String("order_id", orderID), slog.String("user", userID))
}

// Remove stops tracking the user's order, if any.
func (t *Tracker) Remove(userID string) {
	t.mu.Lock()
	order, ok := t.orders[userID]
	if ok {
		delete(t.orders, userID)
	}
	count := len(t.orders)
	t.mu.Unlock()

	metrics.SetTrackedOrders(count)
	if ok {
		t.log.Info("stopped tracking order", slog.String("order_id", order.orderID), slog.String("user", userID))
	}
}

// Tracking reports whether the user currently has a tracked order.
func (t *Tracker) Tracking(userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.orders[userID]
	return ok
}

// Run drives one sweep per interval until ctx is cancelled. The loop
// itself never fails; per-order errors are reported and skipped.
func (t *Tracker) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			t.sweep(ctx)
		}
	}
}

type sweepEntry struct {
	userID    string
	orderID   string
	startedAt time.Time
	lastState exchange.OrderState
}

// sweep polls every tracked order once, sequentially. A failure on one
// order never interrupts the rest of the sweep.
func (t *Tracker) sweep(ctx context.Context) {
	metrics.RecordTrackerSweep()

	t.mu.Lock()
	entries := make([]sweepEntry, 0, len(t.orders))
	for userID, order := range t.orders {
		entries = append(entries, sweepEntry{
			userID:    userID,
			orderID:   order.orderID,
			startedAt: order.startedAt,
			lastState: order.lastState,
		})
	}
	t.mu.Unlock()

	for _, entry := range entries {
		t.pollOrder(ctx, entry)
	}
}

func (t *Tracker) pollOrder(ctx context.Context, entry sweepEntry) {
	snapshot, err := t.fetcher.OrderStatus(ctx, entry.orderID)
	if err != nil {
		t.log.Error("order status poll failed",
			slog.String("order_id", entry.orderID),
			slog.String("user", entry.userID),
			slog.Any("error", err))
		t.send(ctx, entry.userID, fmt.Sprintf(
			"!1 ⚠️ Error Tracking Order %s: %v!\nPlease check the order status manually with !2 /order %s!",
			entry.orderID, err, entry.orderID))
		return
	}

	// Stall eviction runs before, and supersedes, the transition check.
	elapsed := t.now().Sub(entry.startedAt)
	if elapsed >= t.stallAfter && snapshot.State == exchange.StateAwaitingInput && snapshot.FromAmountReceived == "" {
		t.send(ctx, entry.userID, fmt.Sprintf(
			"!1 ⚠️ Order %s Removed from Tracking!\nNo funds received within %d minutes.",
			entry.orderID, int(t.stallAfter.Minutes())))
		metrics.RecordTrackerNotification("stall_evicted")
		t.Remove(entry.userID)
		return
	}

	if snapshot.State == entry.lastState {
		return
	}
	t.recordState(entry.userID, entry.orderID, snapshot.State)

	switch {
	case snapshot.State == exchange.StateConfirmingInput && snapshot.FromAmountReceived != "":
		t.send(ctx, entry.userID, fmt.Sprintf(
			"!2 ✅ Order %s - Transaction Detected!\nWe have detected your transaction of %s %s. Awaiting network confirmation.",
			entry.orderID, snapshot.FromAmountReceived, snapshot.FromCurrency))
		metrics.RecordTrackerNotification("input_detected")

	case snapshot.State == exchange.StateConfirmingSend && snapshot.ToAmount != "":
		t.send(ctx, entry.userID, fmt.Sprintf(
			"!2 🚀 Order %s - Transaction Confirmed & Funds Sent!\nThe transaction has been confirmed. We are sending you %s %s. Awaiting final confirmation.",
			entry.orderID, snapshot.ToAmount, snapshot.ToCurrency))
		metrics.RecordTrackerNotification("funds_sent")

	case snapshot.State == exchange.StateComplete && snapshot.TransactionIDSent != "":
		t.send(ctx, entry.userID, fmt.Sprintf(
			"!2 🎉 Order %s - Transaction Completed!\nYou have received %s %s! Transaction ID: %s.",
			entry.orderID, snapshot.ToAmount, snapshot.ToCurrency, snapshot.TransactionIDSent))
		metrics.RecordTrackerNotification("completed")
		t.Remove(entry.userID)

	case snapshot.State == exchange.StateCancelled || snapshot.State == exchange.StateRefunded:
		t.send(ctx, entry.userID, fmt.Sprintf(
			"!1 ⚠️ Order %s %s!\nThe order has been %s.",
			entry.orderID, snapshot.State, strings.ToLower(string(snapshot.State))))
		metrics.RecordTrackerNotification("terminal")
		t.Remove(entry.userID)

	default:
		// Opaque pass-through state: new baseline, no user notification.
		t.log.Debug("order state changed",
			slog.String("order_id", entry.orderID),
			slog.String("user", entry.userID),
			slog.String("state", string(snapshot.State)))
	}
}

// recordState advances lastState, provided the order is still tracked.
func (t *Tracker) recordState(userID, orderID string, state exchange.OrderState) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if order, ok := t.orders[userID]; ok && order.orderID == orderID {
		order.lastState = state
	}
}

func (t *Tracker) send(ctx context.Context, userID, text string) {
	if err := t.notifier.Send(ctx, userID, text); err != nil {
		t.log.Error("failed to deliver tracker notification",
			slog.String("user", userID), slog.Any("error", err))
	}
}
