// Package handlers implements the bot's command handlers. Each handler
// makes one-shot calls to the exchange API and funnels outbound text
// through the shared Sender.
package handlers

import (
	"context"
	"time"

	"github.com/asketd/simplex-exchange-bot/internal/exchange"
	"github.com/asketd/simplex-exchange-bot/internal/session"
)

// Sender is the outbound side of the messenger transport.
type Sender interface {
	Send(ctx context.Context, user, text string) error
	SendImage(ctx context.Context, user, path string) error
}

// ExchangeAPI is the subset of the exchange client the handlers consume.
type ExchangeAPI interface {
	GetRates(ctx context.Context, rateMode string) (exchange.Rates, error)
	GetReserves(ctx context.Context) (map[string]float64, error)
	GetPairInfo(ctx context.Context, fromCurrency, toCurrency, rateMode string) (*exchange.PairInfo, error)
	GetVolume(ctx context.Context) (map[string]string, error)
	GetStatus(ctx context.Context) (map[string]exchange.NetworkStatus, error)
	CreateOrder(ctx context.Context, fromCurrency, toCurrency, toAddress string, amount float64, opts exchange.CreateOptions) (*exchange.CreateResult, error)
	OrderStatus(ctx context.Context, orderID string) (*exchange.OrderSnapshot, error)
	FetchGuarantee(ctx context.Context, orderID string) ([]byte, error)
	RequestRefund(ctx context.Context, orderID string) error
	ConfirmRefund(ctx context.Context, orderID, refundAddress string) error
	RevalidateAddress(ctx context.Context, orderID, toAddress string) error
	RemoveOrder(ctx context.Context, orderID string) error
	SendSupportMessage(ctx context.Context, orderID, message string) error
	GetSupportMessages(ctx context.Context, orderID string) ([]exchange.SupportMessage, error)
}

// OrderTracker registers created orders for lifecycle tracking.
type OrderTracker interface {
	Add(userID, orderID string)
}

// QRGenerator renders QR images for deposit addresses.
type QRGenerator interface {
	Generate(content, name string) (string, error)
	ScheduleCleanup(path string, after time.Duration)
}

// SessionStore is the pending-exchange and dedup-guard surface the
// exchange flow needs.
type SessionStore interface {
	SetPending(userID string, params session.PendingExchange)
	GetPending(userID string) (session.PendingExchange, bool)
	ClearPending(userID string)
	TryReserve(orderID string) bool
	Release(orderID string)
}
