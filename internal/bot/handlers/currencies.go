package handlers

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/asketd/simplex-exchange-bot/internal/exchange"
)

// Currencies is the whitelist of exchangeable currencies. It starts
// from the static default list and is refreshed once at startup from
// the live rate table; a failed refresh keeps the defaults.
type Currencies struct {
	mu   sync.RWMutex
	list []string
}

// NewCurrencies returns a whitelist seeded with the static defaults.
func NewCurrencies() *Currencies {
	return &Currencies{list: exchange.DefaultCurrencies()}
}

// Refresh replaces the whitelist with the currencies present in the
// dynamic rate table. Failure is logged and leaves the list untouched.
func (c *Currencies) Refresh(ctx context.Context, api ExchangeAPI, log *slog.Logger) {
	if log == nil {
		log = slog.Default()
	}

	rates, err := api.GetRates(ctx, "dynamic")
	if err != nil {
		log.Warn("failed to refresh currency whitelist, keeping defaults",
			slog.Any("error", err))
		return
	}

	currencies := exchange.ExtractCurrencies(rates)
	if len(currencies) == 0 {
		log.Warn("rate table yielded no currencies, keeping defaults")
		return
	}

	c.mu.Lock()
	c.list = currencies
	c.mu.Unlock()

	log.Info("currency whitelist refreshed", slog.Any("currencies", currencies))
}

// Contains reports whether the currency code is exchangeable.
func (c *Currencies) Contains(code string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, currency := range c.list {
		if currency == code {
			return true
		}
	}
	return false
}

// List returns the whitelist joined for user-facing messages.
func (c *Currencies) List() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return strings.Join(c.list, ", ")
}
