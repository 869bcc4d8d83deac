package handlers

import (
	"context"

	apperrors "github.com/asketd/simplex-exchange-bot/internal/errors"
	"github.com/asketd/simplex-exchange-bot/internal/exchange"
)

// Info serves the read-only market commands: rates, reserves, volume,
// and network status.
type Info struct {
	api    ExchangeAPI
	sender Sender
}

// NewInfo constructs the info handler.
func NewInfo(api ExchangeAPI, sender Sender) *Info {
	return &Info{api: api, sender: sender}
}

// Rates handles /rates.
func (h *Info) Rates(ctx context.Context, user string) error {
	rates, err := h.api.GetRates(ctx, "dynamic")
	if err != nil {
		return err
	}
	if len(rates) == 0 {
		return apperrors.NewExchangeAPIError("/api/rates", errNoData("rates"))
	}

	return h.sender.Send(ctx, user,
		"!2 Exchange Rates!\n\nCurrent Rates (Dynamic):\n"+exchange.FormatRates(rates))
}

// Reserves handles /reserves.
func (h *Info) Reserves(ctx context.Context, user string) error {
	reserves, err := h.api.GetReserves(ctx)
	if err != nil {
		return err
	}
	if len(reserves) == 0 {
		return apperrors.NewExchangeAPIError("/api/rates", errNoData("reserves"))
	}

	return h.sender.Send(ctx, user,
		"!2 Currency Reserves!\n\nAvailable Reserves:\n"+exchange.FormatReserves(reserves))
}

// Volume handles /volume.
func (h *Info) Volume(ctx context.Context, user string) error {
	volume, err := h.api.GetVolume(ctx)
	if err != nil {
		return err
	}

	return h.sender.Send(ctx, user,
		"!2 24-Hour Trading Volume!\n\nTrading Activity:\n"+exchange.FormatVolume(volume))
}

// Status handles /status.
func (h *Info) Status(ctx context.Context, user string) error {
	status, err := h.api.GetStatus(ctx)
	if err != nil {
		return err
	}

	return h.sender.Send(ctx, user,
		"!2 Network Status!\n\nCurrent Network Conditions:\n"+exchange.FormatStatus(status))
}

type errNoData string

func (e errNoData) Error() string { return "no " + string(e) + " data received from API" }
