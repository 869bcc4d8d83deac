package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/asketd/simplex-exchange-bot/internal/errors"
	"github.com/asketd/simplex-exchange-bot/internal/exchange"
	"github.com/asketd/simplex-exchange-bot/internal/session"
	"github.com/asketd/simplex-exchange-bot/pkg/config"
)

// Exchange drives the two-step exchange flow: /exchange presents a
// flat/dynamic quote comparison and stores pending parameters; the
// mode reply creates the order and hands it to the tracker.
type Exchange struct {
	api        ExchangeAPI
	sender     Sender
	sessions   SessionStore
	tracker    OrderTracker
	qr         QRGenerator
	currencies *Currencies
	cfg        config.BotConfig
	log        *slog.Logger
}

// NewExchange constructs the exchange flow handler.
func NewExchange(
	api ExchangeAPI,
	sender Sender,
	sessions SessionStore,
	tracker OrderTracker,
	qr QRGenerator,
	currencies *Currencies,
	cfg config.BotConfig,
	log *slog.Logger,
) *Exchange {
	if log == nil {
		log = slog.Default()
	}

	return &Exchange{
		api:        api,
		sender:     sender,
		sessions:   sessions,
		tracker:    tracker,
		qr:         qr,
		currencies: currencies,
		cfg:        cfg,
		log:        log,
	}
}

// Start handles /exchange <from> <to> <address>: validates input,
// fetches both rate modes, and stores the pending exchange. No order
// is created at this step.
func (h *Exchange) Start(ctx context.Context, user string, args []string) error {
	if len(args) != 3 {
		return apperrors.NewValidationError(fmt.Sprintf(
			"Invalid Format!\nUse: !2 /exchange <from> <to> <address>!\nExample: /exchange BTC ETH 0x123...\nAvailable Currencies: %s",
			h.currencies.List()))
	}

	fromCurrency := strings.ToUpper(args[0])
	toCurrency := strings.ToUpper(args[1])
	toAddress := strings.TrimSpace(args[2])

	if !h.currencies.Contains(fromCurrency) {
		return apperrors.NewValidationError(fmt.Sprintf(
			"Invalid From Currency: %s!\nAvailable Currencies: %s", fromCurrency, h.currencies.List()))
	}
	if !h.currencies.Contains(toCurrency) {
		return apperrors.NewValidationError(fmt.Sprintf(
			"Invalid To Currency: %s!\nAvailable Currencies: %s", toCurrency, h.currencies.List()))
	}
	if !exchange.ValidateAddress(toCurrency, toAddress) {
		return apperrors.NewValidationError(fmt.Sprintf("Invalid Address Format for %s!", toCurrency))
	}

	if exchange.IsERC20(toCurrency) {
		if err := h.sender.Send(ctx, user,
			"!1 ⚠️ Please note:! For !3 USDT/USDC/DAI!, we only use the !4 ERC-20 network.!"); err != nil {
			return err
		}
	}

	flatInfo, err := h.api.GetPairInfo(ctx, fromCurrency, toCurrency, "flat")
	if err != nil {
		return err
	}
	dynamicInfo, err := h.api.GetPairInfo(ctx, fromCurrency, toCurrency, "dynamic")
	if err != nil {
		return err
	}

	comparison := fmt.Sprintf(
		"!2 Select Exchange Mode!\nPair: %s → %s\n\n"+
			"Flat Mode:\nRate: 1 %s = %.8f %s\nService Fee: %.2f%%\n\n"+
			"Dynamic Mode:\nRate: 1 %s = %.8f %s\nService Fee: %.2f%%\n\n"+
			"Currency Reserve: %.2f %s\n\n"+
			"Reply with \"flat\" or \"dynamic\" to proceed.",
		fromCurrency, toCurrency,
		fromCurrency, flatInfo.Rate, toCurrency, flatInfo.Fee,
		fromCurrency, dynamicInfo.Rate, toCurrency, dynamicInfo.Fee,
		flatInfo.Reserve, toCurrency)

	if err := h.sender.Send(ctx, user, comparison); err != nil {
		return err
	}

	h.sessions.SetPending(user, session.PendingExchange{
		FromCurrency: fromCurrency,
		ToCurrency:   toCurrency,
		ToAddress:    toAddress,
	})
	return nil
}

// HandleModeSelection consumes the user's flat/dynamic reply. An
// invalid reply leaves the pending state intact so the user may retry;
// a valid reply always clears it on exit, success or failure.
func (h *Exchange) HandleModeSelection(ctx context.Context, user, mode string) error {
	pending, ok := h.sessions.GetPending(user)
	if !ok {
		return apperrors.NewStateError(
			"No Pending Exchange!\nUse !2 /exchange <from> <to> <address>! to start.")
	}

	if mode != "flat" && mode != "dynamic" {
		return apperrors.NewValidationError("Invalid Mode!\nPlease reply with 'flat' or 'dynamic'.")
	}

	defer h.sessions.ClearPending(user)

	return h.createOrder(ctx, user, pending, mode)
}

func (h *Exchange) createOrder(ctx context.Context, user string, pending session.PendingExchange, mode string) error {
	feeOption := "d"
	if mode == "flat" {
		feeOption = "f"
	}

	result, err := h.api.CreateOrder(ctx, pending.FromCurrency, pending.ToCurrency, pending.ToAddress,
		h.cfg.CreateAmount, exchange.CreateOptions{RateMode: mode, FeeOption: feeOption})
	if err != nil {
		if strings.Contains(apperrors.RejectionReason(err), exchange.StateErrorAddressInvalid) {
			return apperrors.NewValidationError(
				"Invalid Address!\nUse !2 /revalidate_address <order_id> <new_address>! to update.")
		}
		return err
	}
	orderID := result.OrderID

	if !h.sessions.TryReserve(orderID) {
		return h.sender.Send(ctx, user,
			fmt.Sprintf("!1 ⚠️ Order %s is already being processed!", orderID))
	}
	defer h.sessions.Release(orderID)

	snapshot := h.awaitDepositDetails(ctx, orderID)

	confirmation := fmt.Sprintf(
		"!2 Exchange Created Successfully!\n"+
			"Order ID: `%s`\n"+
			"Pair: %s → %s\n"+
			"Mode: %s\n"+
			"Rate: 1 %s = %.8f %s\n"+
			"Service Fee: %.2f%%\n"+
			"!3 SEND ANY AMOUNT IN THIS RANGE!\n"+
			"Min: %s %s\n"+
			"Max: %s %s\n"+
			"Recipient Address: `%s`\n"+
			"Link: %s\n"+
			"Tor Link: %s\n"+
			"_Deposit address will be generated in 5-15 seconds._",
		orderID,
		pending.FromCurrency, pending.ToCurrency,
		mode,
		pending.FromCurrency, snapshotRate(snapshot), pending.ToCurrency,
		snapshotFee(snapshot),
		snapshotField(snapshot, func(s *exchange.OrderSnapshot) string { return s.MinInput }), pending.FromCurrency,
		snapshotField(snapshot, func(s *exchange.OrderSnapshot) string { return s.MaxInput }), pending.FromCurrency,
		pending.ToAddress,
		exchange.OrderLink(orderID),
		exchange.OrderOnionLink(orderID))

	if err := h.sender.Send(ctx, user, confirmation); err != nil {
		return err
	}

	if snapshot != nil && snapshot.StateError == exchange.StateErrorAddressInvalid {
		if err := h.sender.Send(ctx, user, fmt.Sprintf(
			"!1 ⚠️ The recipient address failed validation!\nUse !2 /revalidate_address %s <new_address>! to update it.",
			orderID)); err != nil {
			return err
		}
	}

	// Backend address generation lags order creation; give it a fixed
	// grace period before pushing the address proactively.
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(h.cfg.AddressGrace):
	}

	h.sendDepositAddress(ctx, user, orderID)
	h.tracker.Add(user, orderID)
	return nil
}

// awaitDepositDetails polls order status until the deposit address and
// both input bounds are populated or attempts exhaust, returning
// whatever was last observed (possibly nil).
func (h *Exchange) awaitDepositDetails(ctx context.Context, orderID string) *exchange.OrderSnapshot {
	var last *exchange.OrderSnapshot

	for attempt := 0; attempt < h.cfg.ReadyAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return last
			case <-time.After(h.cfg.ReadyDelay):
			}
		}

		snapshot, err := h.api.OrderStatus(ctx, orderID)
		if err != nil {
			h.log.Warn("order status unavailable during creation",
				slog.String("order_id", orderID), slog.Any("error", err))
			continue
		}

		last = snapshot
		if snapshot.DepositReady() {
			return snapshot
		}
	}

	return last
}

// sendDepositAddress pushes the deposit address, its QR image, and the
// guarantee-letter links. If the address is still generating, the user
// is told to check manually instead of retrying indefinitely.
func (h *Exchange) sendDepositAddress(ctx context.Context, user, orderID string) {
	snapshot, err := h.api.OrderStatus(ctx, orderID)
	if err != nil {
		h.sendOrLog(ctx, user, fmt.Sprintf(
			"!1 ⚠️ Error Fetching Address: %v!\nContact support@exch.cx", err))
		return
	}

	if !snapshot.HasDepositAddress() {
		h.sendOrLog(ctx, user, fmt.Sprintf(
			"Deposit Address is Generating...\nCheck status with !2 /order %s!", orderID))
		return
	}

	h.sendOrLog(ctx, user, fmt.Sprintf("!2 Deposit Address!\n%s", snapshot.FromAddr))

	qrPath, err := h.qr.Generate(snapshot.FromAddr, orderID)
	if err != nil {
		h.sendOrLog(ctx, user, fmt.Sprintf(
			"!1 ⚠️ Error Generating QR: %v!\nContact support@exch.cx", err))
	} else {
		if err := h.sender.SendImage(ctx, user, qrPath); err != nil {
			h.log.Error("failed to send qr image",
				slog.String("user", user), slog.Any("error", err))
		}
		h.qr.ScheduleCleanup(qrPath, time.Minute)
	}

	h.sendOrLog(ctx, user, fmt.Sprintf(
		"!2 Guarantee Letter Downloads!\nLink: %s\nTor Link: %s",
		exchange.GuaranteeLink(orderID), exchange.GuaranteeOnionLink(orderID)))
}

func (h *Exchange) sendOrLog(ctx context.Context, user, text string) {
	if err := h.sender.Send(ctx, user, text); err != nil {
		h.log.Error("failed to send message", slog.String("user", user), slog.Any("error", err))
	}
}

func snapshotRate(s *exchange.OrderSnapshot) float64 {
	if s == nil {
		return 0
	}
	return parseFloat(s.Rate)
}

func snapshotFee(s *exchange.OrderSnapshot) float64 {
	if s == nil {
		return 0
	}
	return parseFloat(s.SvcFee)
}

func snapshotField(s *exchange.OrderSnapshot, pick func(*exchange.OrderSnapshot) string) string {
	if s == nil {
		return "Not available yet"
	}
	if v := pick(s); v != "" {
		return v
	}
	return "Not available yet"
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}
