package handlers

import (
	"context"
	"fmt"
	"log/slog"

	apperrors "github.com/asketd/simplex-exchange-bot/internal/errors"
	"github.com/asketd/simplex-exchange-bot/internal/exchange"
)

// Order serves the order-management commands: status lookup, guarantee
// letters, address revalidation and order removal.
type Order struct {
	api    ExchangeAPI
	sender Sender
	log    *slog.Logger
}

// NewOrder constructs the order handler.
func NewOrder(api ExchangeAPI, sender Sender, log *slog.Logger) *Order {
	if log == nil {
		log = slog.Default()
	}
	return &Order{api: api, sender: sender, log: log}
}

// Status handles /order <order_id>.
func (h *Order) Status(ctx context.Context, user string, args []string) error {
	if len(args) != 1 {
		return apperrors.NewValidationError("Invalid Format!\nUse: !2 /order <order_id>!")
	}
	orderID := args[0]

	snapshot, err := h.api.OrderStatus(ctx, orderID)
	if err != nil {
		return err
	}

	return h.sender.Send(ctx, user, "!2 Order Status!\n\n"+exchange.FormatOrderStatus(snapshot))
}

// FetchGuarantee handles /fetch_guarantee <order_id>. The letter itself
// is served over HTTP; the bot verifies it exists and replies with the
// download links.
func (h *Order) FetchGuarantee(ctx context.Context, user string, args []string) error {
	if len(args) != 1 {
		return apperrors.NewValidationError("Invalid Format!\nUse: !2 /fetch_guarantee <order_id>!")
	}
	orderID := args[0]

	letter, err := h.api.FetchGuarantee(ctx, orderID)
	if err != nil {
		return err
	}
	if len(letter) == 0 {
		return apperrors.NewStateError(fmt.Sprintf(
			"Letter of Guarantee Not Ready for Order %s!\nTry again once the order is confirmed.", orderID))
	}

	return h.sender.Send(ctx, user, fmt.Sprintf(
		"!2 Letter of Guarantee!\nOrder ID: `%s`\nLink: %s\nTor Link: %s",
		orderID, exchange.GuaranteeLink(orderID), exchange.GuaranteeOnionLink(orderID)))
}

// RevalidateAddress handles /revalidate_address <order_id> <to_address>
// and follows up with the refreshed order status.
func (h *Order) RevalidateAddress(ctx context.Context, user string, args []string) error {
	if len(args) != 2 {
		return apperrors.NewValidationError(
			"Invalid Format!\nUse: !2 /revalidate_address <order_id> <to_address>!")
	}
	orderID, toAddress := args[0], args[1]

	if err := h.api.RevalidateAddress(ctx, orderID, toAddress); err != nil {
		return err
	}

	if err := h.sender.Send(ctx, user, fmt.Sprintf(
		"!2 Address Updated for Order %s!\nNew Recipient Address: `%s`", orderID, toAddress)); err != nil {
		return err
	}

	snapshot, err := h.api.OrderStatus(ctx, orderID)
	if err != nil {
		h.log.Warn("status refresh after revalidation failed",
			slog.String("order_id", orderID), slog.Any("error", err))
		return nil
	}

	return h.sender.Send(ctx, user, "!2 Order Status!\n\n"+exchange.FormatOrderStatus(snapshot))
}

// Remove handles /remove_order <order_id>.
func (h *Order) Remove(ctx context.Context, user string, args []string) error {
	if len(args) != 1 {
		return apperrors.NewValidationError("Invalid Format!\nUse: !2 /remove_order <order_id>!")
	}
	orderID := args[0]

	if err := h.api.RemoveOrder(ctx, orderID); err != nil {
		return err
	}

	return h.sender.Send(ctx, user, fmt.Sprintf(
		"!2 Order %s Removed!\nAll order data has been deleted from the exchange.", orderID))
}
