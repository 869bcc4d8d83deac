package handlers

import (
	"context"
	"fmt"

	apperrors "github.com/asketd/simplex-exchange-bot/internal/errors"
)

// Refund serves the two-step refund flow: request, then confirm with a
// refund address.
type Refund struct {
	api    ExchangeAPI
	sender Sender
}

// NewRefund constructs the refund handler.
func NewRefund(api ExchangeAPI, sender Sender) *Refund {
	return &Refund{api: api, sender: sender}
}

// Request handles /refund <order_id>.
func (h *Refund) Request(ctx context.Context, user string, args []string) error {
	if len(args) != 1 {
		return apperrors.NewValidationError("Invalid Format!\nUse: !2 /refund <order_id>!")
	}
	orderID := args[0]

	if err := h.api.RequestRefund(ctx, orderID); err != nil {
		return err
	}

	return h.sender.Send(ctx, user, fmt.Sprintf(
		"!2 Refund Requested for Order %s!\n"+
			"Confirm with !2 /refund_confirm %s <refund_address>! to receive your funds.",
		orderID, orderID))
}

// Confirm handles /refund_confirm <order_id> <refund_address>.
func (h *Refund) Confirm(ctx context.Context, user string, args []string) error {
	if len(args) != 2 {
		return apperrors.NewValidationError(
			"Invalid Format!\nUse: !2 /refund_confirm <order_id> <refund_address>!")
	}
	orderID, refundAddress := args[0], args[1]

	if err := h.api.ConfirmRefund(ctx, orderID, refundAddress); err != nil {
		return err
	}

	return h.sender.Send(ctx, user, fmt.Sprintf(
		"!2 Refund Confirmed for Order %s!\nFunds will be returned to: `%s`",
		orderID, refundAddress))
}
