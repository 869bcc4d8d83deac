package handlers

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/asketd/simplex-exchange-bot/internal/errors"
	"github.com/asketd/simplex-exchange-bot/internal/exchange"
)

// Support serves the per-order support chat commands.
type Support struct {
	api    ExchangeAPI
	sender Sender
}

// NewSupport constructs the support handler.
func NewSupport(api ExchangeAPI, sender Sender) *Support {
	return &Support{api: api, sender: sender}
}

// Send handles /support_message <order_id> <message...>. Everything
// after the order ID is the message body.
func (h *Support) Send(ctx context.Context, user string, args []string) error {
	if len(args) < 2 {
		return apperrors.NewValidationError(
			"Invalid Format!\nUse: !2 /support_message <order_id> <message>!")
	}
	orderID := args[0]
	message := strings.Join(args[1:], " ")

	if err := h.api.SendSupportMessage(ctx, orderID, message); err != nil {
		return err
	}

	return h.sender.Send(ctx, user, fmt.Sprintf(
		"!2 Support Message Sent for Order %s!\nCheck replies with !2 /support_messages %s!",
		orderID, orderID))
}

// History handles /support_messages <order_id>.
func (h *Support) History(ctx context.Context, user string, args []string) error {
	if len(args) != 1 {
		return apperrors.NewValidationError(
			"Invalid Format!\nUse: !2 /support_messages <order_id>!")
	}
	orderID := args[0]

	messages, err := h.api.GetSupportMessages(ctx, orderID)
	if err != nil {
		return err
	}

	return h.sender.Send(ctx, user, fmt.Sprintf(
		"!2 Support Messages for Order %s!\n\n%s",
		orderID, exchange.FormatSupportMessages(messages)))
}
