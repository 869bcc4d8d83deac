// Package bot routes inbound SimpleX events to command handlers. All
// per-user serialization, rate limiting, and error surfacing happens
// here so handlers stay single-purpose.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/asketd/simplex-exchange-bot/internal/bot/handlers"
	apperrors "github.com/asketd/simplex-exchange-bot/internal/errors"
	"github.com/asketd/simplex-exchange-bot/internal/ratelimit"
	"github.com/asketd/simplex-exchange-bot/internal/session"
	"github.com/asketd/simplex-exchange-bot/internal/transport/simplex"
	"github.com/asketd/simplex-exchange-bot/pkg/logger"
	"github.com/asketd/simplex-exchange-bot/pkg/metrics"
)

// Transport is the messenger surface the router needs.
type Transport interface {
	Send(ctx context.Context, user, text string) error
	SendImage(ctx context.Context, user, path string) error
	AcceptContact(ctx context.Context, user string) error
}

// Handlers bundles the command handlers the router dispatches to.
type Handlers struct {
	Help     *handlers.Help
	Info     *handlers.Info
	Exchange *handlers.Exchange
	Order    *handlers.Order
	Refund   *handlers.Refund
	Support  *handlers.Support
}

// Bot is the event router.
type Bot struct {
	transport  Transport
	handlers   Handlers
	sessions   *session.Store
	cooldown   *ratelimit.Cooldown
	errHandler *apperrors.Handler
	log        *slog.Logger

	knownMu sync.Mutex
	known   map[string]struct{}
}

// New constructs the router.
func New(
	transport Transport,
	h Handlers,
	sessions *session.Store,
	cooldown *ratelimit.Cooldown,
	errHandler *apperrors.Handler,
	log *slog.Logger,
) *Bot {
	if log == nil {
		log = slog.Default()
	}

	return &Bot{
		transport:  transport,
		handlers:   h,
		sessions:   sessions,
		cooldown:   cooldown,
		errHandler: errHandler,
		log:        log,
		known:      make(map[string]struct{}),
	}
}

// HandleEvent is the transport's event callback.
func (b *Bot) HandleEvent(ctx context.Context, event *simplex.Event) {
	switch event.Type {
	case simplex.EventContactRequest:
		b.handleContactRequest(ctx, event.Contact)

	case simplex.EventProfile:
		if event.InvitationLink != "" {
			b.log.Info("bot invitation link", slog.String("link", event.InvitationLink))
		}

	case simplex.EventSubscriptionEnd:
		b.log.Warn("event subscription ended, transport will reconnect")

	case simplex.EventMessage:
		b.handleMessage(ctx, event.Message)
	}
}

func (b *Bot) handleContactRequest(ctx context.Context, contact *simplex.ContactRequest) {
	if contact == nil {
		return
	}

	b.log.Info("accepting contact request",
		slog.String("contact", contact.DisplayName),
		slog.Int64("contact_id", contact.ContactID))

	if err := b.transport.AcceptContact(ctx, contact.DisplayName); err != nil {
		b.log.Error("failed to accept contact",
			slog.String("contact", contact.DisplayName), slog.Any("error", err))
		return
	}

	b.markKnown(contact.DisplayName)
	if err := b.handlers.Help.Execute(ctx, contact.DisplayName); err != nil {
		b.log.Error("failed to send greeting",
			slog.String("contact", contact.DisplayName), slog.Any("error", err))
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *simplex.InboundMessage) {
	if msg == nil || strings.TrimSpace(msg.Text) == "" {
		return
	}
	if IsSystemMessage(msg.Text) {
		b.log.Debug("ignoring system message", slog.String("text", msg.Text))
		return
	}

	// A message from a contact connected before this process started is
	// their first interaction as far as the bot knows; greet once, then
	// process the message normally.
	if b.markKnown(msg.SenderName) {
		if err := b.handlers.Help.Execute(ctx, msg.SenderName); err != nil {
			b.log.Error("failed to send greeting",
				slog.String("contact", msg.SenderName), slog.Any("error", err))
		}
	}

	b.processMessage(ctx, msg.SenderName, msg.Text)
}

// processMessage runs one inbound message through the full pipeline:
// per-user lock, cooldown, pending-exchange mode selection, then
// command dispatch.
func (b *Bot) processMessage(ctx context.Context, user, text string) {
	unlock := b.sessions.LockUser(user)
	defer unlock()

	ctx = logger.WithCorrelationID(ctx)

	defer func() {
		if r := recover(); r != nil {
			b.log.Error("panic in message handler",
				slog.String("user", user), slog.Any("panic", r))
			b.reply(ctx, user, "Something went wrong. Please try again later.")
		}
	}()

	if result := b.cooldown.Check(user); !result.Allowed {
		userMsg := b.errHandler.Handle(ctx, apperrors.NewRateLimitError(result.WaitSeconds))
		b.reply(ctx, user, userMsg)
		return
	}

	// A pending exchange captures the next reply, whatever it is, as the
	// mode selection. An invalid reply keeps the pending state so the
	// user may answer again.
	if _, pending := b.sessions.GetPending(user); pending {
		mode := strings.ToLower(strings.TrimSpace(text))
		b.dispatch(ctx, user, "mode_selection", func() error {
			return b.handlers.Exchange.HandleModeSelection(ctx, user, mode)
		})
		return
	}

	cmd := ParseCommand(text)
	switch cmd.Kind {
	case KindUnrecognized:
		b.reply(ctx, user, "Invalid Command Format!\nUse !2 /help! for a list of commands.")

	case KindUnknown:
		b.reply(ctx, user, "Unknown Command!\nUse !2 /help! for a list of commands.")

	case KindHelp:
		b.dispatch(ctx, user, cmd.Name, func() error {
			return b.handlers.Help.Execute(ctx, user)
		})

	case KindRates:
		b.dispatch(ctx, user, cmd.Name, func() error {
			return b.handlers.Info.Rates(ctx, user)
		})

	case KindReserves:
		b.dispatch(ctx, user, cmd.Name, func() error {
			return b.handlers.Info.Reserves(ctx, user)
		})

	case KindVolume:
		b.dispatch(ctx, user, cmd.Name, func() error {
			return b.handlers.Info.Volume(ctx, user)
		})

	case KindStatus:
		b.dispatch(ctx, user, cmd.Name, func() error {
			return b.handlers.Info.Status(ctx, user)
		})

	case KindExchange:
		b.dispatch(ctx, user, cmd.Name, func() error {
			return b.handlers.Exchange.Start(ctx, user, cmd.Args)
		})

	case KindOrder:
		b.dispatch(ctx, user, cmd.Name, func() error {
			return b.handlers.Order.Status(ctx, user, cmd.Args)
		})

	case KindFetchGuarantee:
		b.dispatch(ctx, user, cmd.Name, func() error {
			return b.handlers.Order.FetchGuarantee(ctx, user, cmd.Args)
		})

	case KindRevalidateAddress:
		b.dispatch(ctx, user, cmd.Name, func() error {
			return b.handlers.Order.RevalidateAddress(ctx, user, cmd.Args)
		})

	case KindRemoveOrder:
		b.dispatch(ctx, user, cmd.Name, func() error {
			return b.handlers.Order.Remove(ctx, user, cmd.Args)
		})

	case KindRefund:
		b.dispatch(ctx, user, cmd.Name, func() error {
			return b.handlers.Refund.Request(ctx, user, cmd.Args)
		})

	case KindRefundConfirm:
		b.dispatch(ctx, user, cmd.Name, func() error {
			return b.handlers.Refund.Confirm(ctx, user, cmd.Args)
		})

	case KindSupportMessage:
		b.dispatch(ctx, user, cmd.Name, func() error {
			return b.handlers.Support.Send(ctx, user, cmd.Args)
		})

	case KindSupportMessages:
		b.dispatch(ctx, user, cmd.Name, func() error {
			return b.handlers.Support.History(ctx, user, cmd.Args)
		})
	}
}

// dispatch runs one handler invocation, recording metrics and turning
// errors into a user-visible reply.
func (b *Bot) dispatch(ctx context.Context, user, name string, fn func() error) {
	start := time.Now()
	err := fn()

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.RecordCommand(name, status, time.Since(start))

	if err != nil {
		b.reply(ctx, user, b.errHandler.Handle(ctx, err))
	}
}

func (b *Bot) reply(ctx context.Context, user, userMsg string) {
	if userMsg == "" {
		return
	}
	if err := b.transport.Send(ctx, user, fmt.Sprintf("!1 ⚠️ %s", userMsg)); err != nil {
		b.log.Error("failed to send reply", slog.String("user", user), slog.Any("error", err))
	}
}

// markKnown records the user as greeted; it returns true the first time
// a name is seen.
func (b *Bot) markKnown(name string) bool {
	b.knownMu.Lock()
	defer b.knownMu.Unlock()

	if _, ok := b.known[name]; ok {
		return false
	}
	b.known[name] = struct{}{}
	return true
}
