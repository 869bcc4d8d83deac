// Package simplex bridges the bot to a local SimpleX CLI over its
// websocket control port.
package simplex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	apperrors "github.com/asketd/simplex-exchange-bot/internal/errors"
	"github.com/asketd/simplex-exchange-bot/pkg/config"
)

// EventHandler consumes decoded inbound events.
type EventHandler interface {
	HandleEvent(ctx context.Context, event *Event)
}

// Client is a websocket client for the SimpleX CLI control port. Sends
// are serialized; the read loop runs on the caller's goroutine in Run.
type Client struct {
	cfg config.SimplexConfig
	log *slog.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

// command is the CLI's websocket request frame.
type command struct {
	CorrID string `json:"corrId"`
	Cmd    string `json:"cmd"`
}

// NewClient constructs a transport client; Connect must be called
// before Run or any send.
func NewClient(cfg config.SimplexConfig, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}

	return &Client{cfg: cfg, log: log}
}

// Connect waits for the CLI port, dials the websocket, subscribes to
// events, and requests the invitation link.
func (c *Client) Connect(ctx context.Context) error {
	if err := waitForPort(ctx, c.cfg.Port, c.cfg.PortWait); err != nil {
		return apperrors.NewTransportError(err)
	}

	wsURL := fmt.Sprintf("ws://localhost:%d", c.cfg.Port)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return apperrors.NewTransportError(err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	c.log.Info("websocket connected", slog.String("url", wsURL))

	if err := c.writeCommand("/subscribe on"); err != nil {
		return err
	}
	if err := c.writeCommand("/connect"); err != nil {
		return err
	}

	return nil
}

// Run reads frames until ctx is cancelled or the connection drops,
// handing each decoded event to the handler.
func (c *Client) Run(ctx context.Context, handler EventHandler) error {
	conn := c.current()
	if conn == nil {
		return apperrors.NewTransportError(errors.New("not connected"))
	}

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return apperrors.NewTransportError(err)
		}

		event, err := DecodeEvent(raw)
		if err != nil {
			c.log.Warn("undecodable websocket frame", slog.Any("error", err))
			continue
		}

		if event.Type == EventIgnored {
			continue
		}

		handler.HandleEvent(ctx, event)
	}
}

// Send delivers a text message to the named contact.
func (c *Client) Send(ctx context.Context, user, text string) error {
	return c.writeCommand(fmt.Sprintf("@%s %s", escapeName(user), text))
}

// SendImage delivers an image file to the named contact.
func (c *Client) SendImage(ctx context.Context, user, path string) error {
	return c.writeCommand(fmt.Sprintf("/img @%s %s", escapeName(user), path))
}

// AcceptContact accepts a pending contact request by display name.
func (c *Client) AcceptContact(ctx context.Context, user string) error {
	return c.Send(ctx, user, "accept")
}

// Close tears down the websocket connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// HealthCheck reports whether the websocket is connected.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.current() == nil {
		return errors.New("simplex websocket not connected")
	}
	return nil
}

func (c *Client) current() *websocket.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn
}

func (c *Client) writeCommand(cmd string) error {
	payload, err := json.Marshal(command{
		CorrID: "id" + uuid.NewString(),
		Cmd:    cmd,
	})
	if err != nil {
		return apperrors.NewTransportError(err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return apperrors.NewTransportError(errors.New("not connected"))
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return apperrors.NewTransportError(err)
	}
	return nil
}

// escapeName quotes display names containing spaces; the CLI treats a
// bare space as the end of the recipient.
func escapeName(name string) string {
	if strings.Contains(name, " ") {
		return "'" + name + "'"
	}
	return name
}

// waitForPort polls the CLI port until it accepts connections or the
// wait budget runs out.
func waitForPort(ctx context.Context, port int, wait time.Duration) error {
	deadline := time.Now().Add(wait)
	addr := fmt.Sprintf("127.0.0.1:%d", port)

	for {
		conn, err := net.DialTimeout("tcp", addr, time.Second)
		if err == nil {
			return conn.Close()
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("port %d not available after %s", port, wait)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
}
