// Package exchange implements the client for the remote exchange REST API.
package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	apperrors "github.com/asketd/simplex-exchange-bot/internal/errors"
	"github.com/asketd/simplex-exchange-bot/pkg/config"
	"github.com/asketd/simplex-exchange-bot/pkg/metrics"
)

// Client talks to the exchange REST API. All calls are synchronous
// request/response; only order-status fetches are retried.
type Client struct {
	cfg         config.ExchangeConfig
	http        *http.Client
	log         *slog.Logger
	statusRetry apperrors.Policy
}

// NewClient constructs an exchange API client from configuration.
func NewClient(cfg config.ExchangeConfig, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}

	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log,
		statusRetry: apperrors.Policy{
			MaxAttempts: cfg.StatusRetries,
			Delay:       cfg.StatusRetryDelay,
		},
	}
}

// GetRates fetches the full rate table for the given rate mode.
func (c *Client) GetRates(ctx context.Context, rateMode string) (Rates, error) {
	if rateMode == "" {
		rateMode = "dynamic"
	}

	var rates Rates
	err := c.get(ctx, "/api/rates", url.Values{"rate_mode": {rateMode}}, &rates)
	if err != nil {
		return nil, err
	}
	return rates, nil
}

// GetReserves derives per-currency reserves from the dynamic rate table.
func (c *Client) GetReserves(ctx context.Context) (map[string]float64, error) {
	rates, err := c.GetRates(ctx, "dynamic")
	if err != nil {
		return nil, err
	}

	reserves := make(map[string]float64)
	for pair, info := range rates {
		_, to, ok := splitPair(pair)
		if !ok {
			continue
		}
		if reserve := parseAmount(info.Reserve); reserve > reserves[to] {
			reserves[to] = reserve
		}
	}
	return reserves, nil
}

// GetPairInfo returns the quote for a single pair in one rate mode.
func (c *Client) GetPairInfo(ctx context.Context, fromCurrency, toCurrency, rateMode string) (*PairInfo, error) {
	rates, err := c.GetRates(ctx, rateMode)
	if err != nil {
		return nil, err
	}

	pairKey := fromCurrency + "_" + toCurrency
	info, ok := rates[pairKey]
	if !ok {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("Pair %s to %s not supported", fromCurrency, toCurrency))
	}

	return &PairInfo{
		Rate:    parseAmount(info.Rate),
		Reserve: parseAmount(info.Reserve),
		Fee:     parseAmount(info.SvcFee),
	}, nil
}

// GetVolume fetches 24-hour trading volume per currency.
func (c *Client) GetVolume(ctx context.Context) (map[string]string, error) {
	var volume map[string]string
	if err := c.get(ctx, "/api/volume", nil, &volume); err != nil {
		return nil, err
	}
	return volume, nil
}

// GetStatus fetches per-network operational status.
func (c *Client) GetStatus(ctx context.Context) (map[string]NetworkStatus, error) {
	var status map[string]NetworkStatus
	if err := c.get(ctx, "/api/status", nil, &status); err != nil {
		return nil, err
	}
	return status, nil
}

// CreateOrder submits a new exchange order and returns its ID.
func (c *Client) CreateOrder(ctx context.Context, fromCurrency, toCurrency, toAddress string, amount float64, opts CreateOptions) (*CreateResult, error) {
	if opts.RateMode == "" {
		opts.RateMode = "dynamic"
	}
	if opts.FeeOption == "" {
		opts.FeeOption = "f"
	}
	if opts.Aggregation == "" {
		opts.Aggregation = "any"
	}

	form := url.Values{
		"from_currency":  {fromCurrency},
		"to_currency":    {toCurrency},
		"to_address":     {toAddress},
		"amount":         {fmt.Sprintf("%g", amount)},
		"refund_address": {opts.RefundAddress},
		"rate_mode":      {opts.RateMode},
		"fee_option":     {opts.FeeOption},
		"aggregation":    {opts.Aggregation},
		"ref":            {c.cfg.AffiliateID},
	}

	var result CreateResult
	if err := c.post(ctx, "/api/create", form, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// OrderStatus fetches the current snapshot of an order, retrying
// transient failures per the configured policy.
func (c *Client) OrderStatus(ctx context.Context, orderID string) (*OrderSnapshot, error) {
	var snapshot OrderSnapshot

	err := c.statusRetry.Do(ctx, func() error {
		snapshot = OrderSnapshot{}
		return c.get(ctx, "/api/order", url.Values{"orderid": {orderID}}, &snapshot)
	})
	if err != nil {
		return nil, err
	}

	return &snapshot, nil
}

// FetchGuarantee downloads the letter-of-guarantee document bytes.
func (c *Client) FetchGuarantee(ctx context.Context, orderID string) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/order/fetch_guarantee",
		url.Values{"orderid": {orderID}}, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordExchangeRequest("/api/order/fetch_guarantee", "error")
		return nil, apperrors.NewExchangeAPIError("/api/order/fetch_guarantee", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.RecordExchangeRequest("/api/order/fetch_guarantee", "error")
		return nil, apperrors.NewExchangeAPIError("/api/order/fetch_guarantee",
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	metrics.RecordExchangeRequest("/api/order/fetch_guarantee", "ok")
	return io.ReadAll(resp.Body)
}

// RequestRefund asks the exchange to make a refund available.
func (c *Client) RequestRefund(ctx context.Context, orderID string) error {
	var result struct {
		Result bool `json:"result"`
	}
	return c.post(ctx, "/api/order/refund", url.Values{"orderid": {orderID}}, &result)
}

// ConfirmRefund confirms a pending refund to the given address.
func (c *Client) ConfirmRefund(ctx context.Context, orderID, refundAddress string) error {
	var result struct {
		Result bool `json:"result"`
	}
	return c.post(ctx, "/api/order/refund_confirm",
		url.Values{"orderid": {orderID}, "refund_address": {refundAddress}}, &result)
}

// RevalidateAddress replaces an order's recipient address after a
// remote validation failure.
func (c *Client) RevalidateAddress(ctx context.Context, orderID, toAddress string) error {
	var result struct {
		Result bool `json:"result"`
	}
	return c.post(ctx, "/api/order/revalidate_address",
		url.Values{"orderid": {orderID}, "to_address": {toAddress}}, &result)
}

// RemoveOrder deletes a completed order's data from the exchange.
func (c *Client) RemoveOrder(ctx context.Context, orderID string) error {
	var result struct {
		Result bool `json:"result"`
	}
	return c.post(ctx, "/api/order/remove", url.Values{"orderid": {orderID}}, &result)
}

// SendSupportMessage posts a message to the order's support chat.
func (c *Client) SendSupportMessage(ctx context.Context, orderID, message string) error {
	var result struct {
		Result bool `json:"result"`
	}
	return c.post(ctx, "/api/order/support_message",
		url.Values{"orderid": {orderID}, "supportmessage": {message}}, &result)
}

// GetSupportMessages fetches the order's support chat history.
func (c *Client) GetSupportMessages(ctx context.Context, orderID string) ([]SupportMessage, error) {
	var messages []SupportMessage
	if err := c.get(ctx, "/api/order/support_messages",
		url.Values{"orderid": {orderID}}, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// HealthCheck probes the API by fetching the rate table.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.GetRates(ctx, "dynamic")
	return err
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, params, nil)
	if err != nil {
		return err
	}
	return c.do(req, endpoint, out)
}

func (c *Client) post(ctx context.Context, endpoint string, form url.Values, out interface{}) error {
	if form == nil {
		form = url.Values{}
	}
	if c.cfg.APIKey != "" {
		form.Set("api_key", c.cfg.APIKey)
	}

	req, err := c.newRequest(ctx, http.MethodPost, endpoint, nil, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return c.do(req, endpoint, out)
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, params url.Values, body io.Reader) (*http.Request, error) {
	if params == nil {
		params = url.Values{}
	}
	if method == http.MethodGet && c.cfg.APIKey != "" {
		params.Set("api_key", c.cfg.APIKey)
	}

	reqURL := strings.TrimRight(c.cfg.BaseURL, "/") + endpoint
	if encoded := params.Encode(); encoded != "" {
		reqURL += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, apperrors.NewExchangeAPIError(endpoint, err)
	}
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	return req, nil
}

// do executes the request, unwraps the API error envelope, and decodes
// the payload into out.
func (c *Client) do(req *http.Request, endpoint string, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordExchangeRequest(endpoint, "error")
		return apperrors.NewExchangeAPIError(endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordExchangeRequest(endpoint, "error")
		return apperrors.NewExchangeAPIError(endpoint, err)
	}

	if resp.StatusCode != http.StatusOK {
		metrics.RecordExchangeRequest(endpoint, "error")
		return apperrors.NewExchangeAPIError(endpoint,
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	// Business-rule errors arrive inside a 200 response.
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != "" {
		metrics.RecordExchangeRequest(endpoint, "rejected")
		return apperrors.NewExchangeRejection(endpoint, envelope.Error)
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			metrics.RecordExchangeRequest(endpoint, "error")
			return apperrors.NewExchangeAPIError(endpoint, fmt.Errorf("decode response: %w", err))
		}
	}

	metrics.RecordExchangeRequest(endpoint, "ok")
	return nil
}
