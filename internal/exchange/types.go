package exchange

import (
	"sort"
	"strconv"
	"strings"
)

// OrderState is the remote-owned lifecycle state of an order. Values
// outside this set are passed through as opaque states.
type OrderState string

const (
	StateCreated         OrderState = "CREATED"
	StateAwaitingInput   OrderState = "AWAITING_INPUT"
	StateConfirmingInput OrderState = "CONFIRMING_INPUT"
	StateConfirmingSend  OrderState = "CONFIRMING_SEND"
	StateComplete        OrderState = "COMPLETE"
	StateCancelled       OrderState = "CANCELLED"
	StateRefunded        OrderState = "REFUNDED"
)

// StateErrorAddressInvalid is the business-rule error code the API sets
// when the recipient address fails remote validation.
const StateErrorAddressInvalid = "TO_ADDRESS_INVALID"

// GeneratingSentinel is the placeholder the API returns while the
// deposit address is still being generated.
const GeneratingSentinel = "_GENERATING_"

// OrderSnapshot is one observation of an order's remote state. Amount
// fields arrive as decimal strings and stay empty while pending.
type OrderSnapshot struct {
	OrderID            string     `json:"orderid"`
	State              OrderState `json:"state"`
	StateError         string     `json:"state_error"`
	FromCurrency       string     `json:"from_currency"`
	ToCurrency         string     `json:"to_currency"`
	FromAmountReceived string     `json:"from_amount_received"`
	ToAmount           string     `json:"to_amount"`
	TransactionIDSent  string     `json:"transaction_id_sent"`
	Rate               string     `json:"rate"`
	RateMode           string     `json:"rate_mode"`
	RateModeFee        string     `json:"rate_mode_fee"`
	SvcFee             string     `json:"svc_fee"`
	NetworkFee         string     `json:"network_fee"`
	FromAddr           string     `json:"from_addr"`
	ToAddr             string     `json:"to_addr"`
	MinInput           string     `json:"min_input"`
	MaxInput           string     `json:"max_input"`
	RefundAvailable    bool       `json:"refund_available"`
}

// DepositReady reports whether the deposit address and both input
// bounds have been populated.
func (s *OrderSnapshot) DepositReady() bool {
	return s.HasDepositAddress() && s.MinInput != "" && s.MaxInput != ""
}

// HasDepositAddress reports whether a usable deposit address exists.
func (s *OrderSnapshot) HasDepositAddress() bool {
	return s != nil && s.FromAddr != "" && s.FromAddr != GeneratingSentinel
}

// PairRate is one entry of the /api/rates table.
type PairRate struct {
	Rate    string `json:"rate"`
	Reserve string `json:"reserve"`
	SvcFee  string `json:"svc_fee"`
}

// Rates maps "FROM_TO" pair keys to their quotes.
type Rates map[string]PairRate

// PairInfo is the quote for a single pair in one rate mode.
type PairInfo struct {
	Rate    float64
	Reserve float64
	Fee     float64
}

// NetworkStatus is one entry of the /api/status response.
type NetworkStatus struct {
	Status            string `json:"status"`
	AggregatedBalance string `json:"aggregated_balance"`
}

// SupportMessage is one entry of an order's support chat.
type SupportMessage struct {
	Timestamp string `json:"timestamp"`
	Sender    string `json:"sender"`
	Message   string `json:"message"`
}

// CreateResult is the response of a successful order creation.
type CreateResult struct {
	OrderID string `json:"orderid"`
}

// CreateOptions tune order creation. Zero values fall back to the
// dynamic rate mode with no refund address.
type CreateOptions struct {
	RefundAddress string
	RateMode      string
	FeeOption     string
	Aggregation   string
}

// ExtractCurrencies returns the sorted set of currencies appearing in
// the rate table's pair keys.
func ExtractCurrencies(rates Rates) []string {
	seen := make(map[string]struct{})
	for pair := range rates {
		from, to, ok := splitPair(pair)
		if !ok {
			continue
		}
		seen[from] = struct{}{}
		seen[to] = struct{}{}
	}

	currencies := make([]string, 0, len(seen))
	for currency := range seen {
		currencies = append(currencies, currency)
	}
	sort.Strings(currencies)
	return currencies
}

func splitPair(pair string) (from, to string, ok bool) {
	parts := strings.SplitN(pair, "_", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// parseAmount converts a decimal string to float64, treating anything
// unparseable as zero. Mirrors the permissive handling of pending
// amount fields.
func parseAmount(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// orValue substitutes a placeholder for empty amount fields.
func orValue(s, placeholder string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}
