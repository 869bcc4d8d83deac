package exchange

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Public order page bases, mirrored in every order-related message.
const (
	ClearnetBase = "https://exch.cx"
	OnionBase    = "http://hszyoqwrcp7cxlxnqmovp6vjvmnwj33g4wviuxqzq47emieaxjaperyd.onion"
)

// OrderLink returns the public clearnet page for an order.
func OrderLink(orderID string) string {
	return fmt.Sprintf("%s/order/%s", ClearnetBase, orderID)
}

// OrderOnionLink returns the onion page for an order.
func OrderOnionLink(orderID string) string {
	return fmt.Sprintf("%s/order/%s", OnionBase, orderID)
}

// GuaranteeLink returns the clearnet letter-of-guarantee download link.
func GuaranteeLink(orderID string) string {
	return fmt.Sprintf("%s/order/%s/fetch_guarantee", ClearnetBase, orderID)
}

// GuaranteeOnionLink returns the onion letter-of-guarantee download link.
func GuaranteeOnionLink(orderID string) string {
	return fmt.Sprintf("%s/order/%s/fetch_guarantee", OnionBase, orderID)
}

// FormatRates renders the rate table, one pair per line, sorted by key.
func FormatRates(rates Rates) string {
	var b strings.Builder
	b.WriteString("💱 Exchange Rates\n\n")

	keys := make([]string, 0, len(rates))
	for pair := range rates {
		keys = append(keys, pair)
	}
	sort.Strings(keys)

	for _, pair := range keys {
		from, to, ok := splitPair(pair)
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "%s → %s: %.8f\n", from, to, parseAmount(rates[pair].Rate))
	}
	return strings.TrimSpace(b.String())
}

// FormatReserves renders per-currency reserves sorted by currency.
func FormatReserves(reserves map[string]float64) string {
	var b strings.Builder
	b.WriteString("📦 Currency Reserves\n\n")

	keys := make([]string, 0, len(reserves))
	for currency := range reserves {
		keys = append(keys, currency)
	}
	sort.Strings(keys)

	for _, currency := range keys {
		fmt.Fprintf(&b, "%s: %.2f\n", currency, reserves[currency])
	}
	return strings.TrimSpace(b.String())
}

// FormatVolume renders 24-hour volume per currency.
func FormatVolume(volume map[string]string) string {
	if len(volume) == 0 {
		return "📊 24-Hour Volume Unavailable\nContact support@exch.cx for assistance."
	}

	var b strings.Builder
	b.WriteString("📊 24-Hour Volume\n\n")

	keys := make([]string, 0, len(volume))
	for currency := range volume {
		keys = append(keys, currency)
	}
	sort.Strings(keys)

	for _, currency := range keys {
		fmt.Fprintf(&b, "%s: %.2f\n", currency, parseAmount(volume[currency]))
	}
	return strings.TrimSpace(b.String())
}

// FormatStatus renders per-network operational status.
func FormatStatus(status map[string]NetworkStatus) string {
	if len(status) == 0 {
		return "🌐 Network Status Unavailable\nContact support@exch.cx for assistance."
	}

	var b strings.Builder
	b.WriteString("🌐 Network Status\n\n")

	keys := make([]string, 0, len(status))
	for network := range status {
		keys = append(keys, network)
	}
	sort.Strings(keys)

	for _, network := range keys {
		info := status[network]
		line := network + ": "
		if info.Status == "online" {
			line += "Online ✅"
		} else {
			line += "Offline ❌"
		}
		if info.AggregatedBalance != "" {
			line += fmt.Sprintf(" | Balance: %.2f", parseAmount(info.AggregatedBalance))
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimSpace(b.String())
}

// FormatOrderStatus renders the full order detail block, including the
// remediation hints for invalid addresses and available refunds.
func FormatOrderStatus(s *OrderSnapshot) string {
	if s == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString("ℹ️ Order Details\n\n")
	fmt.Fprintf(&b, "Order ID: %s\n", s.OrderID)
	fmt.Fprintf(&b, "Status: %s", s.State)
	if s.StateError != "" {
		fmt.Fprintf(&b, " (Error: %s)", s.StateError)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Pair: %s → %s\n", s.FromCurrency, s.ToCurrency)
	fmt.Fprintf(&b, "Rate: 1 %s = %.8f %s\n", s.FromCurrency, parseAmount(s.Rate), s.ToCurrency)
	fmt.Fprintf(&b, "Rate Mode: %s (%.1f%%)\n", orValue(s.RateMode, "N/A"), parseAmount(s.RateModeFee)*100)
	fmt.Fprintf(&b, "Sending: %s | Received: %s\n", s.FromCurrency, orValue(s.FromAmountReceived, "Pending"))
	fmt.Fprintf(&b, "Receiving: %s | To Receive: %s\n", s.ToCurrency, orValue(s.ToAmount, "Pending"))
	fmt.Fprintf(&b, "Service Fee: %.2f%%\n", parseAmount(s.SvcFee))
	fmt.Fprintf(&b, "Network Fee: %s %s\n", orValue(s.NetworkFee, "0"), s.ToCurrency)
	fmt.Fprintf(&b, "Recipient Address: %s\n", orValue(s.ToAddr, "Not set"))
	fmt.Fprintf(&b, "Deposit Address: %s\n", orValue(s.FromAddr, "Generating..."))
	fmt.Fprintf(&b, "Link: %s\n", OrderLink(s.OrderID))
	fmt.Fprintf(&b, "Tor Link: %s\n", OrderOnionLink(s.OrderID))

	if s.StateError == StateErrorAddressInvalid {
		fmt.Fprintf(&b, "\n🔧 Invalid address detected. Use /revalidate_address %s <new_address> to update.", s.OrderID)
	}
	if s.RefundAvailable {
		fmt.Fprintf(&b, "\n🔙 Refund available! Use /refund %s to request.", s.OrderID)
	}
	if s.FromAddr != "" && (s.MinInput != "" || s.MaxInput != "") {
		fmt.Fprintf(&b, "\n💸 Send %s to: %s\nMin: %s %s Max: %s %s",
			s.FromCurrency, s.FromAddr,
			orValue(s.MinInput, "Not available yet"), s.FromCurrency,
			orValue(s.MaxInput, "Not available yet"), s.FromCurrency)
	}
	return strings.TrimSpace(b.String())
}

// FormatSupportMessages renders the support chat history.
func FormatSupportMessages(messages []SupportMessage) string {
	var b strings.Builder
	b.WriteString("💬 Support Chat\n\n")

	if len(messages) == 0 {
		b.WriteString("No messages yet. Start a chat with /support_message <order_id> <message>.")
		return b.String()
	}

	for _, msg := range messages {
		stamp := msg.Timestamp
		if parsed, err := time.Parse(time.RFC3339, msg.Timestamp); err == nil {
			stamp = parsed.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(&b, "[%s] %s: %s\n", stamp, msg.Sender, msg.Message)
	}
	return strings.TrimSpace(b.String())
}
