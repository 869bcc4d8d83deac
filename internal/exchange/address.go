package exchange

import (
	"regexp"
	"strings"
)

// addressPatterns holds per-currency recipient address formats. Unknown
// currencies accept anything and rely on remote validation.
var addressPatterns = map[string]*regexp.Regexp{
	"BTC":   regexp.MustCompile(`^(?:[13][a-km-zA-HJ-NP-Z1-9]{25,34}|bc1[a-z0-9]{39,59})$`),
	"BTCLN": regexp.MustCompile(`^ln[a-z0-9]{20,}$`),
	"ETH":   regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`),
	"DAI":   regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`),
	"USDC":  regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`),
	"USDT":  regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`),
	"LTC":   regexp.MustCompile(`^(?:[LM][a-km-zA-HJ-NP-Z1-9]{26,33}|ltc1[a-z0-9]{39,59})$`),
	"DASH":  regexp.MustCompile(`^X[1-9A-HJ-NP-Za-km-z]{33}$`),
	"XMR":   regexp.MustCompile(`^[48][0-9AB][1-9A-HJ-NP-Za-km-z]{93}$`),
}

// erc20Currencies lists destinations that only settle over the ERC-20
// network; users get a warning before exchanging into them.
var erc20Currencies = map[string]struct{}{
	"USDT": {},
	"USDC": {},
	"DAI":  {},
}

// ValidateAddress checks the recipient address against the currency's
// known format.
func ValidateAddress(currency, address string) bool {
	pattern, ok := addressPatterns[strings.ToUpper(currency)]
	if !ok {
		return true
	}
	return pattern.MatchString(strings.TrimSpace(address))
}

// IsERC20 reports whether the currency requires the ERC-20 network note.
func IsERC20(currency string) bool {
	_, ok := erc20Currencies[strings.ToUpper(currency)]
	return ok
}

// DefaultCurrencies is the static whitelist used until the rate table
// has been fetched, and as fallback when the fetch fails.
func DefaultCurrencies() []string {
	return []string{"BTC", "BTCLN", "DAI", "DASH", "ETH", "LTC", "USDC", "USDT", "XMR"}
}
