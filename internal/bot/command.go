package bot

import (
	"regexp"
	"strings"
)

// Kind is the closed set of commands the router dispatches on. Input
// that does not parse maps to KindUnrecognized; input that parses to a
// name outside the table maps to KindUnknown.
type Kind int

const (
	KindUnrecognized Kind = iota
	KindUnknown
	KindHelp
	KindRates
	KindReserves
	KindVolume
	KindStatus
	KindExchange
	KindOrder
	KindFetchGuarantee
	KindRevalidateAddress
	KindRemoveOrder
	KindRefund
	KindRefundConfirm
	KindSupportMessage
	KindSupportMessages
)

// Command is one parsed inbound command.
type Command struct {
	Kind Kind
	Name string
	Args []string
}

// commandPattern accepts "/name args" optionally preceded by a SimpleX
// emphasis marker ("!2 /name args"). Arguments are split on whitespace
// and may span lines; each handler enforces its own argument-count
// contract.
var commandPattern = regexp.MustCompile(`(?s)^(?:![0-9]\s*)?/(\w+)\s*(.*)$`)

var commandKinds = map[string]Kind{
	"help":               KindHelp,
	"rates":              KindRates,
	"reserves":           KindReserves,
	"volume":             KindVolume,
	"status":             KindStatus,
	"exchange":           KindExchange,
	"order":              KindOrder,
	"fetch_guarantee":    KindFetchGuarantee,
	"revalidate_address": KindRevalidateAddress,
	"remove_order":       KindRemoveOrder,
	"refund":             KindRefund,
	"refund_confirm":     KindRefundConfirm,
	"support_message":    KindSupportMessage,
	"support_messages":   KindSupportMessages,
}

// ParseCommand turns inbound text into a Command. The command name is
// case-folded; arguments are left as written.
func ParseCommand(text string) Command {
	match := commandPattern.FindStringSubmatch(strings.TrimSpace(text))
	if match == nil {
		return Command{Kind: KindUnrecognized}
	}

	name := strings.ToLower(match[1])
	args := strings.Fields(match[2])

	kind, ok := commandKinds[name]
	if !ok {
		return Command{Kind: KindUnknown, Name: name, Args: args}
	}

	return Command{Kind: kind, Name: name, Args: args}
}
