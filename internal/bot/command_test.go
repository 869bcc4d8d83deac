package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantKind Kind
		wantArgs []string
	}{
		{
			name:     "bare help",
			input:    "/help",
			wantKind: KindHelp,
		},
		{
			name:     "exchange with args",
			input:    "/exchange BTC ETH 0x123",
			wantKind: KindExchange,
			wantArgs: []string{"BTC", "ETH", "0x123"},
		},
		{
			name:     "emphasis marker prefix",
			input:    "!2 /rates",
			wantKind: KindRates,
		},
		{
			name:     "uppercase name folds",
			input:    "/RATES",
			wantKind: KindRates,
		},
		{
			name:     "surrounding whitespace",
			input:    "  /order abc123  ",
			wantKind: KindOrder,
			wantArgs: []string{"abc123"},
		},
		{
			name:     "extra whitespace between args",
			input:    "/refund_confirm   ord1    addr1",
			wantKind: KindRefundConfirm,
			wantArgs: []string{"ord1", "addr1"},
		},
		{
			name:     "support message keeps words as args",
			input:    "/support_message ord1 where are my funds",
			wantKind: KindSupportMessage,
			wantArgs: []string{"ord1", "where", "are", "my", "funds"},
		},
		{
			name:     "arguments span lines",
			input:    "/support_message ord1 line1\nline2",
			wantKind: KindSupportMessage,
			wantArgs: []string{"ord1", "line1", "line2"},
		},
		{
			name:     "unknown command name",
			input:    "/frobnicate now",
			wantKind: KindUnknown,
			wantArgs: []string{"now"},
		},
		{
			name:     "plain text",
			input:    "hello there",
			wantKind: KindUnrecognized,
		},
		{
			name:     "empty input",
			input:    "",
			wantKind: KindUnrecognized,
		},
		{
			name:     "slash alone",
			input:    "/",
			wantKind: KindUnrecognized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := ParseCommand(tt.input)
			assert.Equal(t, tt.wantKind, cmd.Kind)
			if tt.wantArgs == nil {
				assert.Empty(t, cmd.Args)
			} else {
				assert.Equal(t, tt.wantArgs, cmd.Args)
			}
		})
	}
}

func TestParseCommand_AllNamesCovered(t *testing.T) {
	for name, kind := range commandKinds {
		cmd := ParseCommand("/" + name)
		assert.Equal(t, kind, cmd.Kind, "command %q", name)
		assert.Equal(t, name, cmd.Name)
	}
}
