package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/asketd/simplex-exchange-bot/internal/errors"
	"github.com/asketd/simplex-exchange-bot/internal/exchange"
	"github.com/asketd/simplex-exchange-bot/internal/session"
	"github.com/asketd/simplex-exchange-bot/pkg/config"
)

type fakeSender struct {
	mu       sync.Mutex
	messages []string
	images   []string
}

func (s *fakeSender) Send(_ context.Context, _, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, text)
	return nil
}

func (s *fakeSender) SendImage(_ context.Context, _, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images = append(s.images, path)
	return nil
}

func (s *fakeSender) joined() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := ""
	for _, m := range s.messages {
		out += m + "\n"
	}
	return out
}

type fakeAPI struct {
	pairInfo     map[string]*exchange.PairInfo
	createResult *exchange.CreateResult
	createErr    error
	createCalls  []exchange.CreateOptions
	snapshot     *exchange.OrderSnapshot
	snapshotErr  error
}

func (a *fakeAPI) GetRates(context.Context, string) (exchange.Rates, error) { return nil, nil }
func (a *fakeAPI) GetReserves(context.Context) (map[string]float64, error) { return nil, nil }

func (a *fakeAPI) GetPairInfo(_ context.Context, _, _, rateMode string) (*exchange.PairInfo, error) {
	info, ok := a.pairInfo[rateMode]
	if !ok {
		return nil, errors.New("no pair info configured")
	}
	return info, nil
}

func (a *fakeAPI) GetVolume(context.Context) (map[string]string, error) { return nil, nil }
func (a *fakeAPI) GetStatus(context.Context) (map[string]exchange.NetworkStatus, error) {
	return nil, nil
}

func (a *fakeAPI) CreateOrder(_ context.Context, _, _, _ string, _ float64, opts exchange.CreateOptions) (*exchange.CreateResult, error) {
	a.createCalls = append(a.createCalls, opts)
	if a.createErr != nil {
		return nil, a.createErr
	}
	return a.createResult, nil
}

func (a *fakeAPI) OrderStatus(context.Context, string) (*exchange.OrderSnapshot, error) {
	return a.snapshot, a.snapshotErr
}

func (a *fakeAPI) FetchGuarantee(context.Context, string) ([]byte, error)     { return nil, nil }
func (a *fakeAPI) RequestRefund(context.Context, string) error                { return nil }
func (a *fakeAPI) ConfirmRefund(context.Context, string, string) error        { return nil }
func (a *fakeAPI) RevalidateAddress(context.Context, string, string) error    { return nil }
func (a *fakeAPI) RemoveOrder(context.Context, string) error                  { return nil }
func (a *fakeAPI) SendSupportMessage(context.Context, string, string) error   { return nil }
func (a *fakeAPI) GetSupportMessages(context.Context, string) ([]exchange.SupportMessage, error) {
	return nil, nil
}

type fakeTracker struct {
	mu    sync.Mutex
	added []string
}

func (t *fakeTracker) Add(_, orderID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.added = append(t.added, orderID)
}

type fakeQR struct {
	generated []string
}

func (q *fakeQR) Generate(_, name string) (string, error) {
	q.generated = append(q.generated, name)
	return "/tmp/" + name + ".png", nil
}

func (q *fakeQR) ScheduleCleanup(string, time.Duration) {}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testBotConfig() config.BotConfig {
	return config.BotConfig{
		CreateAmount:  0.001,
		ReadyAttempts: 1,
		ReadyDelay:    time.Millisecond,
		AddressGrace:  time.Millisecond,
	}
}

func readySnapshot() *exchange.OrderSnapshot {
	return &exchange.OrderSnapshot{
		OrderID:  "ord1",
		State:    exchange.StateAwaitingInput,
		Rate:     "15.5",
		SvcFee:   "0.5",
		FromAddr: "bc1qdeposit",
		MinInput: "0.001",
		MaxInput: "2.5",
	}
}

func newTestExchange(api *fakeAPI, sender *fakeSender, tracker *fakeTracker) (*Exchange, *session.Store) {
	sessions := session.NewStore()
	h := NewExchange(api, sender, sessions, tracker, &fakeQR{}, NewCurrencies(), testBotConfig(), testLogger())
	return h, sessions
}

func defaultPairInfo() map[string]*exchange.PairInfo {
	return map[string]*exchange.PairInfo{
		"flat":    {Rate: 15.5, Reserve: 100, Fee: 1.0},
		"dynamic": {Rate: 15.8, Reserve: 100, Fee: 0.5},
	}
}

const ethAddr = "0x52908400098527886E0F7030069857D2E4169EE7"

func TestExchangeStart_SetsPendingAndSendsComparison(t *testing.T) {
	api := &fakeAPI{pairInfo: defaultPairInfo()}
	sender := &fakeSender{}
	h, sessions := newTestExchange(api, sender, &fakeTracker{})

	err := h.Start(context.Background(), "alice", []string{"BTC", "ETH", ethAddr})
	require.NoError(t, err)

	out := sender.joined()
	assert.Contains(t, out, "Select Exchange Mode")
	assert.Contains(t, out, "Flat Mode")
	assert.Contains(t, out, "Dynamic Mode")
	assert.Contains(t, out, "15.50000000")
	assert.Contains(t, out, "15.80000000")

	pending, ok := sessions.GetPending("alice")
	require.True(t, ok)
	assert.Equal(t, "BTC", pending.FromCurrency)
	assert.Equal(t, "ETH", pending.ToCurrency)
	assert.Equal(t, ethAddr, pending.ToAddress)
}

func TestExchangeStart_LowercaseCurrenciesAccepted(t *testing.T) {
	api := &fakeAPI{pairInfo: defaultPairInfo()}
	h, sessions := newTestExchange(api, &fakeSender{}, &fakeTracker{})

	err := h.Start(context.Background(), "alice", []string{"btc", "eth", ethAddr})
	require.NoError(t, err)

	pending, ok := sessions.GetPending("alice")
	require.True(t, ok)
	assert.Equal(t, "BTC", pending.FromCurrency)
}

func TestExchangeStart_RejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"wrong arg count", []string{"BTC", "ETH"}, "Invalid Format"},
		{"unknown from currency", []string{"DOGE", "ETH", ethAddr}, "Invalid From Currency"},
		{"unknown to currency", []string{"BTC", "DOGE", ethAddr}, "Invalid To Currency"},
		{"bad address", []string{"BTC", "ETH", "nonsense"}, "Invalid Address Format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{pairInfo: defaultPairInfo()}
			h, sessions := newTestExchange(api, &fakeSender{}, &fakeTracker{})

			err := h.Start(context.Background(), "alice", tt.args)
			require.Error(t, err)

			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Contains(t, appErr.UserMessage, tt.want)

			_, ok := sessions.GetPending("alice")
			assert.False(t, ok)
		})
	}
}

func TestExchangeStart_ERC20Warning(t *testing.T) {
	api := &fakeAPI{pairInfo: defaultPairInfo()}
	sender := &fakeSender{}
	h, _ := newTestExchange(api, sender, &fakeTracker{})

	err := h.Start(context.Background(), "alice", []string{"BTC", "USDT", ethAddr})
	require.NoError(t, err)
	assert.Contains(t, sender.joined(), "ERC-20 network")
}

func TestModeSelection_NoPending(t *testing.T) {
	h, _ := newTestExchange(&fakeAPI{}, &fakeSender{}, &fakeTracker{})

	err := h.HandleModeSelection(context.Background(), "alice", "flat")
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.UserMessage, "No Pending Exchange")
}

func TestModeSelection_InvalidModeKeepsPending(t *testing.T) {
	h, sessions := newTestExchange(&fakeAPI{}, &fakeSender{}, &fakeTracker{})
	sessions.SetPending("alice", session.PendingExchange{FromCurrency: "BTC", ToCurrency: "ETH", ToAddress: ethAddr})

	err := h.HandleModeSelection(context.Background(), "alice", "fast")
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.UserMessage, "Invalid Mode")

	_, ok := sessions.GetPending("alice")
	assert.True(t, ok, "invalid mode must not consume the pending exchange")
}

func TestModeSelection_FlatFlowCreatesAndTracks(t *testing.T) {
	api := &fakeAPI{
		pairInfo:     defaultPairInfo(),
		createResult: &exchange.CreateResult{OrderID: "ord1"},
		snapshot:     readySnapshot(),
	}
	sender := &fakeSender{}
	tracker := &fakeTracker{}
	h, sessions := newTestExchange(api, sender, tracker)
	sessions.SetPending("alice", session.PendingExchange{FromCurrency: "BTC", ToCurrency: "ETH", ToAddress: ethAddr})

	err := h.HandleModeSelection(context.Background(), "alice", "flat")
	require.NoError(t, err)

	require.Len(t, api.createCalls, 1)
	assert.Equal(t, "flat", api.createCalls[0].RateMode)
	assert.Equal(t, "f", api.createCalls[0].FeeOption)

	out := sender.joined()
	assert.Contains(t, out, "Exchange Created Successfully")
	assert.Contains(t, out, "ord1")
	assert.Contains(t, out, "Min: 0.001 BTC")
	assert.Contains(t, out, "Max: 2.5 BTC")
	assert.Contains(t, out, "Deposit Address")
	assert.Contains(t, out, "bc1qdeposit")
	assert.Contains(t, out, "Guarantee Letter")
	assert.Len(t, sender.images, 1)

	assert.Equal(t, []string{"ord1"}, tracker.added)

	_, ok := sessions.GetPending("alice")
	assert.False(t, ok, "pending must clear after a valid mode")

	assert.True(t, sessions.TryReserve("ord1"), "reservation must be released after the flow")
}

func TestModeSelection_DynamicUsesDynamicFeeOption(t *testing.T) {
	api := &fakeAPI{
		pairInfo:     defaultPairInfo(),
		createResult: &exchange.CreateResult{OrderID: "ord1"},
		snapshot:     readySnapshot(),
	}
	h, sessions := newTestExchange(api, &fakeSender{}, &fakeTracker{})
	sessions.SetPending("alice", session.PendingExchange{FromCurrency: "BTC", ToCurrency: "ETH", ToAddress: ethAddr})

	err := h.HandleModeSelection(context.Background(), "alice", "dynamic")
	require.NoError(t, err)

	require.Len(t, api.createCalls, 1)
	assert.Equal(t, "dynamic", api.createCalls[0].RateMode)
	assert.Equal(t, "d", api.createCalls[0].FeeOption)
}

func TestModeSelection_CreateFailureClearsPending(t *testing.T) {
	api := &fakeAPI{
		pairInfo:  defaultPairInfo(),
		createErr: apperrors.NewExchangeRejection("/api/create", "Amount too low"),
	}
	tracker := &fakeTracker{}
	h, sessions := newTestExchange(api, &fakeSender{}, tracker)
	sessions.SetPending("alice", session.PendingExchange{FromCurrency: "BTC", ToCurrency: "ETH", ToAddress: ethAddr})

	err := h.HandleModeSelection(context.Background(), "alice", "flat")
	require.Error(t, err)

	_, ok := sessions.GetPending("alice")
	assert.False(t, ok, "a consumed mode reply clears pending even on failure")
	assert.Empty(t, tracker.added)
}

func TestModeSelection_AddressRejectionSendsRevalidateHint(t *testing.T) {
	api := &fakeAPI{
		pairInfo:  defaultPairInfo(),
		createErr: apperrors.NewExchangeRejection("/api/create", "TO_ADDRESS_INVALID"),
	}
	tracker := &fakeTracker{}
	h, sessions := newTestExchange(api, &fakeSender{}, tracker)
	sessions.SetPending("alice", session.PendingExchange{FromCurrency: "BTC", ToCurrency: "ETH", ToAddress: ethAddr})

	err := h.HandleModeSelection(context.Background(), "alice", "flat")
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.UserMessage, "Invalid Address")
	assert.Contains(t, appErr.UserMessage, "/revalidate_address")

	assert.Empty(t, tracker.added)
	_, ok := sessions.GetPending("alice")
	assert.False(t, ok, "a consumed mode reply clears pending even on rejection")
}

func TestModeSelection_DuplicateReservationAborts(t *testing.T) {
	api := &fakeAPI{
		pairInfo:     defaultPairInfo(),
		createResult: &exchange.CreateResult{OrderID: "ord1"},
		snapshot:     readySnapshot(),
	}
	sender := &fakeSender{}
	tracker := &fakeTracker{}
	h, sessions := newTestExchange(api, sender, tracker)
	sessions.SetPending("alice", session.PendingExchange{FromCurrency: "BTC", ToCurrency: "ETH", ToAddress: ethAddr})

	require.True(t, sessions.TryReserve("ord1"))

	err := h.HandleModeSelection(context.Background(), "alice", "flat")
	require.NoError(t, err)

	assert.Contains(t, sender.joined(), "already being processed")
	assert.Empty(t, tracker.added)
}

func TestModeSelection_GeneratingAddressFallback(t *testing.T) {
	generating := readySnapshot()
	generating.FromAddr = exchange.GeneratingSentinel

	api := &fakeAPI{
		pairInfo:     defaultPairInfo(),
		createResult: &exchange.CreateResult{OrderID: "ord1"},
		snapshot:     generating,
	}
	sender := &fakeSender{}
	tracker := &fakeTracker{}
	h, sessions := newTestExchange(api, sender, tracker)
	sessions.SetPending("alice", session.PendingExchange{FromCurrency: "BTC", ToCurrency: "ETH", ToAddress: ethAddr})

	err := h.HandleModeSelection(context.Background(), "alice", "flat")
	require.NoError(t, err)

	assert.Contains(t, sender.joined(), "Generating")
	assert.Empty(t, sender.images)
	assert.Equal(t, []string{"ord1"}, tracker.added, "tracking starts even without an address yet")
}
