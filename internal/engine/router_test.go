package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/songzhibin97/signalflux/internal/models"
	"github.com/songzhibin97/signalflux/internal/venue"
)

// stubGateway records order dispatches and serves canned outcomes.
type stubGateway struct {
	tokens   map[string]bool
	outcome  *models.Outcome
	balances map[string]error

	orders []dispatched
	refreshed int
}

type dispatched struct {
	token string
	req   venue.OrderRequest
}

func (g *stubGateway) Get(token string) (venue.Venue, bool) {
	return nil, g.tokens[token]
}

func (g *stubGateway) Order(ctx context.Context, token string, req venue.OrderRequest) *models.Outcome {
	g.orders = append(g.orders, dispatched{token: token, req: req})
	if !g.tokens[token] {
		return models.Failure("client " + token + " not found")
	}
	if g.outcome != nil {
		return g.outcome
	}
	return &models.Outcome{Success: true, OrderID: "stub-1"}
}

func (g *stubGateway) Balance(ctx context.Context, token string) (*models.BalanceSnapshot, error) {
	if err, ok := g.balances[token]; ok && err != nil {
		return nil, err
	}
	if !g.tokens[token] {
		return nil, venue.ErrClientNotFound
	}
	return &models.BalanceSnapshot{Venue: token, Retrieved: true}, nil
}

func (g *stubGateway) Ticker(ctx context.Context, token, symbol string) (*models.TickerSnapshot, error) {
	return &models.TickerSnapshot{Venue: token, Symbol: symbol}, nil
}

func (g *stubGateway) Tokens() []string {
	var tokens []string
	for t, ok := range g.tokens {
		if ok {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

func (g *stubGateway) RefreshAll(ctx context.Context) { g.refreshed++ }

// countingNotifier tallies every notification by category.
type countingNotifier struct {
	mu       sync.Mutex
	sends    []string
	trading  []string // status values
	errors   int
	statuses int
}

func (n *countingNotifier) Send(_ context.Context, content string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sends = append(n.sends, content)
	return nil
}

func (n *countingNotifier) SendTradingAlert(_ context.Context, _, _ string, _, _ decimal.Decimal, status, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.trading = append(n.trading, status)
	return nil
}

func (n *countingNotifier) SendErrorAlert(_ context.Context, _, _, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors++
	return nil
}

func (n *countingNotifier) SendStatusUpdate(_ context.Context, _ string, _ map[string]string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.statuses++
	return nil
}

func (n *countingNotifier) total() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sends) + len(n.trading) + n.errors + n.statuses
}

func newTestEngine(gateway *stubGateway, notifier *countingNotifier) *Engine {
	return New(gateway, notifier, nil, nil, nil)
}

func TestProcessSignal_ExchangeOrder(t *testing.T) {
	gateway := &stubGateway{tokens: map[string]bool{"binance": true}}
	notifier := &countingNotifier{}
	eng := newTestEngine(gateway, notifier)

	outcome := eng.ProcessSignal(context.Background(), models.Alert{
		"ticker":   "BTCUSDT",
		"action":   "buy",
		"quantity": "0.5",
		"exchange": "binance",
	})

	assert.True(t, outcome.Success)
	assert.Equal(t, "stub-1", outcome.OrderID)

	require.Len(t, gateway.orders, 1)
	assert.Equal(t, "binance", gateway.orders[0].token)
	assert.Equal(t, "0.5", gateway.orders[0].req.Quantity.String())

	// exactly one received notice plus one result notice
	assert.Len(t, notifier.sends, 1)
	assert.Contains(t, notifier.sends[0], "Signal received")
	assert.Equal(t, []string{"success"}, notifier.trading)
	assert.Equal(t, 2, notifier.total())
}

func TestProcessSignal_ValidationFailureNotifiesOnce(t *testing.T) {
	gateway := &stubGateway{tokens: map[string]bool{"binance": true}}
	notifier := &countingNotifier{}
	eng := newTestEngine(gateway, notifier)

	outcome := eng.ProcessSignal(context.Background(), models.Alert{
		"ticker":   "BTCUSDT",
		"action":   "hold",
		"quantity": "1",
		"exchange": "binance",
	})

	assert.False(t, outcome.Success)
	assert.Empty(t, gateway.orders)
	// the received notice is the only notification for a rejected signal
	assert.Equal(t, 1, notifier.total())
	assert.Len(t, notifier.sends, 1)
}

func TestProcessSignal_KISAccountOutOfRange(t *testing.T) {
	gateway := &stubGateway{tokens: map[string]bool{}}
	notifier := &countingNotifier{}
	eng := newTestEngine(gateway, notifier)

	outcome := eng.ProcessSignal(context.Background(), models.Alert{
		"ticker":   "005930",
		"action":   "buy",
		"quantity": "10",
		"account":  "kis99",
	})

	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Error, "kis99")
	// out-of-range slots never reach the gateway and get no result notice
	assert.Empty(t, gateway.orders)
	assert.Equal(t, 1, notifier.total())
}

func TestProcessSignal_KISZeroPaddedAccount(t *testing.T) {
	gateway := &stubGateway{tokens: map[string]bool{"kis7": true}}
	notifier := &countingNotifier{}
	eng := newTestEngine(gateway, notifier)

	outcome := eng.ProcessSignal(context.Background(), models.Alert{
		"ticker":   "005930",
		"action":   "buy",
		"quantity": "10",
		"account":  "kis007",
	})

	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Error, "kis007")
	// rejected before dispatch, same as any unsupported target
	assert.Empty(t, gateway.orders)
	assert.Equal(t, 1, notifier.total())
}

func TestProcessSignal_KISQuantityTruncation(t *testing.T) {
	gateway := &stubGateway{tokens: map[string]bool{"kis7": true}}
	notifier := &countingNotifier{}
	eng := newTestEngine(gateway, notifier)

	outcome := eng.ProcessSignal(context.Background(), models.Alert{
		"ticker":   "005930",
		"action":   "buy",
		"quantity": "3.9",
		"account":  "kis7",
	})

	assert.True(t, outcome.Success)
	require.Len(t, gateway.orders, 1)
	assert.Equal(t, "kis7", gateway.orders[0].token)
	// brokerage trades whole shares only
	assert.Equal(t, "3", gateway.orders[0].req.Quantity.String())
}

func TestProcessSignal_KISLimitPriceTruncation(t *testing.T) {
	gateway := &stubGateway{tokens: map[string]bool{"kis1": true}}
	notifier := &countingNotifier{}
	eng := newTestEngine(gateway, notifier)

	eng.ProcessSignal(context.Background(), models.Alert{
		"ticker":     "005930",
		"action":     "sell",
		"quantity":   "10",
		"price":      "72500.75",
		"order_type": "limit",
		"account":    "kis1",
	})

	require.Len(t, gateway.orders, 1)
	assert.Equal(t, "72500", gateway.orders[0].req.Price.String())
}

func TestProcessSignal_ClientNotFoundStillNotifies(t *testing.T) {
	gateway := &stubGateway{tokens: map[string]bool{}}
	notifier := &countingNotifier{}
	eng := newTestEngine(gateway, notifier)

	outcome := eng.ProcessSignal(context.Background(), models.Alert{
		"ticker":   "BTCUSDT",
		"action":   "sell",
		"quantity": "1",
		"exchange": "okx",
	})

	assert.False(t, outcome.Success)
	// a routed attempt gets its result notice even when the client is missing
	require.Len(t, gateway.orders, 1)
	assert.Equal(t, []string{"failed"}, notifier.trading)
	assert.Equal(t, 2, notifier.total())
}

func TestProcessSignal_UnsupportedExchange(t *testing.T) {
	gateway := &stubGateway{tokens: map[string]bool{}}
	notifier := &countingNotifier{}
	eng := newTestEngine(gateway, notifier)

	outcome := eng.ProcessSignal(context.Background(), models.Alert{
		"ticker":   "BTCUSDT",
		"action":   "buy",
		"quantity": "1",
		"exchange": "ftx",
	})

	assert.False(t, outcome.Success)
	assert.Empty(t, gateway.orders)
	assert.Equal(t, 1, notifier.total())
}

func TestProcessSignal_AccountWinsOverExchange(t *testing.T) {
	gateway := &stubGateway{tokens: map[string]bool{"kis2": true, "binance": true}}
	notifier := &countingNotifier{}
	eng := newTestEngine(gateway, notifier)

	eng.ProcessSignal(context.Background(), models.Alert{
		"ticker":   "005930",
		"action":   "buy",
		"quantity": "1",
		"exchange": "binance",
		"account":  "kis2",
	})

	require.Len(t, gateway.orders, 1)
	assert.Equal(t, "kis2", gateway.orders[0].token)
}

func TestProcessSignal_ClosePosition(t *testing.T) {
	gateway := &stubGateway{tokens: map[string]bool{"kis3": true}}
	notifier := &countingNotifier{}
	eng := newTestEngine(gateway, notifier)

	outcome := eng.ProcessSignal(context.Background(), models.Alert{
		"ticker":   "005930",
		"action":   "close",
		"quantity": "1",
		"account":  "kis3",
	})

	// close never places a liquidation order
	assert.Empty(t, gateway.orders)
	assert.True(t, outcome.Success)
	assert.Equal(t, "Position close attempted", outcome.Message)

	require.Len(t, notifier.sends, 2)
	assert.Contains(t, notifier.sends[1], "Position close attempted")
}

func TestProcessSignal_CloseBalanceFailure(t *testing.T) {
	gateway := &stubGateway{
		tokens:   map[string]bool{"upbit": true},
		balances: map[string]error{"upbit": errors.New("timeout")},
	}
	notifier := &countingNotifier{}
	eng := newTestEngine(gateway, notifier)

	outcome := eng.ProcessSignal(context.Background(), models.Alert{
		"ticker":   "KRW-BTC",
		"action":   "close",
		"quantity": "1",
		"exchange": "upbit",
	})

	assert.False(t, outcome.Success)
	assert.Equal(t, "Failed to get balance information", outcome.Error)
	assert.Len(t, notifier.sends, 1) // received notice only
}

func TestProcessSignal_VenueRejection(t *testing.T) {
	gateway := &stubGateway{
		tokens:  map[string]bool{"bitget": true},
		outcome: &models.Outcome{Success: false, Error: "Insufficient balance"},
	}
	notifier := &countingNotifier{}
	eng := newTestEngine(gateway, notifier)

	outcome := eng.ProcessSignal(context.Background(), models.Alert{
		"ticker":   "BTCUSDT",
		"action":   "buy",
		"quantity": "100",
		"exchange": "bitget",
	})

	assert.False(t, outcome.Success)
	assert.Equal(t, "Insufficient balance", outcome.Error)
	assert.Equal(t, []string{"failed"}, notifier.trading)
}

func TestParseKISNumber(t *testing.T) {
	tests := []struct {
		token  string
		number int
		ok     bool
	}{
		{"kis1", 1, true},
		{"kis50", 50, true},
		{"kis0", 0, false},
		{"kis51", 0, false},
		{"kis99", 0, false},
		{"kisX", 0, false},
		{"kis", 0, false},
		// zero-padded tokens can never match a handle map key
		{"kis007", 0, false},
		{"kis01", 0, false},
	}
	for _, tt := range tests {
		number, ok := parseKISNumber(tt.token)
		assert.Equal(t, tt.ok, ok, tt.token)
		assert.Equal(t, tt.number, number, tt.token)
	}
}

func TestRefreshClients(t *testing.T) {
	gateway := &stubGateway{}
	eng := newTestEngine(gateway, &countingNotifier{})

	eng.RefreshClients(context.Background())
	assert.Equal(t, 1, gateway.refreshed)
}
