package venue

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/songzhibin97/signalflux/internal/models"
)

// Kind identifies a venue adapter implementation.
type Kind string

const (
	KindBinance Kind = "binance"
	KindOKX     Kind = "okx"
	KindBitget  Kind = "bitget"
	KindUpbit   Kind = "upbit"
	KindKIS     Kind = "kis"
)

// OrderRequest carries the venue-agnostic parameters of one order. Each
// adapter translates it into its own wire format; the formats are never
// unified, only this interface is.
type OrderRequest struct {
	Symbol   string
	Side     models.Side // buy or sell, close never reaches an adapter
	Quantity decimal.Decimal
	Price    decimal.Decimal // zero for market orders
	Kind     models.OrderKind
}

// Venue is an authenticated client handle bound to one credential snapshot.
// Handles are owned by the registry; a handle stays valid for in-flight
// callers even after the registry refreshes.
type Venue interface {
	// Kind returns the adapter's venue kind.
	Kind() Kind

	// Balance queries the account balance. Wire shapes differ per venue, so
	// only retrievability plus the raw body is reported.
	Balance(ctx context.Context) (*models.BalanceSnapshot, error)

	// Ticker queries the venue-native ticker for a symbol.
	Ticker(ctx context.Context, symbol string) (*models.TickerSnapshot, error)

	// Order submits an order. Venue-level rejections come back as a failed
	// outcome; transport and auth errors come back as an error.
	Order(ctx context.Context, req OrderRequest) (*models.Outcome, error)
}

// Registry boundary errors.
var (
	ErrClientNotFound = errors.New("no client for target")
	ErrAuthFailure    = errors.New("venue authentication failed")
)
