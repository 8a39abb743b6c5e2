package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Alert is the raw webhook payload as received from the charting service.
// TradingView sends a flat JSON object; only ticker, action and quantity are
// required, everything else is optional and unknown keys are ignored.
type Alert map[string]any

// Side 주문 방향
type Side string

const (
	SideBuy   Side = "buy"
	SideSell  Side = "sell"
	SideClose Side = "close"
)

// OrderKind 주문 유형
type OrderKind string

const (
	OrderMarket OrderKind = "market"
	OrderLimit  OrderKind = "limit"
)

// Intent is the canonical, venue-agnostic order produced by the normalizer.
type Intent struct {
	Symbol   string          `json:"symbol"`
	Side     Side            `json:"side"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"` // zero means market / no limit price
	Kind     OrderKind       `json:"order_type"`
	Exchange string          `json:"exchange,omitempty"`
	Account  string          `json:"account,omitempty"` // e.g. kis3
	Strategy string          `json:"strategy,omitempty"`
}

// Target returns the venue-or-account token this intent should be routed to.
// A brokerage account token wins over an exchange name when both are set.
func (i *Intent) Target() string {
	if i.Account != "" {
		return i.Account
	}
	return i.Exchange
}

// Outcome is the canonical result of a routed order attempt.
type Outcome struct {
	Success bool            `json:"success"`
	OrderID string          `json:"order_id,omitempty"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
	Raw     json.RawMessage `json:"-"` // venue response, diagnostics only
}

// Failure builds a failed outcome from an error message.
func Failure(msg string) *Outcome {
	return &Outcome{Success: false, Error: msg}
}

// BalanceSnapshot reports whether a balance could be retrieved from a venue.
// Venues disagree on wire shape, so only the raw body is carried along.
type BalanceSnapshot struct {
	Venue     string          `json:"venue"`
	Retrieved bool            `json:"retrieved"`
	Raw       json.RawMessage `json:"-"`
}

// TickerSnapshot 시세 조회 결과
type TickerSnapshot struct {
	Venue  string          `json:"venue"`
	Symbol string          `json:"symbol"`
	Raw    json.RawMessage `json:"-"`
}

// Account status values reported by the portfolio aggregator.
const (
	StatusActive        = "active"
	StatusError         = "error"
	StatusNotConfigured = "not_configured"
)

// AccountStatus 계좌 상태
type AccountStatus struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// PortfolioSnapshot is a full poll of every configured venue and account.
// It is rebuilt from scratch on every request, never cached.
type PortfolioSnapshot struct {
	Timestamp      time.Time                `json:"timestamp"`
	Accounts       map[string]AccountStatus `json:"accounts"`
	ActiveAccounts int                      `json:"total_active_accounts"`
}

// SignalRecord is the persisted trace of one processed signal.
type SignalRecord struct {
	ReceivedAt time.Time `json:"received_at"`
	Strategy   string    `json:"strategy"`
	Symbol     string    `json:"symbol"`
	Action     string    `json:"action"`
	Quantity   string    `json:"quantity"`
	Price      string    `json:"price"`
	Target     string    `json:"target"`
	Success    bool      `json:"success"`
	OrderID    string    `json:"order_id"`
	Error      string    `json:"error"`
}
