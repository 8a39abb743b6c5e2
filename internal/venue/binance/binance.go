package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/adshao/go-binance/v2"

	"github.com/songzhibin97/signalflux/internal/models"
	"github.com/songzhibin97/signalflux/internal/venue"
)

// Client implements the Venue interface for Binance through the official
// SDK wrapper. Construction never touches the network.
type Client struct {
	api *binance.Client
}

// New creates an authenticated Binance client handle.
func New(apiKey, secretKey string) *Client {
	return &Client{api: binance.NewClient(apiKey, secretKey)}
}

func (c *Client) Kind() venue.Kind { return venue.KindBinance }

// Order submits a spot order and maps the SDK response to the canonical
// outcome. A non-error return from the SDK means the order was accepted.
func (c *Client) Order(ctx context.Context, req venue.OrderRequest) (*models.Outcome, error) {
	var orderType binance.OrderType
	switch req.Kind {
	case models.OrderMarket:
		orderType = binance.OrderTypeMarket
	case models.OrderLimit:
		orderType = binance.OrderTypeLimit
	default:
		return nil, fmt.Errorf("unsupported order type: %s", req.Kind)
	}

	var side binance.SideType
	switch req.Side {
	case models.SideBuy:
		side = binance.SideTypeBuy
	case models.SideSell:
		side = binance.SideTypeSell
	default:
		return nil, fmt.Errorf("invalid side: %s", req.Side)
	}

	svc := c.api.NewCreateOrderService().
		Symbol(req.Symbol).
		Side(side).
		Type(orderType).
		Quantity(req.Quantity.String())

	if orderType == binance.OrderTypeLimit {
		svc.TimeInForce(binance.TimeInForceTypeGTC)
		svc.Price(req.Price.String())
	}

	result, err := svc.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	raw, _ := json.Marshal(result)
	return &models.Outcome{
		Success: true,
		OrderID: strconv.FormatInt(result.OrderID, 10),
		Raw:     raw,
	}, nil
}

// Balance queries spot account balances.
func (c *Client) Balance(ctx context.Context) (*models.BalanceSnapshot, error) {
	account, err := c.api.NewGetAccountService().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get account info: %w", err)
	}

	raw, _ := json.Marshal(account.Balances)
	return &models.BalanceSnapshot{
		Venue:     string(venue.KindBinance),
		Retrieved: true,
		Raw:       raw,
	}, nil
}

// Ticker queries the last price for a symbol.
func (c *Client) Ticker(ctx context.Context, symbol string) (*models.TickerSnapshot, error) {
	prices, err := c.api.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get ticker: %w", err)
	}
	if len(prices) == 0 {
		return nil, fmt.Errorf("no ticker for symbol: %s", symbol)
	}

	raw, _ := json.Marshal(prices[0])
	return &models.TickerSnapshot{
		Venue:  string(venue.KindBinance),
		Symbol: symbol,
		Raw:    raw,
	}, nil
}
