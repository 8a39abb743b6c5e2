package bitget

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/songzhibin97/signalflux/internal/models"
	"github.com/songzhibin97/signalflux/internal/utils/request"
	"github.com/songzhibin97/signalflux/internal/venue"
)

const (
	defaultBaseURL = "https://api.bitget.com"

	codeOK = "00000"
)

// Client implements the Venue interface for Bitget v2 spot. Demo accounts
// hit the same endpoint; the paptrading header routes them to the sandbox.
type Client struct {
	signer  *Signer
	demo    bool
	baseURL string
	http    *resty.Client
}

// New creates a Bitget client handle. baseURL is overridable for tests.
func New(accessKey, secretKey, passphrase string, demo bool, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		signer:  NewSigner(accessKey, secretKey, passphrase),
		demo:    demo,
		baseURL: baseURL,
		http:    request.Request,
	}
}

func (c *Client) Kind() venue.Kind { return venue.KindBitget }

// envelope is the uniform Bitget v2 response wrapper.
type envelope struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func (c *Client) call(ctx context.Context, method, path, query string, body any) (*envelope, []byte, error) {
	var payload string
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		payload = string(b)
	}

	headers := c.signer.Headers(method, path, query, payload)
	if c.demo {
		headers["paptrading"] = "1"
	}

	req := c.http.R().SetContext(ctx).SetHeaders(headers)
	if payload != "" {
		req.SetBody(payload)
	}

	url := c.baseURL + path
	if query != "" {
		url += "?" + query
	}

	resp, err := req.Execute(method, url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to execute request: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return nil, nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &env, resp.Body(), nil
}

// Balance lists spot account assets.
func (c *Client) Balance(ctx context.Context) (*models.BalanceSnapshot, error) {
	env, raw, err := c.call(ctx, "GET", "/api/v2/spot/account/assets", "", nil)
	if err != nil {
		return nil, err
	}
	if env.Code != codeOK {
		return nil, fmt.Errorf("balance query rejected: %s", env.Msg)
	}
	return &models.BalanceSnapshot{
		Venue:     string(venue.KindBitget),
		Retrieved: true,
		Raw:       raw,
	}, nil
}

// Ticker queries the spot ticker, e.g. BTCUSDT.
func (c *Client) Ticker(ctx context.Context, symbol string) (*models.TickerSnapshot, error) {
	env, raw, err := c.call(ctx, "GET", "/api/v2/spot/market/tickers", "symbol="+symbol, nil)
	if err != nil {
		return nil, err
	}
	if env.Code != codeOK {
		return nil, fmt.Errorf("ticker query rejected: %s", env.Msg)
	}
	return &models.TickerSnapshot{
		Venue:  string(venue.KindBitget),
		Symbol: symbol,
		Raw:    raw,
	}, nil
}

// Order submits a spot order. Success is signalled by code "00000"; the
// order id comes back in data.orderId.
func (c *Client) Order(ctx context.Context, req venue.OrderRequest) (*models.Outcome, error) {
	body := map[string]string{
		"symbol":    req.Symbol,
		"side":      string(req.Side),
		"orderType": string(req.Kind),
		"force":     "gtc",
		"size":      req.Quantity.String(),
	}
	if req.Kind == models.OrderLimit {
		body["price"] = req.Price.String()
	}

	env, raw, err := c.call(ctx, "POST", "/api/v2/spot/trade/place-order", "", body)
	if err != nil {
		return nil, err
	}

	if env.Code != codeOK {
		msg := env.Msg
		if msg == "" {
			msg = "order rejected"
		}
		return &models.Outcome{Success: false, Error: msg, Raw: raw}, nil
	}

	var data struct {
		OrderID string `json:"orderId"`
	}
	_ = json.Unmarshal(env.Data, &data)

	return &models.Outcome{
		Success: true,
		OrderID: data.OrderID,
		Raw:     raw,
	}, nil
}
