package okx

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/songzhibin97/signalflux/internal/models"
	"github.com/songzhibin97/signalflux/internal/utils/request"
	"github.com/songzhibin97/signalflux/internal/venue"
)

const defaultBaseURL = "https://www.okx.com"

// Client implements the Venue interface for OKX v5. Authentication uses the
// key/secret/passphrase triple with an HMAC over every request.
type Client struct {
	apiKey     string
	secretKey  string
	passphrase string
	baseURL    string
	http       *resty.Client
	now        func() time.Time
}

// New creates an OKX client handle. baseURL is overridable for tests.
func New(apiKey, secretKey, passphrase, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:     apiKey,
		secretKey:  secretKey,
		passphrase: passphrase,
		baseURL:    baseURL,
		http:       request.Request,
		now:        time.Now,
	}
}

func (c *Client) Kind() venue.Kind { return venue.KindOKX }

// sign computes the v5 request signature: base64(HMAC-SHA256(ts+method+path+body)).
func (c *Client) sign(timestamp, method, path, body string) string {
	mac := hmac.New(sha256.New, []byte(c.secretKey))
	mac.Write([]byte(timestamp + method + path + body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (c *Client) headers(method, path, body string) map[string]string {
	timestamp := c.now().UTC().Format("2006-01-02T15:04:05.000Z")
	return map[string]string{
		"OK-ACCESS-KEY":        c.apiKey,
		"OK-ACCESS-SIGN":       c.sign(timestamp, method, path, body),
		"OK-ACCESS-TIMESTAMP":  timestamp,
		"OK-ACCESS-PASSPHRASE": c.passphrase,
		"Content-Type":         "application/json",
	}
}

// envelope is the uniform OKX v5 response wrapper.
type envelope struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func (c *Client) call(ctx context.Context, method, path string, body any) (*envelope, []byte, error) {
	var payload string
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		payload = string(b)
	}

	req := c.http.R().
		SetContext(ctx).
		SetHeaders(c.headers(method, path, payload))
	if payload != "" {
		req.SetBody(payload)
	}

	resp, err := req.Execute(method, c.baseURL+path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to execute request: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return nil, nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &env, resp.Body(), nil
}

// Balance queries the unified trading account balance.
func (c *Client) Balance(ctx context.Context) (*models.BalanceSnapshot, error) {
	env, raw, err := c.call(ctx, "GET", "/api/v5/account/balance", nil)
	if err != nil {
		return nil, err
	}
	if env.Code != "0" {
		return nil, fmt.Errorf("balance query rejected: %s", env.Msg)
	}
	return &models.BalanceSnapshot{
		Venue:     string(venue.KindOKX),
		Retrieved: true,
		Raw:       raw,
	}, nil
}

// Ticker queries the instrument ticker, e.g. BTC-USDT.
func (c *Client) Ticker(ctx context.Context, symbol string) (*models.TickerSnapshot, error) {
	path := "/api/v5/market/ticker?instId=" + symbol
	env, raw, err := c.call(ctx, "GET", path, nil)
	if err != nil {
		return nil, err
	}
	if env.Code != "0" {
		return nil, fmt.Errorf("ticker query rejected: %s", env.Msg)
	}
	return &models.TickerSnapshot{
		Venue:  string(venue.KindOKX),
		Symbol: symbol,
		Raw:    raw,
	}, nil
}

// Order submits a spot cash order. Success is signalled by code "0"; the
// order id comes back in data[0].ordId.
func (c *Client) Order(ctx context.Context, req venue.OrderRequest) (*models.Outcome, error) {
	body := map[string]string{
		"instId":  req.Symbol,
		"tdMode":  "cash",
		"side":    string(req.Side),
		"ordType": string(req.Kind),
		"sz":      req.Quantity.String(),
	}
	if req.Kind == models.OrderLimit {
		body["px"] = req.Price.String()
	}

	env, raw, err := c.call(ctx, "POST", "/api/v5/trade/order", body)
	if err != nil {
		return nil, err
	}

	var data []struct {
		OrdID string `json:"ordId"`
		SCode string `json:"sCode"`
		SMsg  string `json:"sMsg"`
	}
	_ = json.Unmarshal(env.Data, &data)

	if env.Code != "0" || len(data) == 0 || data[0].SCode != "0" {
		msg := env.Msg
		if len(data) > 0 && data[0].SMsg != "" {
			msg = data[0].SMsg
		}
		if msg == "" {
			msg = "order rejected"
		}
		return &models.Outcome{Success: false, Error: msg, Raw: raw}, nil
	}

	return &models.Outcome{
		Success: true,
		OrderID: data[0].OrdID,
		Raw:     raw,
	}, nil
}
