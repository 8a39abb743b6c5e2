package upbit

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/songzhibin97/signalflux/internal/models"
	"github.com/songzhibin97/signalflux/internal/utils/request"
	"github.com/songzhibin97/signalflux/internal/venue"
)

const defaultBaseURL = "https://api.upbit.com"

// Client implements the Venue interface for Upbit. Upbit has no SDK in our
// stack; every request carries a freshly signed JWT.
type Client struct {
	accessKey string
	secretKey string
	baseURL   string
	http      *resty.Client
}

// New creates an Upbit client handle. baseURL is overridable for tests; an
// empty string selects the production endpoint.
func New(accessKey, secretKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		accessKey: accessKey,
		secretKey: secretKey,
		baseURL:   baseURL,
		http:      request.Request,
	}
}

func (c *Client) Kind() venue.Kind { return venue.KindUpbit }

// token builds the per-request bearer token. Query parameters are hashed
// into the claims when present.
func (c *Client) token(query url.Values) (string, error) {
	claims := jwt.MapClaims{
		"access_key": c.accessKey,
		"nonce":      strconv.FormatInt(time.Now().UnixNano(), 10),
	}

	if len(query) > 0 {
		hash := sha512.Sum512([]byte(query.Encode()))
		claims["query_hash"] = hex.EncodeToString(hash[:])
		claims["query_hash_alg"] = "SHA512"
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(c.secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign request token: %w", err)
	}
	return signed, nil
}

// errorBody is Upbit's uniform error envelope.
type errorBody struct {
	Error *struct {
		Name    any    `json:"name"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	token, err := c.token(query)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+token).
		SetQueryParamsFromValues(query).
		Get(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode())
	}
	return resp.Body(), nil
}

// Balance lists the account's holdings.
func (c *Client) Balance(ctx context.Context) (*models.BalanceSnapshot, error) {
	body, err := c.get(ctx, "/v1/accounts", nil)
	if err != nil {
		return nil, err
	}
	return &models.BalanceSnapshot{
		Venue:     string(venue.KindUpbit),
		Retrieved: true,
		Raw:       body,
	}, nil
}

// Ticker queries the market ticker, e.g. KRW-BTC.
func (c *Client) Ticker(ctx context.Context, symbol string) (*models.TickerSnapshot, error) {
	query := url.Values{"markets": {symbol}}
	body, err := c.get(ctx, "/v1/ticker", query)
	if err != nil {
		return nil, err
	}
	return &models.TickerSnapshot{
		Venue:  string(venue.KindUpbit),
		Symbol: symbol,
		Raw:    body,
	}, nil
}

// Order submits an order. Upbit's market orders are asymmetric: a buy spends
// a total notional through the price field (ord_type "price"), a sell moves
// a unit volume (ord_type "market"). Limit orders set both price and volume.
func (c *Client) Order(ctx context.Context, req venue.OrderRequest) (*models.Outcome, error) {
	side := "bid"
	if req.Side == models.SideSell {
		side = "ask"
	}

	params := url.Values{}
	params.Set("market", req.Symbol)
	params.Set("side", side)

	switch req.Kind {
	case models.OrderLimit:
		params.Set("ord_type", "limit")
		params.Set("price", req.Price.String())
		params.Set("volume", req.Quantity.String())
	default: // market
		if req.Side == models.SideBuy {
			params.Set("ord_type", "price")
			params.Set("price", req.Quantity.String())
		} else {
			params.Set("ord_type", "market")
			params.Set("volume", req.Quantity.String())
		}
	}

	token, err := c.token(params)
	if err != nil {
		return nil, err
	}

	payload := map[string]string{}
	for k := range params {
		payload[k] = params.Get(k)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+token).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(c.baseURL + "/v1/orders")
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	var errBody errorBody
	_ = json.Unmarshal(resp.Body(), &errBody)
	if resp.IsError() || errBody.Error != nil {
		msg := fmt.Sprintf("order rejected with status %d", resp.StatusCode())
		if errBody.Error != nil && errBody.Error.Message != "" {
			msg = errBody.Error.Message
		}
		return &models.Outcome{Success: false, Error: msg, Raw: resp.Body()}, nil
	}

	var result struct {
		UUID string `json:"uuid"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &models.Outcome{
		Success: true,
		OrderID: result.UUID,
		Raw:     resp.Body(),
	}, nil
}
