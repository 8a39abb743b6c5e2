package kis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/songzhibin97/signalflux/internal/models"
	"github.com/songzhibin97/signalflux/internal/utils/request"
	"github.com/songzhibin97/signalflux/internal/venue"
)

const defaultBaseURL = "https://openapi.koreainvestment.com:9443"

// Transaction ids and sentinel codes from the published KIS open API. These
// are opaque values with no derivation; they must match the docs exactly.
const (
	trIDOrderBuy     = "VTTC0802U" // 주식 현금 매수 주문
	trIDOrderSell    = "VTTC0801U" // 주식 현금 매도 주문
	trIDBalance      = "VTTC8434R"
	trIDCurrentPrice = "FHKST01010100"

	orderTypeMarket = "01"
	orderTypeLimit  = "00"

	returnCodeOK = "0"
)

// Config carries one brokerage account's credential record.
type Config struct {
	AppKey        string
	AppSecret     string
	AccountNumber string
	AccountCode   string
	BaseURL       string // overridable for tests
}

// Client implements the Venue interface for a single KIS brokerage account.
// The bearer token is fetched once at construction and reused for the
// lifetime of the handle; a refresh rebuilds the handle and the token.
type Client struct {
	cfg         Config
	accessToken string
	http        *resty.Client
}

// New creates a KIS client handle, fetching the access token up front.
// Token fetch failure fails construction so the registry can omit the account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}

	c := &Client{cfg: cfg, http: request.Request}
	if err := c.fetchToken(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) Kind() venue.Kind { return venue.KindKIS }

func (c *Client) fetchToken(ctx context.Context) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"grant_type": "client_credentials",
			"appkey":     c.cfg.AppKey,
			"appsecret":  c.cfg.AppSecret,
		}).
		Post(c.cfg.BaseURL + "/oauth2/tokenP")
	if err != nil {
		return fmt.Errorf("failed to request access token: %w", err)
	}

	var result struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return fmt.Errorf("failed to decode token response: %w", err)
	}
	if result.AccessToken == "" {
		return fmt.Errorf("%w: empty access token", venue.ErrAuthFailure)
	}

	c.accessToken = result.AccessToken
	return nil
}

func (c *Client) headers(trID string) map[string]string {
	return map[string]string{
		"Content-Type":  "application/json; charset=utf-8",
		"authorization": "Bearer " + c.accessToken,
		"appkey":        c.cfg.AppKey,
		"appsecret":     c.cfg.AppSecret,
		"tr_id":         trID,
	}
}

// Balance queries the account's stock balance.
func (c *Client) Balance(ctx context.Context) (*models.BalanceSnapshot, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeaders(c.headers(trIDBalance)).
		SetQueryParams(map[string]string{
			"CANO":                  c.cfg.AccountNumber,
			"ACNT_PRDT_CD":          c.cfg.AccountCode,
			"AFHR_FLPR_YN":          "N",
			"OFL_YN":                "",
			"INQR_DVSN":             "02",
			"UNPR_DVSN":             "01",
			"FUND_STTL_ICLD_YN":     "N",
			"FNCG_AMT_AUTO_RDPT_YN": "N",
			"PRCS_DVSN":             "01",
			"CTX_AREA_FK100":        "",
			"CTX_AREA_NK100":        "",
		}).
		Get(c.cfg.BaseURL + "/uapi/domestic-stock/v1/trading/inquire-balance")
	if err != nil {
		return nil, fmt.Errorf("failed to query balance: %w", err)
	}

	var result struct {
		ReturnCode string `json:"rt_cd"`
		Message    string `json:"msg1"`
	}
	_ = json.Unmarshal(resp.Body(), &result)
	if result.ReturnCode != returnCodeOK {
		return nil, fmt.Errorf("balance query rejected: %s", result.Message)
	}

	return &models.BalanceSnapshot{
		Venue:     string(venue.KindKIS),
		Retrieved: true,
		Raw:       resp.Body(),
	}, nil
}

// Ticker queries the current price of a domestic stock code.
func (c *Client) Ticker(ctx context.Context, symbol string) (*models.TickerSnapshot, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeaders(c.headers(trIDCurrentPrice)).
		SetQueryParams(map[string]string{
			"FID_COND_MRKT_DIV_CODE": "J",
			"FID_INPUT_ISCD":         symbol,
		}).
		Get(c.cfg.BaseURL + "/uapi/domestic-stock/v1/quotations/inquire-price")
	if err != nil {
		return nil, fmt.Errorf("failed to query price: %w", err)
	}

	var result struct {
		ReturnCode string `json:"rt_cd"`
		Message    string `json:"msg1"`
	}
	_ = json.Unmarshal(resp.Body(), &result)
	if result.ReturnCode != returnCodeOK {
		return nil, fmt.Errorf("price query rejected: %s", result.Message)
	}

	return &models.TickerSnapshot{
		Venue:  string(venue.KindKIS),
		Symbol: symbol,
		Raw:    resp.Body(),
	}, nil
}

// Order submits a cash stock order. Quantity and price are whole units;
// market orders send unit price 0. Buy and sell use different tr_ids, and
// success is signalled by the rt_cd field, not the HTTP status.
func (c *Client) Order(ctx context.Context, req venue.OrderRequest) (*models.Outcome, error) {
	orderType := orderTypeLimit
	price := req.Price.IntPart()
	if req.Kind == models.OrderMarket {
		orderType = orderTypeMarket
		price = 0
	}

	trID := trIDOrderBuy
	if req.Side == models.SideSell {
		trID = trIDOrderSell
	}

	headers := c.headers(trID)
	headers["custtype"] = "P" // 개인

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetBody(map[string]string{
			"CANO":         c.cfg.AccountNumber,
			"ACNT_PRDT_CD": c.cfg.AccountCode,
			"PDNO":         req.Symbol,
			"ORD_DVSN":     orderType,
			"ORD_QTY":      fmt.Sprintf("%d", req.Quantity.IntPart()),
			"ORD_UNPR":     fmt.Sprintf("%d", price),
		}).
		Post(c.cfg.BaseURL + "/uapi/domestic-stock/v1/trading/order-cash")
	if err != nil {
		return nil, fmt.Errorf("failed to submit order: %w", err)
	}

	var result struct {
		ReturnCode string `json:"rt_cd"`
		Message    string `json:"msg1"`
		OrderOrg   string `json:"KRX_FWDG_ORD_ORGNO"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if result.ReturnCode != returnCodeOK {
		msg := result.Message
		if msg == "" {
			msg = "order rejected"
		}
		return &models.Outcome{Success: false, Error: msg, Raw: resp.Body()}, nil
	}

	return &models.Outcome{
		Success: true,
		OrderID: result.OrderOrg,
		Raw:     resp.Body(),
	}, nil
}
