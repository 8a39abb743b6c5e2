package signal

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/songzhibin97/signalflux/internal/models"
)

// Normalize validates a raw alert payload and converts it into a canonical
// order intent. Unknown keys are ignored; the target token passes through
// untouched, no cross-venue symbol translation happens here.
func Normalize(alert models.Alert) (*models.Intent, error) {
	symbol := Field(alert, "ticker")
	action := strings.ToLower(Field(alert, "action"))
	rawQuantity := Field(alert, "quantity")

	if symbol == "" {
		return nil, fmt.Errorf("%w: ticker", ErrMissingField)
	}
	if action == "" {
		return nil, fmt.Errorf("%w: action", ErrMissingField)
	}
	if rawQuantity == "" {
		return nil, fmt.Errorf("%w: quantity", ErrMissingField)
	}

	var side models.Side
	switch models.Side(action) {
	case models.SideBuy, models.SideSell, models.SideClose:
		side = models.Side(action)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidAction, action)
	}

	quantity, err := decimal.NewFromString(rawQuantity)
	if err != nil || !quantity.IsPositive() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidQuantity, rawQuantity)
	}

	kind := models.OrderMarket
	if k := strings.ToLower(Field(alert, "order_type")); k == string(models.OrderLimit) {
		kind = models.OrderLimit
	}

	price := decimal.Zero
	if rawPrice := Field(alert, "price"); rawPrice != "" {
		price, err = decimal.NewFromString(rawPrice)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPrice, rawPrice)
		}
	}
	if kind == models.OrderLimit && !price.IsPositive() {
		return nil, fmt.Errorf("%w: limit orders require a positive price", ErrInvalidPrice)
	}

	strategy := Field(alert, "strategy")
	if strategy == "" {
		strategy = "Unknown Strategy"
	}

	return &models.Intent{
		Symbol:   symbol,
		Side:     side,
		Quantity: quantity,
		Price:    price,
		Kind:     kind,
		Exchange: strings.ToLower(Field(alert, "exchange")),
		Account:  strings.ToLower(Field(alert, "account")),
		Strategy: strategy,
	}, nil
}

// Field coerces an alert value to a string. TradingView templates emit
// quantity and price sometimes as JSON numbers, sometimes as strings.
func Field(alert models.Alert, key string) string {
	v, ok := alert[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		// shortest round-trip form, JSON numbers must not lose precision
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return fmt.Sprintf("%d", t)
	case bool:
		return fmt.Sprintf("%t", t)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", t))
	}
}
