package signal

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/songzhibin97/signalflux/internal/models"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		alert   models.Alert
		wantErr error
		check   func(t *testing.T, intent *models.Intent)
	}{
		{
			name: "basic market buy",
			alert: models.Alert{
				"ticker":   "BTCUSDT",
				"action":   "buy",
				"quantity": "0.5",
				"exchange": "binance",
			},
			check: func(t *testing.T, intent *models.Intent) {
				assert.Equal(t, "BTCUSDT", intent.Symbol)
				assert.Equal(t, models.SideBuy, intent.Side)
				assert.Equal(t, models.OrderMarket, intent.Kind)
				assert.Equal(t, "0.5", intent.Quantity.String())
				assert.Equal(t, "binance", intent.Exchange)
				assert.Equal(t, "Unknown Strategy", intent.Strategy)
			},
		},
		{
			name: "numeric quantity and price",
			alert: models.Alert{
				"ticker":     "005930",
				"action":     "SELL",
				"quantity":   float64(10),
				"price":      float64(72500),
				"order_type": "limit",
				"account":    "KIS3",
				"strategy":   "momentum",
			},
			check: func(t *testing.T, intent *models.Intent) {
				assert.Equal(t, models.SideSell, intent.Side)
				assert.Equal(t, models.OrderLimit, intent.Kind)
				assert.Equal(t, "10", intent.Quantity.String())
				assert.Equal(t, "72500", intent.Price.String())
				assert.Equal(t, "kis3", intent.Account)
				assert.Equal(t, "momentum", intent.Strategy)
			},
		},
		{
			name: "high precision float quantity survives",
			alert: models.Alert{
				"ticker":   "BTCUSDT",
				"action":   "buy",
				"quantity": 0.1234567,
			},
			check: func(t *testing.T, intent *models.Intent) {
				assert.Equal(t, "0.1234567", intent.Quantity.String())
			},
		},
		{
			name: "sub-micro float quantity stays positive",
			alert: models.Alert{
				"ticker":   "BTCUSDT",
				"action":   "buy",
				"quantity": 0.0000001,
			},
			check: func(t *testing.T, intent *models.Intent) {
				assert.Equal(t, "0.0000001", intent.Quantity.String())
			},
		},
		{
			name: "json.Number quantity",
			alert: models.Alert{
				"ticker":   "KRW-BTC",
				"action":   "buy",
				"quantity": json.Number("100000"),
				"exchange": "upbit",
			},
			check: func(t *testing.T, intent *models.Intent) {
				assert.Equal(t, "100000", intent.Quantity.String())
			},
		},
		{
			name: "close keeps quantity",
			alert: models.Alert{
				"ticker":   "BTCUSDT",
				"action":   "close",
				"quantity": "1",
			},
			check: func(t *testing.T, intent *models.Intent) {
				assert.Equal(t, models.SideClose, intent.Side)
			},
		},
		{
			name:    "missing ticker",
			alert:   models.Alert{"action": "buy", "quantity": "1"},
			wantErr: ErrMissingField,
		},
		{
			name:    "missing action",
			alert:   models.Alert{"ticker": "BTCUSDT", "quantity": "1"},
			wantErr: ErrMissingField,
		},
		{
			name:    "missing quantity",
			alert:   models.Alert{"ticker": "BTCUSDT", "action": "buy"},
			wantErr: ErrMissingField,
		},
		{
			name:    "unknown action",
			alert:   models.Alert{"ticker": "BTCUSDT", "action": "hold", "quantity": "1"},
			wantErr: ErrInvalidAction,
		},
		{
			name:    "zero quantity",
			alert:   models.Alert{"ticker": "BTCUSDT", "action": "buy", "quantity": "0"},
			wantErr: ErrInvalidQuantity,
		},
		{
			name:    "negative quantity",
			alert:   models.Alert{"ticker": "BTCUSDT", "action": "buy", "quantity": "-3"},
			wantErr: ErrInvalidQuantity,
		},
		{
			name:    "garbage quantity",
			alert:   models.Alert{"ticker": "BTCUSDT", "action": "buy", "quantity": "lots"},
			wantErr: ErrInvalidQuantity,
		},
		{
			name: "limit without price",
			alert: models.Alert{
				"ticker": "BTCUSDT", "action": "buy",
				"quantity": "1", "order_type": "limit",
			},
			wantErr: ErrInvalidPrice,
		},
		{
			name: "limit with negative price",
			alert: models.Alert{
				"ticker": "BTCUSDT", "action": "buy",
				"quantity": "1", "price": "-5", "order_type": "limit",
			},
			wantErr: ErrInvalidPrice,
		},
		{
			name: "garbage price",
			alert: models.Alert{
				"ticker": "BTCUSDT", "action": "buy",
				"quantity": "1", "price": "cheap",
			},
			wantErr: ErrInvalidPrice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent, err := Normalize(tt.alert)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, intent)
			if tt.check != nil {
				tt.check(t, intent)
			}
		})
	}
}

func TestIntentTarget(t *testing.T) {
	intent := &models.Intent{Exchange: "binance"}
	assert.Equal(t, "binance", intent.Target())

	// account wins over exchange when both are present
	intent.Account = "kis5"
	assert.Equal(t, "kis5", intent.Target())
}

func TestField(t *testing.T) {
	alert := models.Alert{
		"s": " padded ",
		"n": json.Number("1.25"),
		"f": 3.50,
		"i": 7,
		"b": true,
		"z": nil,
	}

	assert.Equal(t, "padded", Field(alert, "s"))
	assert.Equal(t, "1.25", Field(alert, "n"))
	assert.Equal(t, "3.5", Field(alert, "f"))
	assert.Equal(t, "7", Field(alert, "i"))
	assert.Equal(t, "true", Field(alert, "b"))
	assert.Equal(t, "", Field(alert, "z"))
	assert.Equal(t, "", Field(alert, "missing"))
}
