package binance

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/songzhibin97/signalflux/internal/models"
	"github.com/songzhibin97/signalflux/internal/venue"
)

func init() {
	binance.UseTestnet = true
}

func TestClient_Kind(t *testing.T) {
	client := New("", "")
	assert.Equal(t, venue.KindBinance, client.Kind())
}

func TestClient_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	apiKey := os.Getenv("BINANCE_API_KEY")
	secretKey := os.Getenv("BINANCE_SECRET_KEY")
	if apiKey == "" || secretKey == "" {
		t.Skip("BINANCE_API_KEY / BINANCE_SECRET_KEY not set")
	}

	client := New(apiKey, secretKey)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	t.Run("balance", func(t *testing.T) {
		snapshot, err := client.Balance(ctx)
		require.NoError(t, err)
		assert.True(t, snapshot.Retrieved)
	})

	t.Run("ticker", func(t *testing.T) {
		snapshot, err := client.Ticker(ctx, "BTCUSDT")
		require.NoError(t, err)
		assert.Equal(t, "BTCUSDT", snapshot.Symbol)
		assert.NotEmpty(t, snapshot.Raw)
	})

	t.Run("limit order far from market", func(t *testing.T) {
		outcome, err := client.Order(ctx, venue.OrderRequest{
			Symbol:   "BTCUSDT",
			Side:     models.SideBuy,
			Quantity: decimal.RequireFromString("0.001"),
			Price:    decimal.RequireFromString("10000"), // deep below market so it rests
			Kind:     models.OrderLimit,
		})
		require.NoError(t, err)
		assert.True(t, outcome.Success)
		assert.NotEmpty(t, outcome.OrderID)
	})
}
