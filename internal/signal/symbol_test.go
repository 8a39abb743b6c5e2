package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidSymbol(t *testing.T) {
	tests := []struct {
		symbol string
		venue  string
		want   bool
	}{
		{"KRW-BTC", "upbit", true},
		{"BTCUSDT", "upbit", false},
		{"BTCUSDT", "binance", true},
		{"KRW-BTC", "binance", false},
		{"BTC-USDT", "okx", true},
		{"BTCUSDT", "okx", false},
		{"BTCUSDT", "bitget", true},
		{"005930", "kis", true},
		{"5930", "kis", false},
		{"BTCUSDT", "kis", false},
		{"", "binance", false},
		{"BTCUSDT", "unknown", true}, // falls back to the generic pattern
	}

	for _, tt := range tests {
		t.Run(tt.venue+"/"+tt.symbol, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidSymbol(tt.symbol, tt.venue))
		})
	}
}

func TestTranslateSymbol(t *testing.T) {
	assert.Equal(t, "BTCKRW", TranslateSymbol("KRW-BTC", "upbit", "binance"))
	assert.Equal(t, "BTC-KRW", TranslateSymbol("KRW-BTC", "upbit", "okx"))
	assert.Equal(t, "KRW-BTC", TranslateSymbol("BTCUSDT", "binance", "upbit"))
	assert.Equal(t, "KRW-BTC", TranslateSymbol("BTC-USDT", "okx", "upbit"))
	// unknown mapping passes through unchanged
	assert.Equal(t, "005930", TranslateSymbol("005930", "kis", "binance"))
}
