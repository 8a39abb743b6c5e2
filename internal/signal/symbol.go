package signal

import (
	"regexp"
	"strings"
)

// Per-venue symbol patterns. KIS lists domestic equities by a 6-digit code.
var symbolPatterns = map[string]*regexp.Regexp{
	"upbit":   regexp.MustCompile(`^[A-Z]{3,4}-[A-Z0-9]{2,10}$`),  // KRW-BTC
	"binance": regexp.MustCompile(`^[A-Z0-9]{2,10}[A-Z]{3,4}$`),   // BTCUSDT
	"okx":     regexp.MustCompile(`^[A-Z0-9]{2,10}-[A-Z]{3,4}$`),  // BTC-USDT
	"bitget":  regexp.MustCompile(`^[A-Z0-9]{2,10}[A-Z]{3,4}$`),   // BTCUSDT
	"kis":     regexp.MustCompile(`^[A-Z0-9]{6}$`),                // 005930
}

var basicSymbolPattern = regexp.MustCompile(`^[A-Z0-9]{2,10}[A-Z]{3,4}$`)

// ValidSymbol reports whether symbol matches the venue's native format.
func ValidSymbol(symbol, venue string) bool {
	if symbol == "" {
		return false
	}
	pattern, ok := symbolPatterns[strings.ToLower(venue)]
	if !ok {
		pattern = basicSymbolPattern
	}
	return pattern.MatchString(symbol)
}

// TranslateSymbol converts a symbol between venue-native formats on a best
// effort basis. The mapping is heuristic and lossy (Upbit quotes in KRW, the
// others mostly in USDT), so callers must treat the result as a hint, not as
// an authoritative translation.
func TranslateSymbol(symbol, from, to string) string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	from = strings.ToLower(from)
	to = strings.ToLower(to)

	if from == "upbit" && strings.Contains(symbol, "-") {
		parts := strings.SplitN(symbol, "-", 2)
		quote, base := parts[0], parts[1]
		switch to {
		case "binance", "bitget":
			return base + quote
		case "okx":
			return base + "-" + quote
		}
		return symbol
	}

	if to == "upbit" {
		switch from {
		case "binance", "bitget":
			if strings.HasSuffix(symbol, "USDT") {
				return "KRW-" + strings.TrimSuffix(symbol, "USDT")
			}
		case "okx":
			if strings.Contains(symbol, "-") {
				return "KRW-" + strings.SplitN(symbol, "-", 2)[0]
			}
		}
	}

	return symbol
}
