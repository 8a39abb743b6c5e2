package notify

import (
	"context"

	"github.com/shopspring/decimal"
)

// Notifier delivers human-readable status and outcome messages to an
// external channel. Delivery is fire-and-forget: the router logs failures
// and never raises them to its caller.
type Notifier interface {
	// Send delivers a plain text message.
	Send(ctx context.Context, content string) error

	// SendTradingAlert reports one routed order attempt.
	SendTradingAlert(ctx context.Context, symbol, action string, quantity, price decimal.Decimal, status, message string) error

	// SendErrorAlert reports a failure with optional detail.
	SendErrorAlert(ctx context.Context, errType, errMessage, details string) error

	// SendStatusUpdate reports bot health with optional key/value fields.
	SendStatusUpdate(ctx context.Context, status string, details map[string]string) error
}
