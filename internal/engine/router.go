package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/songzhibin97/signalflux/internal/credential"
	"github.com/songzhibin97/signalflux/internal/models"
	"github.com/songzhibin97/signalflux/internal/signal"
	"github.com/songzhibin97/signalflux/internal/venue"
)

const kisAccountPrefix = "kis"

// Exchange names the router accepts as targets.
var knownExchanges = map[string]bool{
	"binance": true,
	"okx":     true,
	"bitget":  true,
	"upbit":   true,
}

// ProcessSignal runs one inbound alert end to end: received notice,
// normalization, routing, venue call, result notice. It always returns an
// outcome and never panics a venue failure up to the HTTP layer.
func (e *Engine) ProcessSignal(ctx context.Context, alert models.Alert) *models.Outcome {
	e.notify(e.notifier.Send(ctx, receivedNotice(alert)))

	intent, err := signal.Normalize(alert)
	if err != nil {
		// Validation failures return immediately; the received notice above
		// is the only notification for them.
		e.log.Warn("rejected signal", "err", err)
		return models.Failure(err.Error())
	}

	e.log.Info("processing signal",
		"action", intent.Side, "quantity", intent.Quantity, "symbol", intent.Symbol,
		"target", intent.Target(), "strategy", intent.Strategy)

	var outcome *models.Outcome
	switch intent.Side {
	case models.SideClose:
		outcome = e.closePosition(ctx, intent)
	default:
		outcome = e.executeTrade(ctx, intent)
	}

	e.record(ctx, intent, outcome)
	return outcome
}

// executeTrade resolves the target token and dispatches the order.
func (e *Engine) executeTrade(ctx context.Context, intent *models.Intent) *models.Outcome {
	target := intent.Target()

	switch {
	case strings.HasPrefix(target, kisAccountPrefix):
		if _, ok := parseKISNumber(target); !ok {
			e.log.Warn("unsupported target", "target", target)
			return models.Failure(fmt.Sprintf("%s: %s", signal.ErrUnsupportedTarget, target))
		}
		return e.dispatch(ctx, intent, target, brokerageRequest(intent))

	case knownExchanges[target]:
		return e.dispatch(ctx, intent, target, venue.OrderRequest{
			Symbol:   intent.Symbol,
			Side:     intent.Side,
			Quantity: intent.Quantity,
			Price:    intent.Price,
			Kind:     intent.Kind,
		})

	default:
		e.log.Warn("unsupported target", "target", target)
		return models.Failure(fmt.Sprintf("%s: %s", signal.ErrUnsupportedTarget, target))
	}
}

// dispatch performs the venue call and sends exactly one result notice for
// the routed attempt, success or failure.
func (e *Engine) dispatch(ctx context.Context, intent *models.Intent, token string, req venue.OrderRequest) *models.Outcome {
	outcome := e.gateway.Order(ctx, token, req)

	if outcome.Success {
		e.notify(e.notifier.SendTradingAlert(ctx,
			intent.Symbol, strings.ToUpper(string(intent.Side)), intent.Quantity, intent.Price,
			"success", fmt.Sprintf("Order executed. Order ID: %s", orderIDOrNA(outcome))))
	} else {
		e.notify(e.notifier.SendTradingAlert(ctx,
			intent.Symbol, strings.ToUpper(string(intent.Side)), intent.Quantity, intent.Price,
			"failed", outcome.Error))
	}

	return outcome
}

// closePosition queries the balance of the resolved target and reports the
// close attempt. No liquidation order is placed: the bridge keeps no
// position ledger, so it cannot know what to flatten. Changing this needs
// product input, not a code fix.
func (e *Engine) closePosition(ctx context.Context, intent *models.Intent) *models.Outcome {
	target := intent.Target()

	if strings.HasPrefix(target, kisAccountPrefix) {
		if _, ok := parseKISNumber(target); !ok {
			return models.Failure(fmt.Sprintf("%s: %s", signal.ErrUnsupportedTarget, target))
		}
	} else if !knownExchanges[target] {
		return models.Failure(fmt.Sprintf("%s: %s", signal.ErrUnsupportedTarget, target))
	}

	if _, err := e.gateway.Balance(ctx, target); err != nil {
		e.log.Error("close: failed to get balance", "target", target, "err", err)
		return models.Failure("Failed to get balance information")
	}

	e.notify(e.notifier.Send(ctx, fmt.Sprintf(
		"📤 **Position close attempted**\n• Symbol: %s\n• Target: %s\n• Strategy: %s",
		intent.Symbol, target, intent.Strategy)))

	return &models.Outcome{Success: true, Message: "Position close attempted"}
}

// brokerageRequest truncates quantity and price to whole units; the
// brokerage venue trades integer share counts only.
func brokerageRequest(intent *models.Intent) venue.OrderRequest {
	price := decimal.Zero
	if intent.Kind == models.OrderLimit && intent.Price.IsPositive() {
		price = intent.Price.Truncate(0)
	}
	return venue.OrderRequest{
		Symbol:   intent.Symbol,
		Side:     intent.Side,
		Quantity: intent.Quantity.Truncate(0),
		Price:    price,
		Kind:     intent.Kind,
	}
}

// parseKISNumber extracts and range-checks the account slot from a kis<N>
// token. Out-of-range slots are unsupported targets, not lookup misses.
// Zero-padded forms like kis007 are rejected too: the handle map is keyed
// on the canonical token, so they could never resolve.
func parseKISNumber(token string) (int, bool) {
	number, err := strconv.Atoi(strings.TrimPrefix(token, kisAccountPrefix))
	if err != nil || number < 1 || number > credential.MaxKISAccounts {
		return 0, false
	}
	if token != fmt.Sprintf("%s%d", kisAccountPrefix, number) {
		return 0, false
	}
	return number, true
}

// receivedNotice is built from the raw alert: it goes out before
// validation, so it must not depend on a successfully normalized intent.
func receivedNotice(alert models.Alert) string {
	target := signal.Field(alert, "account")
	if target == "" {
		target = signal.Field(alert, "exchange")
	}
	strategy := signal.Field(alert, "strategy")
	if strategy == "" {
		strategy = "Unknown Strategy"
	}
	return fmt.Sprintf(
		"📥 **Signal received**\n• Strategy: %s\n• Symbol: %s\n• Action: %s\n• Quantity: %s\n• Price: %s\n• Target: %s",
		strategy, signal.Field(alert, "ticker"), strings.ToUpper(signal.Field(alert, "action")),
		signal.Field(alert, "quantity"), signal.Field(alert, "price"), strings.ToUpper(target))
}

func orderIDOrNA(outcome *models.Outcome) string {
	if outcome.OrderID == "" {
		return "N/A"
	}
	return outcome.OrderID
}

// record persists the processed signal when history storage is configured.
// Failures are logged only; the audit trail is best effort.
func (e *Engine) record(ctx context.Context, intent *models.Intent, outcome *models.Outcome) {
	if e.history == nil {
		return
	}

	rec := &models.SignalRecord{
		ReceivedAt: time.Now(),
		Strategy:   intent.Strategy,
		Symbol:     intent.Symbol,
		Action:     string(intent.Side),
		Quantity:   intent.Quantity.String(),
		Price:      intent.Price.String(),
		Target:     intent.Target(),
		Success:    outcome.Success,
		OrderID:    outcome.OrderID,
		Error:      outcome.Error,
	}
	if err := e.history.SaveSignal(ctx, rec); err != nil {
		e.log.Error("failed to record signal", "err", err)
	}
}
