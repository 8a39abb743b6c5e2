package engine

import (
	"context"
	"log/slog"

	"github.com/songzhibin97/signalflux/internal/ai"
	"github.com/songzhibin97/signalflux/internal/data"
	"github.com/songzhibin97/signalflux/internal/models"
	"github.com/songzhibin97/signalflux/internal/notify"
	"github.com/songzhibin97/signalflux/internal/venue"
)

// Gateway is the registry surface the engine routes through.
type Gateway interface {
	Get(token string) (venue.Venue, bool)
	Order(ctx context.Context, token string, req venue.OrderRequest) *models.Outcome
	Balance(ctx context.Context, token string) (*models.BalanceSnapshot, error)
	Ticker(ctx context.Context, token, symbol string) (*models.TickerSnapshot, error)
	Tokens() []string
	RefreshAll(ctx context.Context)
}

// Engine turns normalized signals into venue orders and reports outcomes.
// History storage and the AI analyzer are optional; a nil value disables
// the corresponding behavior.
type Engine struct {
	gateway  Gateway
	notifier notify.Notifier
	history  data.SignalStorage
	analyzer ai.Analyzer
	log      *slog.Logger
}

// New creates an engine. history and analyzer may be nil.
func New(gateway Gateway, notifier notify.Notifier, history data.SignalStorage, analyzer ai.Analyzer, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		gateway:  gateway,
		notifier: notifier,
		history:  history,
		analyzer: analyzer,
		log:      log,
	}
}

// RefreshClients rebuilds every venue client handle from the current
// credential records.
func (e *Engine) RefreshClients(ctx context.Context) {
	e.gateway.RefreshAll(ctx)
}

// notify logs a notification delivery failure. Notification problems never
// propagate to the router's caller.
func (e *Engine) notify(err error) {
	if err != nil {
		e.log.Error("failed to send notification", "err", err)
	}
}
