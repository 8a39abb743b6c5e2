package engine

import (
	"context"
	"strings"
	"time"

	"github.com/songzhibin97/signalflux/internal/models"
)

// PortfolioStatus polls every configured venue and account for balance
// reachability. The snapshot is rebuilt in full on every call; nothing is
// cached. The poll is bounded by the number of configured venues.
func (e *Engine) PortfolioStatus(ctx context.Context) *models.PortfolioSnapshot {
	snapshot := &models.PortfolioSnapshot{
		Timestamp: time.Now(),
		Accounts:  map[string]models.AccountStatus{},
	}

	// Exchange kinds are always reported, configured or not.
	for name := range knownExchanges {
		if _, ok := e.gateway.Get(name); !ok {
			snapshot.Accounts[name] = models.AccountStatus{Status: models.StatusNotConfigured}
			continue
		}
		snapshot.Accounts[name] = e.probe(ctx, name)
	}

	// Brokerage accounts only exist as tokens when a handle was built.
	for _, token := range e.gateway.Tokens() {
		if !strings.HasPrefix(token, kisAccountPrefix) {
			continue
		}
		snapshot.Accounts[token] = e.probe(ctx, token)
	}

	for _, status := range snapshot.Accounts {
		if status.Status == models.StatusActive {
			snapshot.ActiveAccounts++
		}
	}

	return snapshot
}

func (e *Engine) probe(ctx context.Context, token string) models.AccountStatus {
	if _, err := e.gateway.Balance(ctx, token); err != nil {
		return models.AccountStatus{Status: models.StatusError, Detail: err.Error()}
	}
	return models.AccountStatus{Status: models.StatusActive}
}
