package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/songzhibin97/signalflux/internal/credential"
	"github.com/songzhibin97/signalflux/internal/models"
	"github.com/songzhibin97/signalflux/internal/venue"
	"github.com/songzhibin97/signalflux/internal/venue/binance"
	"github.com/songzhibin97/signalflux/internal/venue/bitget"
	"github.com/songzhibin97/signalflux/internal/venue/kis"
	"github.com/songzhibin97/signalflux/internal/venue/okx"
	"github.com/songzhibin97/signalflux/internal/venue/upbit"
)

// Registry owns the mapping from venue-or-account token to an authenticated
// client handle. At most one handle exists per token. RefreshAll builds a
// brand-new map and swaps it in under the lock, so readers observe either
// the old or the new fully-built map, never a partial one. Callers that
// captured a handle before a refresh keep using it untouched.
type Registry struct {
	creds     credential.Store
	log       *slog.Logger
	endpoints map[venue.Kind]string // test overrides, empty in production

	mu      sync.RWMutex
	handles map[string]venue.Venue
}

// Option configures a Registry.
type Option func(*Registry)

// WithEndpoints overrides venue base URLs, used by tests to point adapters
// at local mock servers.
func WithEndpoints(endpoints map[venue.Kind]string) Option {
	return func(r *Registry) {
		for k, v := range endpoints {
			r.endpoints[k] = v
		}
	}
}

// New creates an empty registry; call ConstructAll to build handles.
func New(creds credential.Store, log *slog.Logger, opts ...Option) *Registry {
	if log == nil {
		log = slog.Default()
	}
	r := &Registry{
		creds:     creds,
		log:       log,
		endpoints: map[venue.Kind]string{},
		handles:   map[string]venue.Venue{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ConstructAll reads every credential record and builds one handle per
// venue with complete credentials. A failing or incomplete venue is logged
// and omitted; it never blocks the others.
func (r *Registry) ConstructAll(ctx context.Context) {
	handles := map[string]venue.Venue{}

	for _, name := range credential.ExchangeNames {
		h, err := r.buildExchange(name)
		if err != nil {
			r.log.Error("failed to initialize exchange client", "exchange", name, "err", err)
			continue
		}
		if h == nil {
			continue // not configured
		}
		handles[name] = h
		r.log.Info("exchange client initialized", "exchange", name)
	}

	for _, account := range r.creds.KISAccounts() {
		if !account.Active() {
			continue
		}
		client, err := kis.New(ctx, kis.Config{
			AppKey:        account.Key,
			AppSecret:     account.Secret,
			AccountNumber: account.AccountNumber,
			AccountCode:   account.AccountCode,
			BaseURL:       r.endpoints[venue.KindKIS],
		})
		if err != nil {
			r.log.Error("failed to initialize KIS client", "account", account.Token(), "err", err)
			continue
		}
		handles[account.Token()] = client
		r.log.Info("KIS client initialized", "account", account.Token())
	}

	r.mu.Lock()
	r.handles = handles
	r.mu.Unlock()
}

func (r *Registry) buildExchange(name string) (venue.Venue, error) {
	cred := r.creds.Exchange(name)
	if !cred.Complete(name) {
		return nil, nil
	}

	switch venue.Kind(name) {
	case venue.KindBinance:
		return binance.New(cred.Key, cred.Secret), nil
	case venue.KindOKX:
		return okx.New(cred.Key, cred.Secret, cred.Passphrase, r.endpoints[venue.KindOKX]), nil
	case venue.KindBitget:
		return bitget.New(cred.Key, cred.Secret, cred.Passphrase, cred.Demo, r.endpoints[venue.KindBitget]), nil
	case venue.KindUpbit:
		return upbit.New(cred.Key, cred.Secret, r.endpoints[venue.KindUpbit]), nil
	}
	return nil, fmt.Errorf("unknown exchange kind: %s", name)
}

// RefreshAll discards every handle and rebuilds from the current credential
// records. Safe to call while requests are in flight.
func (r *Registry) RefreshAll(ctx context.Context) {
	if err := r.creds.Reload(); err != nil {
		r.log.Error("failed to reload credentials", "err", err)
	}
	r.ConstructAll(ctx)
}

// Get looks up the handle for a token. Pure lookup, no side effects.
func (r *Registry) Get(token string) (venue.Venue, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[token]
	return h, ok
}

// Tokens lists every token with a live handle, sorted for stable reports.
func (r *Registry) Tokens() []string {
	r.mu.RLock()
	tokens := make([]string, 0, len(r.handles))
	for token := range r.handles {
		tokens = append(tokens, token)
	}
	r.mu.RUnlock()

	sort.Strings(tokens)
	return tokens
}

// Balance delegates the balance query to the token's handle.
func (r *Registry) Balance(ctx context.Context, token string) (*models.BalanceSnapshot, error) {
	h, ok := r.Get(token)
	if !ok {
		return nil, fmt.Errorf("%w: %s", venue.ErrClientNotFound, token)
	}

	snapshot, err := h.Balance(ctx)
	if err != nil {
		r.log.Error("failed to get balance", "token", token, "err", err)
		return nil, err
	}
	return snapshot, nil
}

// Ticker delegates the ticker query to the token's handle.
func (r *Registry) Ticker(ctx context.Context, token, symbol string) (*models.TickerSnapshot, error) {
	h, ok := r.Get(token)
	if !ok {
		return nil, fmt.Errorf("%w: %s", venue.ErrClientNotFound, token)
	}

	snapshot, err := h.Ticker(ctx, symbol)
	if err != nil {
		r.log.Error("failed to get ticker", "token", token, "symbol", symbol, "err", err)
		return nil, err
	}
	return snapshot, nil
}

// Order dispatches the venue-specific order call and maps every failure
// mode into a canonical outcome. It never returns an error to the caller.
func (r *Registry) Order(ctx context.Context, token string, req venue.OrderRequest) *models.Outcome {
	h, ok := r.Get(token)
	if !ok {
		return models.Failure(fmt.Sprintf("client %s not found", token))
	}

	outcome, err := h.Order(ctx, req)
	if err != nil {
		r.log.Error("order call failed", "token", token, "symbol", req.Symbol, "err", err)
		return models.Failure(err.Error())
	}
	if !outcome.Success {
		r.log.Warn("order rejected", "token", token, "symbol", req.Symbol, "reason", outcome.Error)
	}
	return outcome
}
