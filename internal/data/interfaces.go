package data

import (
	"context"
	"time"

	"github.com/songzhibin97/signalflux/internal/models"
)

// SignalStorage 负责信号处理记录的持久化
type SignalStorage interface {
	// SaveSignal stores one processed signal and its outcome
	SaveSignal(ctx context.Context, record *models.SignalRecord) error

	// CountSignalsSince returns total and succeeded signal counts since a point in time
	CountSignalsSince(ctx context.Context, since time.Time) (total int, succeeded int, err error)

	// RecentSignals retrieves the most recent signal records, newest first
	RecentSignals(ctx context.Context, limit int) ([]models.SignalRecord, error)

	// Close releases the underlying connection
	Close() error
}
