package ai

import (
	"context"

	"github.com/songzhibin97/signalflux/internal/models"
)

// Analyzer defines methods for AI-assisted report commentary. It is an
// optional component: when no API key is configured the reports go out
// without commentary.
type Analyzer interface {
	// SummarizeReport produces a short commentary paragraph for a portfolio
	// snapshot and the day's signal statistics.
	SummarizeReport(ctx context.Context, snapshot *models.PortfolioSnapshot, stats *ReportStats) (string, error)
}

// ReportStats 当日信号统计
type ReportStats struct {
	TotalSignals     int `json:"total_signals"`
	SucceededSignals int `json:"succeeded_signals"`
}
