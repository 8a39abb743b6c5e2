package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/songzhibin97/signalflux/internal/ai"
	"github.com/songzhibin97/signalflux/internal/models"
)

// DailyReport assembles and sends the daily portfolio report. Signal
// statistics and AI commentary are included when the corresponding optional
// components are configured.
func (e *Engine) DailyReport(ctx context.Context) error {
	snapshot := e.PortfolioStatus(ctx)
	stats := e.reportStats(ctx)

	var b strings.Builder
	b.WriteString("📊 **Daily Trading Report**\n\n")
	b.WriteString("**Accounts:**\n")
	fmt.Fprintf(&b, "• Active accounts: %d\n", snapshot.ActiveAccounts)
	fmt.Fprintf(&b, "• Brokerage accounts: %d\n", countByPrefix(snapshot, kisAccountPrefix, true))
	fmt.Fprintf(&b, "• Exchange accounts: %d\n", countByPrefix(snapshot, kisAccountPrefix, false))

	if stats != nil {
		b.WriteString("\n**Signals today:**\n")
		fmt.Fprintf(&b, "• Processed: %d\n", stats.TotalSignals)
		fmt.Fprintf(&b, "• Succeeded: %d\n", stats.SucceededSignals)
	}

	if recent := e.recentSignalLines(ctx); len(recent) > 0 {
		b.WriteString("\n**Recent signals:**\n")
		for _, line := range recent {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	b.WriteString("\n**System:**\n")
	fmt.Fprintf(&b, "• Last update: %s\n", time.Now().Format("2006-01-02 15:04:05"))

	if commentary := e.commentary(ctx, snapshot, stats); commentary != "" {
		b.WriteString("\n")
		b.WriteString(commentary)
		b.WriteString("\n")
	}

	return e.notifier.Send(ctx, b.String())
}

// reportStats counts today's signals. Returns nil when history storage is
// not configured.
func (e *Engine) reportStats(ctx context.Context) *ai.ReportStats {
	if e.history == nil {
		return nil
	}

	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	total, succeeded, err := e.history.CountSignalsSince(ctx, midnight)
	if err != nil {
		e.log.Error("failed to count signals for report", "err", err)
		return nil
	}
	return &ai.ReportStats{TotalSignals: total, SucceededSignals: succeeded}
}

// recentReportSignals bounds the per-report signal listing.
const recentReportSignals = 5

// recentSignalLines renders the latest processed signals as report bullet
// lines, newest first. Empty without history storage.
func (e *Engine) recentSignalLines(ctx context.Context) []string {
	if e.history == nil {
		return nil
	}

	records, err := e.history.RecentSignals(ctx, recentReportSignals)
	if err != nil {
		e.log.Error("failed to load recent signals for report", "err", err)
		return nil
	}

	lines := make([]string, 0, len(records))
	for _, rec := range records {
		verdict := "✅"
		if !rec.Success {
			verdict = "❌"
		}
		lines = append(lines, fmt.Sprintf("• %s %s %s %s x%s → %s",
			verdict, rec.ReceivedAt.Format("15:04"), strings.ToUpper(rec.Action),
			rec.Symbol, rec.Quantity, rec.Target))
	}
	return lines
}

// commentary asks the analyzer for a report summary. Analyzer failures only
// cost the commentary paragraph, never the report.
func (e *Engine) commentary(ctx context.Context, snapshot *models.PortfolioSnapshot, stats *ai.ReportStats) string {
	if e.analyzer == nil {
		return ""
	}
	if stats == nil {
		stats = &ai.ReportStats{}
	}

	text, err := e.analyzer.SummarizeReport(ctx, snapshot, stats)
	if err != nil {
		e.log.Error("failed to generate report commentary", "err", err)
		return ""
	}
	return text
}

// HealthCheck sends a status notice when no account is reachable. The
// scheduler calls this hourly.
func (e *Engine) HealthCheck(ctx context.Context) {
	snapshot := e.PortfolioStatus(ctx)
	if snapshot.ActiveAccounts > 0 {
		return
	}

	e.notify(e.notifier.SendStatusUpdate(ctx, "No active accounts", map[string]string{
		"Configured": fmt.Sprintf("%d", len(snapshot.Accounts)),
	}))
}

func countByPrefix(snapshot *models.PortfolioSnapshot, prefix string, match bool) int {
	count := 0
	for token, status := range snapshot.Accounts {
		if status.Status != models.StatusActive {
			continue
		}
		if strings.HasPrefix(token, prefix) == match {
			count++
		}
	}
	return count
}
