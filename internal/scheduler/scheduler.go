package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/songzhibin97/signalflux/internal/engine"
)

// Scheduler drives the engine's periodic work: daily reports at fixed wall
// clock times, hourly health checks and regular client refreshes. One
// goroutine, ticker driven, stops with the context.
type Scheduler struct {
	engine *engine.Engine
	log    *slog.Logger

	reportTimes     []string // HH:MM
	refreshInterval time.Duration
	healthInterval  time.Duration
}

// New creates a scheduler. Zero intervals disable the corresponding loop;
// an empty reportTimes list disables reports.
func New(eng *engine.Engine, reportTimes []string, refreshInterval, healthInterval time.Duration, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		engine:          eng,
		log:             log,
		reportTimes:     reportTimes,
		refreshInterval: refreshInterval,
		healthInterval:  healthInterval,
	}
}

// reportStamp format: the date keeps the guard from suppressing the same
// wall clock time on the following day.
const reportStamp = "2006-01-02 15:04"

// reportDue reports whether now hits a configured report time that has not
// fired yet. The minute ticker can deliver twice within one wall clock
// minute, hence the lastReport guard carries the full date-minute stamp.
func (s *Scheduler) reportDue(now time.Time, lastReport string) bool {
	if now.Format(reportStamp) == lastReport {
		return false
	}
	mark := now.Format("15:04")
	for _, at := range s.reportTimes {
		if at == mark {
			return true
		}
	}
	return false
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	minute := time.NewTicker(time.Minute)
	defer minute.Stop()

	var refreshC, healthC <-chan time.Time
	if s.refreshInterval > 0 {
		refresh := time.NewTicker(s.refreshInterval)
		defer refresh.Stop()
		refreshC = refresh.C
	}
	if s.healthInterval > 0 {
		health := time.NewTicker(s.healthInterval)
		defer health.Stop()
		healthC = health.C
	}

	lastReport := ""

	for {
		select {
		case <-ctx.Done():
			return

		case now := <-minute.C:
			if !s.reportDue(now, lastReport) {
				continue
			}
			lastReport = now.Format(reportStamp)
			s.log.Info("sending scheduled report", "at", lastReport)
			if err := s.engine.DailyReport(ctx); err != nil {
				s.log.Error("failed to send scheduled report", "err", err)
			}

		case <-refreshC:
			s.log.Info("refreshing venue clients")
			s.engine.RefreshClients(ctx)

		case <-healthC:
			s.engine.HealthCheck(ctx)
		}
	}
}
