package cleanup

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

type SessionCleaner interface {
	CleanupOldSessions(idle time.Duration) int
}

type AnalysisPruner interface {
	Prune(ctx context.Context, maxAge time.Duration) (int64, error)
}

type Worker struct {
	Sessions       SessionCleaner
	Analyses       AnalysisPruner
	Interval       time.Duration
	SessionIdle    time.Duration
	AnalysisMaxAge time.Duration
	logger         zerolog.Logger
}

func NewWorker(sessions SessionCleaner, analyses AnalysisPruner, interval, sessionIdle, analysisMaxAge time.Duration, logger zerolog.Logger) *Worker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Worker{
		Sessions:       sessions,
		Analyses:       analyses,
		Interval:       interval,
		SessionIdle:    sessionIdle,
		AnalysisMaxAge: analysisMaxAge,
		logger:         logger.With().Str("component", "cleanup").Logger(),
	}
}

// Start runs one cleanup immediately and then one per Interval until ctx
// is done. It blocks.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info().Dur("interval", w.Interval).Msg("background worker started")
	w.RunOnce(ctx)

	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("background worker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

func (w *Worker) RunOnce(ctx context.Context) {
	w.logger.Debug().Msg("starting scheduled cleanup task")

	if w.Sessions != nil {
		w.Sessions.CleanupOldSessions(w.SessionIdle)
	}

	if w.Analyses == nil || w.AnalysisMaxAge <= 0 {
		return
	}
	deleted, err := w.Analyses.Prune(ctx, w.AnalysisMaxAge)
	if err != nil {
		w.logger.Error().Err(err).Msg("error pruning old analyses")
		return
	}
	if deleted > 0 {
		w.logger.Info().Int64("deleted", deleted).Msg("removed old analyses from database")
	}
}
