package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/vantage/internal/calendar"
	"github.com/wonny/vantage/internal/pipeline"
	"github.com/wonny/vantage/pkg/config"
	"github.com/wonny/vantage/pkg/logger"
)

// InferenceJob produces a fresh snapshot every half hour during the trading
// session. Outside market hours the tick is a guarded no-op.
// ⭐ SSOT: 추론 스케줄은 이 Job에서만
type InferenceJob struct {
	runner   *pipeline.Runner
	config   *config.Config
	logger   *logger.Logger
	calendar *calendar.Calendar
}

// NewInferenceJob creates a new inference job. A nil calendar falls back to
// the built-in NSE session.
func NewInferenceJob(runner *pipeline.Runner, cfg *config.Config, log *logger.Logger, cal *calendar.Calendar) *InferenceJob {
	if cal == nil {
		cal = calendar.Default()
	}
	return &InferenceJob{
		runner:   runner,
		config:   cfg,
		logger:   log,
		calendar: cal,
	}
}

// Name returns the job name.
func (j *InferenceJob) Name() string {
	return "inference"
}

// Schedule returns the cron schedule (every 30 minutes on weekdays; the
// session guard lives in Run).
func (j *InferenceJob) Schedule() string {
	return "0 */30 * * * 1-5"
}

// Run produces one snapshot per tracked symbol when the market is open.
func (j *InferenceJob) Run(ctx context.Context) error {
	now := time.Now()
	if !j.calendar.InSession(now) {
		j.logger.Debug("Market closed, skipping inference tick")
		return nil
	}

	for _, symbol := range j.config.Symbols {
		snapshot, err := j.runner.Run(ctx, symbol, now.UTC())
		if err != nil {
			return fmt.Errorf("inference for %s: %w", symbol, err)
		}
		j.logger.WithFields(map[string]interface{}{
			"symbol":   symbol,
			"run_id":   snapshot.RunID,
			"degraded": snapshot.Degraded(),
		}).Info("Snapshot produced")
	}

	return nil
}
