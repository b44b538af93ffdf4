// Package jobs holds the scheduled job implementations: daily data sync,
// weekly model training and the intraday inference run.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/vantage/internal/pipeline"
	"github.com/wonny/vantage/pkg/config"
	"github.com/wonny/vantage/pkg/logger"
)

// SyncJob tops up stored market history every evening after the close.
// ⭐ SSOT: 데이터 수집 스케줄은 이 Job에서만
type SyncJob struct {
	ingestor *pipeline.Ingestor
	config   *config.Config
	logger   *logger.Logger
}

// NewSyncJob creates a new data sync job.
func NewSyncJob(ing *pipeline.Ingestor, cfg *config.Config, log *logger.Logger) *SyncJob {
	return &SyncJob{
		ingestor: ing,
		config:   cfg,
		logger:   log,
	}
}

// Name returns the job name.
func (j *SyncJob) Name() string {
	return "market_sync"
}

// Schedule returns the cron schedule (6 PM daily, after the close).
func (j *SyncJob) Schedule() string {
	return "0 0 18 * * *"
}

// Run syncs every tracked symbol plus the volatility index.
func (j *SyncJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled market sync")

	now := time.Now().UTC()
	for _, symbol := range j.config.Symbols {
		if err := j.ingestor.Sync(ctx, symbol, j.config.VolIndexSymbol, now); err != nil {
			return fmt.Errorf("sync %s: %w", symbol, err)
		}
	}

	j.logger.Info("Market sync completed")
	return nil
}
