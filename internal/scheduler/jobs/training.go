package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/vantage/internal/pipeline"
	"github.com/wonny/vantage/pkg/config"
	"github.com/wonny/vantage/pkg/logger"
)

// TrainingJob retrains and atomically activates the model bundle weekly.
// ⭐ SSOT: 모델 학습 스케줄은 이 Job에서만
type TrainingJob struct {
	trainer *pipeline.Trainer
	config  *config.Config
	logger  *logger.Logger
}

// NewTrainingJob creates a new training job.
func NewTrainingJob(trainer *pipeline.Trainer, cfg *config.Config, log *logger.Logger) *TrainingJob {
	return &TrainingJob{
		trainer: trainer,
		config:  cfg,
		logger:  log,
	}
}

// Name returns the job name.
func (j *TrainingJob) Name() string {
	return "model_training"
}

// Schedule returns the cron schedule (Saturday 6 AM, when markets are closed).
func (j *TrainingJob) Schedule() string {
	return "0 0 6 * * 6"
}

// Run retrains every tracked symbol. A failed fit leaves the previous
// bundle active.
func (j *TrainingJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled model training")

	now := time.Now().UTC()
	for _, symbol := range j.config.Symbols {
		bundle, err := j.trainer.Train(ctx, symbol, now)
		if err != nil {
			return fmt.Errorf("train %s: %w", symbol, err)
		}
		j.logger.WithFields(map[string]interface{}{
			"symbol":  symbol,
			"version": bundle.Version,
			"samples": bundle.Samples,
		}).Info("Model bundle activated")
	}

	return nil
}
