package scheduler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/vantage/pkg/config"
	"github.com/wonny/vantage/pkg/logger"
)

type noopJob struct {
	name     string
	schedule string
}

func (j noopJob) Name() string                { return j.name }
func (j noopJob) Schedule() string            { return j.schedule }
func (j noopJob) Run(_ context.Context) error { return nil }

func testLogger() *logger.Logger {
	return logger.New(&config.Config{LogLevel: "error", LogFormat: "json"})
}

func TestAddJobRejectsDuplicates(t *testing.T) {
	s := New(testLogger())
	job := noopJob{name: "market_sync", schedule: "0 0 18 * * *"}

	require.NoError(t, s.AddJob(job))
	assert.Error(t, s.AddJob(job))
	assert.Equal(t, []string{"market_sync"}, s.GetAllJobs())
}

func TestAddJobRejectsBadCron(t *testing.T) {
	s := New(testLogger())
	err := s.AddJob(noopJob{name: "broken", schedule: "not a cron expr"})
	require.Error(t, err)
	assert.Empty(t, s.GetAllJobs())
}

func TestTriggerJobUnknownName(t *testing.T) {
	s := New(testLogger())
	assert.Error(t, s.TriggerJob("missing"))
}

func TestHistoryWindowAndCounters(t *testing.T) {
	h := &JobHistory{}
	start := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	for i := 0; i < historyWindow+10; i++ {
		h.record(RunRecord{
			JobName:   "inference",
			StartedAt: start.Add(time.Duration(i) * time.Minute),
			Success:   i%4 != 0, // every 4th run fails
			Error:     "",
		})
	}

	assert.Equal(t, historyWindow+10, h.TotalRuns())
	assert.Equal(t, 15, h.Failures()) // 60 runs, every 4th
	assert.InDelta(t, 45.0/60.0, h.SuccessRate(), 1e-12)

	recent := h.Recent(historyWindow + 100)
	require.Len(t, recent, historyWindow)
	// Oldest retained record is run #10; the window drops the head.
	assert.Equal(t, start.Add(10*time.Minute), recent[0].StartedAt)
	assert.Equal(t, start.Add(time.Duration(historyWindow+9)*time.Minute), recent[len(recent)-1].StartedAt)

	assert.Nil(t, h.Recent(0))
}

func TestStatsSummarizesHistory(t *testing.T) {
	s := New(testLogger())
	require.NoError(t, s.AddJob(noopJob{name: "model_training", schedule: "0 0 6 * * 6"}))

	lastStart := time.Date(2026, 8, 22, 6, 0, 0, 0, time.UTC)
	s.history["model_training"].record(RunRecord{
		JobName:   "model_training",
		StartedAt: lastStart.Add(-7 * 24 * time.Hour),
		Success:   false,
		Error:     fmt.Sprintf("train: %v", context.DeadlineExceeded),
	})
	s.history["model_training"].record(RunRecord{
		JobName:   "model_training",
		StartedAt: lastStart,
		Success:   true,
	})

	stats := s.Stats()
	require.Contains(t, stats, "model_training")
	js := stats["model_training"]
	assert.Equal(t, "0 0 6 * * 6", js.Schedule)
	assert.Equal(t, 2, js.TotalRuns)
	assert.Equal(t, 1, js.Failures)
	assert.InDelta(t, 0.5, js.SuccessRate, 1e-12)
	require.NotNil(t, js.LastRun)
	assert.Equal(t, lastStart, *js.LastRun)
}
