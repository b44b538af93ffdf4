package scheduler

import (
	"context"
	"time"
)

// Job represents a scheduled job
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	// Name returns the job name
	Name() string

	// Run executes the job
	Run(ctx context.Context) error

	// Schedule returns the cron schedule expression (seconds field included)
	Schedule() string
}

// RunRecord is the outcome of one job execution, retries included.
type RunRecord struct {
	JobName    string        `json:"job_name"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Duration   time.Duration `json:"duration"`
	Attempts   int           `json:"attempts"`
	Success    bool          `json:"success"`
	Error      string        `json:"error,omitempty"`
}

// historyWindow bounds how many recent records a job keeps in memory.
const historyWindow = 50

// JobHistory keeps a bounded window of recent run records plus lifetime
// counters, so a long-lived process does not grow with every tick.
type JobHistory struct {
	recent    []RunRecord
	totalRuns int
	failures  int
}

func (h *JobHistory) record(r RunRecord) {
	h.totalRuns++
	if !r.Success {
		h.failures++
	}
	h.recent = append(h.recent, r)
	if len(h.recent) > historyWindow {
		h.recent = h.recent[len(h.recent)-historyWindow:]
	}
}

// Recent returns up to n of the most recent run records, oldest first.
func (h *JobHistory) Recent(n int) []RunRecord {
	if n > len(h.recent) {
		n = len(h.recent)
	}
	if n <= 0 {
		return nil
	}
	return append([]RunRecord(nil), h.recent[len(h.recent)-n:]...)
}

// TotalRuns returns the lifetime run count.
func (h *JobHistory) TotalRuns() int { return h.totalRuns }

// Failures returns the lifetime failure count.
func (h *JobHistory) Failures() int { return h.failures }

// SuccessRate returns the lifetime success rate (0.0 - 1.0).
func (h *JobHistory) SuccessRate() float64 {
	if h.totalRuns == 0 {
		return 0
	}
	return float64(h.totalRuns-h.failures) / float64(h.totalRuns)
}
