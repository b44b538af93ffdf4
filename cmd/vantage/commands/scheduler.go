package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/vantage/internal/realtime/feed"
	"github.com/wonny/vantage/internal/scheduler"
	"github.com/wonny/vantage/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 시작",
	Long: `수집/학습/추론 잡을 크론으로 실행합니다.

이 명령어는:
- 일봉 동기화 (매일 18:00)
- 모델 학습 (토요일 06:00)
- 장중 추론 (거래일 30분 간격, 장중에만)

Example:
  go run ./cmd/vantage scheduler`,
	RunE: runScheduler,
}

func init() {
	rootCmd.AddCommand(schedulerCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Vantage Scheduler ===")

	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer d.close()

	ctx := context.Background()

	// Tick feed is optional; when disabled the runner falls back to the
	// last stored close.
	tickFeed := feed.NewClient(&d.cfg.Feed, d.log, d.cfg.Symbols)
	if err := tickFeed.Start(ctx); err != nil {
		return fmt.Errorf("start tick feed: %w", err)
	}
	defer tickFeed.Stop()

	runner := d.runner(tickFeed)

	sched := scheduler.New(d.log)
	for _, job := range []scheduler.Job{
		jobs.NewSyncJob(d.ingestor, d.cfg, d.log),
		jobs.NewTrainingJob(d.trainer, d.cfg, d.log),
		jobs.NewInferenceJob(runner, d.cfg, d.log, d.calendar),
	} {
		if err := sched.AddJob(job); err != nil {
			return fmt.Errorf("register job %s: %w", job.Name(), err)
		}
	}

	sched.Start()

	fmt.Println("\n✅ Scheduler running")
	fmt.Println("\nRegistered jobs:")
	for _, name := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", name)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	d.log.Info("Shutting down scheduler...")
	sched.Stop()

	return nil
}
