package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// backfillCmd represents the backfill command
var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "과거 일봉/변동성 지수 수집",
	Long: `추적 심볼의 과거 일봉과 변동성 지수를 수집해 저장합니다.

Example:
  go run ./cmd/vantage backfill
  go run ./cmd/vantage backfill --years 10`,
	RunE: runBackfill,
}

var backfillYears int

func init() {
	rootCmd.AddCommand(backfillCmd)

	backfillCmd.Flags().IntVar(&backfillYears, "years", 7, "history depth in years")
}

func runBackfill(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Vantage Backfill ===")

	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer d.close()

	ctx := context.Background()
	now := time.Now().UTC()
	from := now.AddDate(-backfillYears, 0, 0)

	for _, symbol := range d.cfg.Symbols {
		fmt.Printf("Backfilling %s since %s...\n", symbol, from.Format("2006-01-02"))
		if err := d.ingestor.Backfill(ctx, symbol, d.cfg.VolIndexSymbol, from, now); err != nil {
			return fmt.Errorf("backfill %s: %w", symbol, err)
		}
	}

	fmt.Println("✅ Backfill complete")
	return nil
}
