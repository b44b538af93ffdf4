package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// inferCmd represents the infer command
var inferCmd = &cobra.Command{
	Use:   "infer",
	Short: "추론 1회 실행",
	Long: `활성 모델 번들로 스냅샷을 한 번 생성해 저장하고 출력합니다.

활성 번들이 없으면 실패합니다 (train을 먼저 실행).

Example:
  go run ./cmd/vantage infer
  go run ./cmd/vantage infer --json`,
	RunE: runInfer,
}

var inferJSON bool

func init() {
	rootCmd.AddCommand(inferCmd)

	inferCmd.Flags().BoolVar(&inferJSON, "json", false, "print the full snapshot as JSON")
}

func runInfer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Vantage Inference ===")

	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer d.close()

	ctx := context.Background()
	now := time.Now().UTC()
	runner := d.runner(nil)

	for _, symbol := range d.cfg.Symbols {
		snapshot, err := runner.Run(ctx, symbol, now)
		if err != nil {
			return fmt.Errorf("inference for %s: %w", symbol, err)
		}

		if inferJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(snapshot); err != nil {
				return err
			}
			continue
		}

		fmt.Printf("✅ %s run %s\n", symbol, snapshot.RunID)
		fmt.Printf("   spot %.2f (live=%v)  vix %.2f\n", snapshot.Spot.Price, snapshot.Spot.Live, snapshot.VIX)
		if snapshot.Regime != nil {
			fmt.Printf("   regime %s (p=%.2f)\n", snapshot.Regime.Label, snapshot.Regime.Probability)
		}
		fmt.Printf("   traffic %s (%.0f)  verdict %s  kelly %.3f\n",
			snapshot.Traffic.Signal, snapshot.Traffic.Score, snapshot.Verdict.Stance, snapshot.Kelly.Fraction)
		if snapshot.Degraded() {
			fmt.Printf("   ⚠ degraded fields: %d\n", len(snapshot.Diagnostics))
		}
	}

	return nil
}
