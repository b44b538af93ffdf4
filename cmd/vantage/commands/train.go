package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// trainCmd represents the train command
var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "모델 번들 학습 및 활성화",
	Long: `저장된 히스토리로 5개 모델을 학습하고 번들을 원자적으로 활성화합니다.

학습이 실패하면 기존 번들이 그대로 유지됩니다.

Example:
  go run ./cmd/vantage train`,
	RunE: runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Vantage Training ===")

	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer d.close()

	ctx := context.Background()
	now := time.Now().UTC()

	for _, symbol := range d.cfg.Symbols {
		fmt.Printf("Training %s...\n", symbol)
		bundle, err := d.trainer.Train(ctx, symbol, now)
		if err != nil {
			return fmt.Errorf("train %s: %w", symbol, err)
		}
		fmt.Printf("✅ %s: version %s activated (%d samples)\n", symbol, bundle.Version, bundle.Samples)
	}

	return nil
}
