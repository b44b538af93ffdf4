package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	env        string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vantage",
	Short: "Vantage - 시장 상태 추론 엔진",
	Long: `Vantage Unified CLI

일봉/변동성 지수 수집부터 5-모델 앙상블 추론,
MarketSnapshot 발행까지 하나의 CLI로 운영합니다.

Usage:
  go run ./cmd/vantage [command]

Examples:
  go run ./cmd/vantage backfill
  go run ./cmd/vantage train
  go run ./cmd/vantage infer
  go run ./cmd/vantage scheduler
  go run ./cmd/vantage api`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "development", "environment (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
