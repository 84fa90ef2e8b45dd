package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adambarczewski00/telemetry-board/internal/app"
)

var (
	showSymbol string
	showWindow string
	showLimit  int
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display recent price samples and alerts for an asset",
	RunE: func(cmd *cobra.Command, args []string) error {
		if showSymbol == "" {
			return fmt.Errorf("--asset is required")
		}
		if showLimit <= 0 {
			return fmt.Errorf("--limit must be greater than zero")
		}

		opts := app.ShowOptions{
			Symbol: showSymbol,
			Window: showWindow,
			Limit:  showLimit,
		}

		return getApp().Show(cmd.Context(), opts)
	},
}

func init() {
	showCmd.Flags().StringVar(&showSymbol, "asset", "", "Asset symbol (e.g. BTC)")
	showCmd.Flags().StringVar(&showWindow, "window", "24h", "Lookback window (e.g. 90m, 24h, 7d)")
	showCmd.Flags().IntVar(&showLimit, "limit", 20, "Number of samples to display")
}
