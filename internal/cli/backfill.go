package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adambarczewski00/telemetry-board/internal/app"
)

var (
	backfillSymbol string
	backfillWindow string
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Backfill real historical prices for an asset",
	RunE: func(cmd *cobra.Command, args []string) error {
		if backfillSymbol == "" {
			return fmt.Errorf("--asset is required")
		}

		opts := app.BackfillOptions{
			Symbol: backfillSymbol,
			Window: backfillWindow,
		}

		return getApp().Backfill(cmd.Context(), opts)
	},
}

func init() {
	backfillCmd.Flags().StringVar(&backfillSymbol, "asset", "", "Asset symbol (e.g. BTC)")
	backfillCmd.Flags().StringVar(&backfillWindow, "window", "24h", "Trailing window to cover (e.g. 24h, 7d)")
}
