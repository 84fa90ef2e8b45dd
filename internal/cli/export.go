package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adambarczewski00/telemetry-board/internal/app"
)

var (
	exportSymbol    string
	exportWindow    string
	exportPNGPath   string
	exportCSVPath   string
	exportMaxPoints int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export an asset's price history as CSV and/or PNG chart",
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportSymbol == "" {
			return fmt.Errorf("--asset is required")
		}

		opts := app.ExportOptions{
			Symbol:    exportSymbol,
			Window:    exportWindow,
			PNGPath:   exportPNGPath,
			CSVPath:   exportCSVPath,
			MaxPoints: exportMaxPoints,
		}

		return getApp().Export(cmd.Context(), opts)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportSymbol, "asset", "", "Asset symbol (e.g. BTC)")
	exportCmd.Flags().StringVar(&exportWindow, "window", "", "Lookback window (e.g. 24h, 7d); empty exports everything")
	exportCmd.Flags().StringVar(&exportPNGPath, "png", "", "Path to write PNG chart")
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "Path to write CSV data")
	exportCmd.Flags().IntVar(&exportMaxPoints, "max-points", 0, "Maximum data points to export (0 uses the default)")
}
