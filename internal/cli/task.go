package cli

import (
	"github.com/spf13/cobra"

	"github.com/adambarczewski00/telemetry-board/internal/schedule"
)

var taskCmd = &cobra.Command{
	Use:   "task <name> [args...]",
	Short: "Execute one task immediately, outside the schedule",
	Long: "Execute one registered task and exit. Available tasks:\n" +
		"  " + schedule.TaskFetchPrice + " <symbol>\n" +
		"  " + schedule.TaskComputeAlerts + " <symbol> [window-minutes] [threshold-pct]\n" +
		"  " + schedule.TaskPruneOldPrices + " [days]\n" +
		"  " + schedule.TaskSeedMockPrices + " <symbol> [hours] [interval-seconds]",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Task(cmd.Context(), args[0], args[1:])
	},
}
