package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var trendDays int

var trendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Analyze rate trends over the recent period",
	RunE: func(cmd *cobra.Command, args []string) error {
		if trendDays <= 0 {
			return fmt.Errorf("--days must be greater than zero")
		}
		return getApp().Trend(cmd.Context(), trendDays)
	},
}

func init() {
	trendCmd.Flags().IntVar(&trendDays, "days", 7, "Analysis window in days")
}
