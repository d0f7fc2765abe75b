package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"fx-rate-alerts/internal/app"
)

var (
	showFrom  string
	showTo    string
	showLimit int
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display recent rate samples",
	RunE: func(cmd *cobra.Command, args []string) error {
		if showLimit <= 0 {
			return fmt.Errorf("--limit must be greater than zero")
		}

		opts := app.ShowOptions{
			From:  showFrom,
			To:    showTo,
			Limit: showLimit,
		}

		return getApp().Show(cmd.Context(), opts)
	},
}

func init() {
	showCmd.Flags().StringVar(&showFrom, "from", "", "Filter by base currency, e.g. USD")
	showCmd.Flags().StringVar(&showTo, "to", "", "Filter by quote currency, e.g. EUR")
	showCmd.Flags().IntVar(&showLimit, "limit", 20, "Number of samples to display")
}
