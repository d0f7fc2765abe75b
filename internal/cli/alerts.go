package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"fx-rate-alerts/internal/app"
)

var (
	addName     string
	addDesc     string
	addPair     string
	addAbove    float64
	addBelow    float64
	addChange   float64
	addDisabled bool

	updName    string
	updDesc    string
	updPair    string
	updAbove   float64
	updBelow   float64
	updChange  float64
	updEnable  bool
	updDisable bool
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "List and manage rate alerts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Alerts(cmd.Context())
	},
}

var alertsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a new alert",
	RunE: func(cmd *cobra.Command, args []string) error {
		if addPair == "" {
			return errors.New("--pair must be provided")
		}
		return getApp().AddAlert(cmd.Context(), app.AddAlertOptions{
			Name:        addName,
			Description: addDesc,
			Pair:        addPair,
			Above:       addAbove,
			Below:       addBelow,
			Change:      addChange,
			Disabled:    addDisabled,
		})
	},
}

var alertsUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Modify an existing alert",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if updEnable && updDisable {
			return errors.New("--enable and --disable are mutually exclusive")
		}

		opts := app.UpdateAlertOptions{}
		flags := cmd.Flags()
		if flags.Changed("name") {
			opts.Name = &updName
		}
		if flags.Changed("description") {
			opts.Description = &updDesc
		}
		if flags.Changed("pair") {
			opts.Pair = &updPair
		}
		if flags.Changed("above") {
			opts.Above = &updAbove
		}
		if flags.Changed("below") {
			opts.Below = &updBelow
		}
		if flags.Changed("change") {
			opts.Change = &updChange
		}
		if updEnable {
			enabled := true
			opts.Enabled = &enabled
		}
		if updDisable {
			enabled := false
			opts.Enabled = &enabled
		}

		return getApp().UpdateAlert(cmd.Context(), args[0], opts)
	},
}

var alertsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove an alert",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().DeleteAlert(cmd.Context(), args[0])
	},
}

func init() {
	alertsAddCmd.Flags().StringVar(&addName, "name", "", "Alert name (defaults to the pair)")
	alertsAddCmd.Flags().StringVar(&addDesc, "description", "", "Free-form description")
	alertsAddCmd.Flags().StringVar(&addPair, "pair", "", "Currency pair, e.g. USD/EUR")
	alertsAddCmd.Flags().Float64Var(&addAbove, "above", 0, "Trigger when the rate reaches this level")
	alertsAddCmd.Flags().Float64Var(&addBelow, "below", 0, "Trigger when the rate falls to this level")
	alertsAddCmd.Flags().Float64Var(&addChange, "change", 0, "Trigger when the rate moves this percent between checks")
	alertsAddCmd.Flags().BoolVar(&addDisabled, "disabled", false, "Create the alert in disabled state")

	alertsUpdateCmd.Flags().StringVar(&updName, "name", "", "New alert name")
	alertsUpdateCmd.Flags().StringVar(&updDesc, "description", "", "New description")
	alertsUpdateCmd.Flags().StringVar(&updPair, "pair", "", "New currency pair (resets the rate baseline)")
	alertsUpdateCmd.Flags().Float64Var(&updAbove, "above", 0, "Replace the condition with an at-or-above level")
	alertsUpdateCmd.Flags().Float64Var(&updBelow, "below", 0, "Replace the condition with an at-or-below level")
	alertsUpdateCmd.Flags().Float64Var(&updChange, "change", 0, "Replace the condition with a percent-move threshold")
	alertsUpdateCmd.Flags().BoolVar(&updEnable, "enable", false, "Enable the alert")
	alertsUpdateCmd.Flags().BoolVar(&updDisable, "disable", false, "Disable the alert")

	alertsCmd.AddCommand(alertsAddCmd)
	alertsCmd.AddCommand(alertsUpdateCmd)
	alertsCmd.AddCommand(alertsDeleteCmd)
}
