package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"fx-rate-alerts/internal/app"
)

var (
	simulatePair   string
	simulateRate   float64
	simulateAbove  float64
	simulateBelow  float64
	simulateChange float64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate-alert",
	Short: "模拟一次汇率巡检并触发告警",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulatePair == "" {
			return errors.New("--pair 必须提供")
		}
		if simulateRate <= 0 {
			return errors.New("--rate 必须大于 0")
		}

		return getApp().SimulateAlert(cmd.Context(), app.SimulateOptions{
			Pair:   simulatePair,
			Rate:   simulateRate,
			Above:  simulateAbove,
			Below:  simulateBelow,
			Change: simulateChange,
		})
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulatePair, "pair", "", "货币对, 例如 USD/EUR")
	simulateCmd.Flags().Float64Var(&simulateRate, "rate", 0, "模拟汇率")
	simulateCmd.Flags().Float64Var(&simulateAbove, "above", 0, "达到该值触发")
	simulateCmd.Flags().Float64Var(&simulateBelow, "below", 0, "跌至该值触发")
	simulateCmd.Flags().Float64Var(&simulateChange, "change", 0, "变动超过该百分比触发")
}
