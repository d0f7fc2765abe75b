package cli

import (
	"github.com/spf13/cobra"

	"fx-rate-alerts/internal/app"
)

var (
	setNotifications bool
	setDailySummary  bool
	setWeekly        bool
	setWeeklyDay     string
	setInterval      int
	setSummaryTime   string
	setMaxPerDay     int
	setQuietEnabled  bool
	setQuietStart    string
	setQuietEnd      string
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Display monitor settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Settings(cmd.Context())
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change monitor settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.SettingsOptions{}
		flags := cmd.Flags()

		if flags.Changed("notifications") {
			opts.Notifications = &setNotifications
		}
		if flags.Changed("daily-summary") {
			opts.DailySummary = &setDailySummary
		}
		if flags.Changed("weekly-summary") {
			opts.WeeklySummary = &setWeekly
		}
		if flags.Changed("weekly-day") {
			opts.WeeklyDay = &setWeeklyDay
		}
		if flags.Changed("interval") {
			opts.IntervalMins = &setInterval
		}
		if flags.Changed("summary-time") {
			opts.SummaryTime = &setSummaryTime
		}
		if flags.Changed("max-per-day") {
			opts.MaxPerDay = &setMaxPerDay
		}
		if flags.Changed("quiet") {
			opts.QuietEnabled = &setQuietEnabled
		}
		if flags.Changed("quiet-start") {
			opts.QuietStart = &setQuietStart
		}
		if flags.Changed("quiet-end") {
			opts.QuietEnd = &setQuietEnd
		}

		return getApp().UpdateSettings(cmd.Context(), opts)
	},
}

func init() {
	settingsSetCmd.Flags().BoolVar(&setNotifications, "notifications", true, "Master switch for notifications")
	settingsSetCmd.Flags().BoolVar(&setDailySummary, "daily-summary", true, "Send a daily trigger summary")
	settingsSetCmd.Flags().BoolVar(&setWeekly, "weekly-summary", true, "Send a weekly summary with trends")
	settingsSetCmd.Flags().StringVar(&setWeeklyDay, "weekly-day", "", "Weekday for the weekly summary, e.g. Monday")
	settingsSetCmd.Flags().IntVar(&setInterval, "interval", 0, "Check interval in minutes")
	settingsSetCmd.Flags().StringVar(&setSummaryTime, "summary-time", "", "Summary time of day, HH:MM")
	settingsSetCmd.Flags().IntVar(&setMaxPerDay, "max-per-day", 0, "Maximum notifications per day (0 suppresses all)")
	settingsSetCmd.Flags().BoolVar(&setQuietEnabled, "quiet", false, "Enable quiet hours")
	settingsSetCmd.Flags().StringVar(&setQuietStart, "quiet-start", "", "Quiet hours start, HH:MM")
	settingsSetCmd.Flags().StringVar(&setQuietEnd, "quiet-end", "", "Quiet hours end, HH:MM")

	settingsCmd.AddCommand(settingsSetCmd)
}
