package app

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"fx-rate-alerts/internal/domain"
)

// SettingsOptions capture the settings-set flags. Nil means unchanged.
type SettingsOptions struct {
	Notifications *bool
	DailySummary  *bool
	WeeklySummary *bool
	WeeklyDay     *string
	IntervalMins  *int
	SummaryTime   *string
	MaxPerDay     *int
	QuietEnabled  *bool
	QuietStart    *string
	QuietEnd      *string
}

// Settings prints the current monitor settings.
func (a *App) Settings(ctx context.Context) error {
	svc, closeSvc, err := a.newService(ctx)
	if err != nil {
		return err
	}
	defer closeSvc()

	settings, err := svc.Settings(ctx)
	if err != nil {
		return err
	}

	renderSettings(settings)
	return nil
}

// UpdateSettings applies flag-driven changes and prints the result.
func (a *App) UpdateSettings(ctx context.Context, opts SettingsOptions) error {
	patch := domain.SettingsPatch{
		EnableNotifications:    opts.Notifications,
		EnableDailySummary:     opts.DailySummary,
		EnableWeeklySummary:    opts.WeeklySummary,
		CheckIntervalMinutes:   opts.IntervalMins,
		MaxNotificationsPerDay: opts.MaxPerDay,
		QuietHoursEnabled:      opts.QuietEnabled,
	}

	if opts.SummaryTime != nil {
		parsed, err := domain.ParseClockTime(*opts.SummaryTime)
		if err != nil {
			return fmt.Errorf("invalid --summary-time: %w", err)
		}
		patch.SummaryTime = &parsed
	}
	if opts.WeeklyDay != nil {
		day, err := parseWeekday(*opts.WeeklyDay)
		if err != nil {
			return fmt.Errorf("invalid --weekly-day: %w", err)
		}
		patch.WeeklySummaryDay = &day
	}
	if opts.QuietStart != nil {
		parsed, err := domain.ParseClockTime(*opts.QuietStart)
		if err != nil {
			return fmt.Errorf("invalid --quiet-start: %w", err)
		}
		patch.QuietHoursStart = &parsed
	}
	if opts.QuietEnd != nil {
		parsed, err := domain.ParseClockTime(*opts.QuietEnd)
		if err != nil {
			return fmt.Errorf("invalid --quiet-end: %w", err)
		}
		patch.QuietHoursEnd = &parsed
	}

	svc, closeSvc, err := a.newService(ctx)
	if err != nil {
		return err
	}
	defer closeSvc()

	updated, err := svc.UpdateSettings(ctx, patch)
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, "settings updated")
	renderSettings(updated)
	return nil
}

func renderSettings(settings domain.Settings) {
	quiet := "disabled"
	if settings.QuietHours.Enabled {
		quiet = fmt.Sprintf("%s-%s", settings.QuietHours.Start, settings.QuietHours.End)
	}

	fmt.Fprintf(os.Stdout, "notifications:     %t\n", settings.EnableNotifications)
	fmt.Fprintf(os.Stdout, "daily summary:     %t\n", settings.EnableDailySummary)
	fmt.Fprintf(os.Stdout, "weekly summary:    %t (%s)\n", settings.EnableWeeklySummary, settings.WeeklySummaryDay)
	fmt.Fprintf(os.Stdout, "check interval:    %d min\n", settings.CheckIntervalMinutes)
	fmt.Fprintf(os.Stdout, "summary time:      %s\n", settings.SummaryTime)
	fmt.Fprintf(os.Stdout, "max notifications: %s\n", formatCap(settings.MaxNotificationsPerDay))
	fmt.Fprintf(os.Stdout, "quiet hours:       %s\n", quiet)
}

func formatCap(n int) string {
	if n == 0 {
		return "0 (all suppressed)"
	}
	return strconv.Itoa(n) + "/day"
}

func parseWeekday(v string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), v) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", v)
}
