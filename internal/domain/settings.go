package domain

import (
	"time"
)

// QuietHours is a daily window during which notifications are suppressed.
// Start after End means the window wraps midnight.
type QuietHours struct {
	Enabled bool      `json:"enabled"`
	Start   ClockTime `json:"start"`
	End     ClockTime `json:"end"`
}

// Settings is the single process-wide monitoring configuration. It is seeded
// with defaults on first run and mutated only through UpdateSettings.
type Settings struct {
	EnableNotifications    bool         `json:"enableNotifications"`
	EnableDailySummary     bool         `json:"enableDailySummary"`
	EnableWeeklySummary    bool         `json:"enableWeeklySummary"`
	CheckIntervalMinutes   int          `json:"checkIntervalMinutes"`
	SummaryTime            ClockTime    `json:"summaryTime"`
	WeeklySummaryDay       time.Weekday `json:"weeklySummaryDay"`
	MaxNotificationsPerDay int          `json:"maxNotificationsPerDay"`
	QuietHours             QuietHours   `json:"quietHours"`
}

// DefaultSettings returns the first-run configuration.
func DefaultSettings() Settings {
	return Settings{
		EnableNotifications:    true,
		EnableDailySummary:     true,
		EnableWeeklySummary:    true,
		CheckIntervalMinutes:   60,
		SummaryTime:            ClockTime{Hour: 9},
		WeeklySummaryDay:       time.Monday,
		MaxNotificationsPerDay: 10,
		QuietHours: QuietHours{
			Enabled: false,
			Start:   ClockTime{Hour: 22},
			End:     ClockTime{Hour: 8},
		},
	}
}

// CheckInterval converts the configured minutes to a duration.
func (s Settings) CheckInterval() time.Duration {
	return time.Duration(s.CheckIntervalMinutes) * time.Minute
}

// Validate checks ranges on all user-settable fields.
func (s Settings) Validate() error {
	if s.CheckIntervalMinutes < 1 {
		return ValidationError{Field: "checkIntervalMinutes", Reason: "must be at least 1"}
	}
	if s.MaxNotificationsPerDay < 0 {
		return ValidationError{Field: "maxNotificationsPerDay", Reason: "must not be negative"}
	}
	if !s.SummaryTime.Valid() {
		return ValidationError{Field: "summaryTime", Reason: "must be HH:MM in 24-hour range"}
	}
	if s.WeeklySummaryDay < time.Sunday || s.WeeklySummaryDay > time.Saturday {
		return ValidationError{Field: "weeklySummaryDay", Reason: "must be a weekday 0-6"}
	}
	if !s.QuietHours.Start.Valid() || !s.QuietHours.End.Valid() {
		return ValidationError{Field: "quietHours", Reason: "start and end must be HH:MM in 24-hour range"}
	}
	return nil
}

// SettingsPatch mutates a subset of settings fields. Nil fields keep their
// current value.
type SettingsPatch struct {
	EnableNotifications    *bool
	EnableDailySummary     *bool
	EnableWeeklySummary    *bool
	CheckIntervalMinutes   *int
	SummaryTime            *ClockTime
	WeeklySummaryDay       *time.Weekday
	MaxNotificationsPerDay *int
	QuietHoursEnabled      *bool
	QuietHoursStart        *ClockTime
	QuietHoursEnd          *ClockTime
}

// ApplyPatch returns the patched settings, validated as a whole.
func (s Settings) ApplyPatch(patch SettingsPatch) (Settings, error) {
	if patch.EnableNotifications != nil {
		s.EnableNotifications = *patch.EnableNotifications
	}
	if patch.EnableDailySummary != nil {
		s.EnableDailySummary = *patch.EnableDailySummary
	}
	if patch.EnableWeeklySummary != nil {
		s.EnableWeeklySummary = *patch.EnableWeeklySummary
	}
	if patch.CheckIntervalMinutes != nil {
		s.CheckIntervalMinutes = *patch.CheckIntervalMinutes
	}
	if patch.SummaryTime != nil {
		s.SummaryTime = *patch.SummaryTime
	}
	if patch.WeeklySummaryDay != nil {
		s.WeeklySummaryDay = *patch.WeeklySummaryDay
	}
	if patch.MaxNotificationsPerDay != nil {
		s.MaxNotificationsPerDay = *patch.MaxNotificationsPerDay
	}
	if patch.QuietHoursEnabled != nil {
		s.QuietHours.Enabled = *patch.QuietHoursEnabled
	}
	if patch.QuietHoursStart != nil {
		s.QuietHours.Start = *patch.QuietHoursStart
	}
	if patch.QuietHoursEnd != nil {
		s.QuietHours.End = *patch.QuietHoursEnd
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}
