// Package gate decides whether a satisfied alert may notify right now.
// It is pure: the coordinator owns all logging and state changes.
package gate

import (
	"time"

	"fx-rate-alerts/internal/domain"
)

// DenyReason explains a suppressed notification.
type DenyReason string

const (
	DenyNotificationsDisabled DenyReason = "notifications disabled"
	DenyQuietHours            DenyReason = "quiet hours"
	DenyDailyLimit            DenyReason = "daily limit reached"
)

// Decision is the gate's verdict for one satisfied alert.
type Decision struct {
	Allowed bool
	Reason  DenyReason
}

// Decide runs the global checks in order: master switch, quiet hours, daily
// cap. A denied alert is not recorded as triggered and may fire again once
// the gate reopens.
func Decide(settings domain.Settings, history []domain.AlertHistoryEntry, now time.Time) Decision {
	if !settings.EnableNotifications {
		return Decision{Reason: DenyNotificationsDisabled}
	}
	if InQuietHours(now, settings.QuietHours) {
		return Decision{Reason: DenyQuietHours}
	}
	if ReachedDailyLimit(history, settings, now) {
		return Decision{Reason: DenyDailyLimit}
	}
	return Decision{Allowed: true}
}

// InQuietHours reports whether now falls inside the configured window,
// boundaries inclusive. Start after End wraps past midnight.
func InQuietHours(now time.Time, qh domain.QuietHours) bool {
	if !qh.Enabled {
		return false
	}

	minute := now.Hour()*60 + now.Minute()
	start := qh.Start.MinuteOfDay()
	end := qh.End.MinuteOfDay()

	if start <= end {
		return minute >= start && minute <= end
	}
	return minute >= start || minute <= end
}

// ReachedDailyLimit counts triggers recorded on now's calendar day.
func ReachedDailyLimit(history []domain.AlertHistoryEntry, settings domain.Settings, now time.Time) bool {
	y, m, d := now.Date()
	count := 0
	for _, e := range history {
		ey, em, ed := e.TriggeredAt.In(now.Location()).Date()
		if ey == y && em == m && ed == d {
			count++
		}
	}
	return count >= settings.MaxNotificationsPerDay
}
