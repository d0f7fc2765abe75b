package gate

import (
	"testing"
	"time"

	"fx-rate-alerts/internal/domain"
)

func clock(s string) domain.ClockTime {
	c, err := domain.ParseClockTime(s)
	if err != nil {
		panic(err)
	}
	return c
}

func at(hour, minute int) time.Time {
	return time.Date(2025, 3, 10, hour, minute, 0, 0, time.UTC)
}

func TestInQuietHoursOvernightWrap(t *testing.T) {
	qh := domain.QuietHours{Enabled: true, Start: clock("22:00"), End: clock("08:00")}

	if !InQuietHours(at(23, 30), qh) {
		t.Fatal("23:30 must be quiet inside 22:00-08:00")
	}
	if InQuietHours(at(9, 0), qh) {
		t.Fatal("09:00 must not be quiet inside 22:00-08:00")
	}
	if !InQuietHours(at(8, 0), qh) {
		t.Fatal("the 08:00 boundary is inclusive")
	}
	if !InQuietHours(at(22, 0), qh) {
		t.Fatal("the 22:00 boundary is inclusive")
	}
	if !InQuietHours(at(0, 15), qh) {
		t.Fatal("00:15 must be quiet inside 22:00-08:00")
	}
}

func TestInQuietHoursSameDayWindow(t *testing.T) {
	qh := domain.QuietHours{Enabled: true, Start: clock("12:00"), End: clock("14:00")}

	if !InQuietHours(at(13, 0), qh) {
		t.Fatal("13:00 must be quiet inside 12:00-14:00")
	}
	if !InQuietHours(at(12, 0), qh) || !InQuietHours(at(14, 0), qh) {
		t.Fatal("window boundaries are inclusive")
	}
	if InQuietHours(at(11, 59), qh) || InQuietHours(at(14, 1), qh) {
		t.Fatal("minutes outside the window must not be quiet")
	}
}

func TestInQuietHoursDisabled(t *testing.T) {
	qh := domain.QuietHours{Enabled: false, Start: clock("00:00"), End: clock("23:59")}
	if InQuietHours(at(12, 0), qh) {
		t.Fatal("a disabled window is never quiet")
	}
}

func historyAt(times ...time.Time) []domain.AlertHistoryEntry {
	out := make([]domain.AlertHistoryEntry, 0, len(times))
	for _, ts := range times {
		out = append(out, domain.AlertHistoryEntry{TriggeredAt: ts})
	}
	return out
}

func TestReachedDailyLimit(t *testing.T) {
	now := at(15, 0)
	settings := domain.DefaultSettings()
	settings.MaxNotificationsPerDay = 2

	history := historyAt(at(9, 0), at(11, 30))
	if !ReachedDailyLimit(history, settings, now) {
		t.Fatal("two triggers today reach a cap of two")
	}

	history = historyAt(at(9, 0), now.AddDate(0, 0, -1))
	if ReachedDailyLimit(history, settings, now) {
		t.Fatal("yesterday's trigger must not count toward today's cap")
	}
}

func TestDecideOrderAndReasons(t *testing.T) {
	now := at(23, 30)
	settings := domain.DefaultSettings()
	settings.EnableNotifications = false
	settings.QuietHours = domain.QuietHours{Enabled: true, Start: clock("22:00"), End: clock("08:00")}

	d := Decide(settings, nil, now)
	if d.Allowed || d.Reason != DenyNotificationsDisabled {
		t.Fatalf("master switch must win, got %+v", d)
	}

	settings.EnableNotifications = true
	d = Decide(settings, nil, now)
	if d.Allowed || d.Reason != DenyQuietHours {
		t.Fatalf("expected quiet hours denial, got %+v", d)
	}

	settings.QuietHours.Enabled = false
	settings.MaxNotificationsPerDay = 2
	d = Decide(settings, historyAt(at(9, 0), at(11, 0)), now)
	if d.Allowed || d.Reason != DenyDailyLimit {
		t.Fatalf("expected daily limit denial, got %+v", d)
	}

	d = Decide(settings, historyAt(at(9, 0)), now)
	if !d.Allowed || d.Reason != "" {
		t.Fatalf("expected allow, got %+v", d)
	}
}

func TestDecideZeroCapDeniesAll(t *testing.T) {
	settings := domain.DefaultSettings()
	settings.MaxNotificationsPerDay = 0

	d := Decide(settings, nil, at(12, 0))
	if d.Allowed || d.Reason != DenyDailyLimit {
		t.Fatalf("cap of zero must deny every notification, got %+v", d)
	}
}
