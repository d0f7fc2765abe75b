package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDefaultSettingsAreValid(t *testing.T) {
	if err := DefaultSettings().Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestSettingsApplyPatch(t *testing.T) {
	interval := 15
	start, _ := ParseClockTime("23:00")
	enabled := true

	s, err := DefaultSettings().ApplyPatch(SettingsPatch{
		CheckIntervalMinutes: &interval,
		QuietHoursEnabled:    &enabled,
		QuietHoursStart:      &start,
	})
	if err != nil {
		t.Fatalf("ApplyPatch: %v", err)
	}
	if s.CheckIntervalMinutes != 15 {
		t.Fatalf("interval not applied, got %d", s.CheckIntervalMinutes)
	}
	if !s.QuietHours.Enabled || s.QuietHours.Start.String() != "23:00" {
		t.Fatalf("quiet hours not applied: %+v", s.QuietHours)
	}
	if s.CheckInterval() != 15*time.Minute {
		t.Fatalf("CheckInterval mismatch: %s", s.CheckInterval())
	}
}

func TestSettingsApplyPatchRejectsBadValues(t *testing.T) {
	zero := 0
	if _, err := DefaultSettings().ApplyPatch(SettingsPatch{CheckIntervalMinutes: &zero}); err == nil {
		t.Fatal("interval below one minute must be rejected")
	}
	negative := -1
	if _, err := DefaultSettings().ApplyPatch(SettingsPatch{MaxNotificationsPerDay: &negative}); err == nil {
		t.Fatal("negative daily cap must be rejected")
	}
}

func TestClockTimeJSON(t *testing.T) {
	c, err := ParseClockTime("7:05")
	if err != nil {
		t.Fatalf("ParseClockTime: %v", err)
	}
	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"07:05"` {
		t.Fatalf("expected \"07:05\", got %s", data)
	}

	var back ClockTime
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != c {
		t.Fatalf("round trip mismatch: %v != %v", back, c)
	}

	if _, err := ParseClockTime("24:00"); err == nil {
		t.Fatal("24:00 must be rejected")
	}
	if _, err := ParseClockTime("0905"); err == nil {
		t.Fatal("missing separator must be rejected")
	}
}

func TestClockTimeAt(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)
	now := time.Date(2025, 3, 10, 18, 45, 12, 0, loc)
	c := ClockTime{Hour: 9, Minute: 30}

	got := c.At(now)
	want := time.Date(2025, 3, 10, 9, 30, 0, 0, loc)
	if !got.Equal(want) {
		t.Fatalf("At pinned wrong instant: %s", got)
	}
}
