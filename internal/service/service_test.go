package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"fx-rate-alerts/internal/alerting"
	"fx-rate-alerts/internal/config"
	"fx-rate-alerts/internal/domain"
	"fx-rate-alerts/internal/storage"
)

var checkNow = time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

type staticSource struct {
	rates map[string]decimal.Decimal
	errs  map[string]error
}

func (s *staticSource) FetchRate(_ context.Context, pair domain.CurrencyPair) (decimal.Decimal, error) {
	if err, ok := s.errs[pair.Key()]; ok {
		return decimal.Zero, err
	}
	rate, ok := s.rates[pair.Key()]
	if !ok {
		return decimal.Zero, errors.New("no rate configured")
	}
	return rate, nil
}

func (s *staticSource) Name() string { return "static" }

type captureNotifier struct {
	notes []alerting.Notification
	fail  bool
}

func (c *captureNotifier) Notify(_ context.Context, note alerting.Notification) error {
	if c.fail {
		return errors.New("channel unavailable")
	}
	c.notes = append(c.notes, note)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Monitor: config.MonitorConfig{
			MaxAlerts:         20,
			RateHistoryLimit:  100,
			AlertHistoryLimit: 100,
			RetentionDays:     90,
			FetchTimeout:      time.Second,
		},
	}
}

func newTestService(t *testing.T, source *staticSource, notifier *captureNotifier) *Service {
	t.Helper()
	kv := storage.NewMemory()
	stores := Stores{
		Alerts:       storage.NewAlertStore(kv, 20),
		RateHistory:  storage.NewRateHistoryStore(kv, 100),
		AlertHistory: storage.NewAlertHistoryStore(kv, 100),
		Settings:     storage.NewSettingsStore(kv),
		Trends:       storage.NewTrendStore(kv),
	}
	return New(testConfig(), nil, source, stores, notifier, zerolog.Nop())
}

func mustCreateAlert(t *testing.T, svc *Service, name, pairKey string, cond domain.Condition) domain.Alert {
	t.Helper()
	pair, err := domain.ParsePairKey(pairKey)
	if err != nil {
		t.Fatalf("parse pair: %v", err)
	}
	alert, err := svc.stores.Alerts.Create(context.Background(), domain.AlertSpec{
		Name:      name,
		Pair:      pair,
		Condition: cond,
		Enabled:   true,
	}, checkNow.Add(-time.Hour))
	if err != nil {
		t.Fatalf("create alert: %v", err)
	}
	return alert
}

func rate(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestRunCheckTriggersAboveAndNotifies(t *testing.T) {
	ctx := context.Background()
	source := &staticSource{rates: map[string]decimal.Decimal{"USD/EUR": rate("0.9612")}}
	notifier := &captureNotifier{}
	svc := newTestService(t, source, notifier)

	created := mustCreateAlert(t, svc, "eur strong", "USD/EUR", domain.Above(rate("0.95")))

	if err := svc.RunCheck(ctx, checkNow); err != nil {
		t.Fatalf("run check: %v", err)
	}

	if len(notifier.notes) != 1 {
		t.Fatalf("expected one notification, got %d", len(notifier.notes))
	}
	if !strings.Contains(notifier.notes[0].Body, "0.9612") {
		t.Fatalf("notification body missing rate: %q", notifier.notes[0].Body)
	}

	alerts, err := svc.stores.Alerts.List(ctx)
	if err != nil {
		t.Fatalf("list alerts: %v", err)
	}
	got := alerts[0]
	if got.CurrentRate == nil || !got.CurrentRate.Equal(rate("0.9612")) {
		t.Fatalf("currentRate not updated: %+v", got.CurrentRate)
	}
	if got.LastChecked == nil || !got.LastChecked.Equal(checkNow) {
		t.Fatalf("lastChecked not updated: %+v", got.LastChecked)
	}
	if got.TriggerCount != 1 {
		t.Fatalf("expected triggerCount 1, got %d", got.TriggerCount)
	}
	if got.LastTriggered == nil || !got.LastTriggered.Equal(checkNow) {
		t.Fatalf("lastTriggered not set: %+v", got.LastTriggered)
	}

	samples, err := svc.stores.RateHistory.Query(ctx, "", "", 0)
	if err != nil {
		t.Fatalf("query rate history: %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("expected one rate sample, got %d", len(samples))
	}
	if samples[0].Source != "static" {
		t.Fatalf("expected source static, got %q", samples[0].Source)
	}

	triggers, err := svc.stores.AlertHistory.Query(ctx, 0)
	if err != nil {
		t.Fatalf("query alert history: %v", err)
	}
	if len(triggers) != 1 {
		t.Fatalf("expected one trigger record, got %d", len(triggers))
	}
	entry := triggers[0]
	if entry.AlertID != created.ID || entry.AlertName != "eur strong" {
		t.Fatalf("trigger record does not snapshot the alert: %+v", entry)
	}
	if !entry.Notified {
		t.Fatal("trigger record should be marked notified")
	}
	if !entry.TriggeredAt.Equal(checkNow) {
		t.Fatalf("unexpected triggeredAt: %v", entry.TriggeredAt)
	}
}

func TestRunCheckTwoTickScenario(t *testing.T) {
	ctx := context.Background()
	source := &staticSource{rates: map[string]decimal.Decimal{"USD/EUR": rate("0.94")}}
	notifier := &captureNotifier{}
	svc := newTestService(t, source, notifier)

	mustCreateAlert(t, svc, "", "USD/EUR", domain.Above(rate("0.95")))

	if err := svc.RunCheck(ctx, checkNow); err != nil {
		t.Fatalf("first tick: %v", err)
	}
	alerts, _ := svc.stores.Alerts.List(ctx)
	if alerts[0].TriggerCount != 0 {
		t.Fatal("0.94 must not trigger an above-0.95 alert")
	}
	if alerts[0].CurrentRate == nil || !alerts[0].CurrentRate.Equal(rate("0.94")) {
		t.Fatal("first tick should record 0.94 as the current rate")
	}

	source.rates["USD/EUR"] = rate("0.96")
	if err := svc.RunCheck(ctx, checkNow.Add(time.Hour)); err != nil {
		t.Fatalf("second tick: %v", err)
	}

	alerts, _ = svc.stores.Alerts.List(ctx)
	if alerts[0].TriggerCount != 1 {
		t.Fatalf("0.96 must trigger once, got count %d", alerts[0].TriggerCount)
	}
	triggers, _ := svc.stores.AlertHistory.Query(ctx, 0)
	if len(triggers) != 1 {
		t.Fatalf("expected exactly one trigger record, got %d", len(triggers))
	}
	if len(notifier.notes) != 1 {
		t.Fatalf("expected exactly one notification, got %d", len(notifier.notes))
	}
}

func TestRunCheckBelowThresholdOnlyAdvancesBaseline(t *testing.T) {
	ctx := context.Background()
	source := &staticSource{rates: map[string]decimal.Decimal{"USD/EUR": rate("0.9312")}}
	notifier := &captureNotifier{}
	svc := newTestService(t, source, notifier)

	mustCreateAlert(t, svc, "", "USD/EUR", domain.Above(rate("0.95")))

	if err := svc.RunCheck(ctx, checkNow); err != nil {
		t.Fatalf("run check: %v", err)
	}

	if len(notifier.notes) != 0 {
		t.Fatalf("expected no notification, got %d", len(notifier.notes))
	}
	alerts, _ := svc.stores.Alerts.List(ctx)
	got := alerts[0]
	if got.CurrentRate == nil || !got.CurrentRate.Equal(rate("0.9312")) {
		t.Fatal("baseline should advance even without a trigger")
	}
	if got.TriggerCount != 0 || got.LastTriggered != nil {
		t.Fatal("untriggered alert must keep its trigger bookkeeping")
	}
}

func TestRunCheckFetchFailureSkipsOnlyThatAlert(t *testing.T) {
	ctx := context.Background()
	source := &staticSource{
		rates: map[string]decimal.Decimal{"USD/EUR": rate("0.9612")},
		errs:  map[string]error{"GBP/JPY": errors.New("timeout")},
	}
	notifier := &captureNotifier{}
	svc := newTestService(t, source, notifier)

	mustCreateAlert(t, svc, "broken", "GBP/JPY", domain.Above(rate("190"))) // fetch fails
	mustCreateAlert(t, svc, "working", "USD/EUR", domain.Above(rate("0.95")))

	if err := svc.RunCheck(ctx, checkNow); err != nil {
		t.Fatalf("run check: %v", err)
	}

	alerts, _ := svc.stores.Alerts.List(ctx)
	for _, a := range alerts {
		switch a.Name {
		case "broken":
			if a.CurrentRate != nil || a.LastChecked != nil {
				t.Fatal("failed fetch must leave the alert untouched")
			}
		case "working":
			if a.CurrentRate == nil || a.LastChecked == nil {
				t.Fatal("healthy alert should still be checked")
			}
		}
	}
	if len(notifier.notes) != 1 {
		t.Fatalf("expected the healthy alert to notify once, got %d", len(notifier.notes))
	}
}

func TestRunCheckNoEnabledAlertsFetchesNothing(t *testing.T) {
	ctx := context.Background()
	source := &staticSource{}
	svc := newTestService(t, source, &captureNotifier{})

	if err := svc.RunCheck(ctx, checkNow); err != nil {
		t.Fatalf("run check with empty store: %v", err)
	}

	samples, _ := svc.stores.RateHistory.Snapshot(ctx)
	if len(samples) != 0 {
		t.Fatalf("expected no samples, got %d", len(samples))
	}
}

func TestRunCheckDeniedTriggerCanRefireLater(t *testing.T) {
	ctx := context.Background()
	source := &staticSource{rates: map[string]decimal.Decimal{"USD/EUR": rate("0.9612")}}
	notifier := &captureNotifier{}
	svc := newTestService(t, source, notifier)

	mustCreateAlert(t, svc, "", "USD/EUR", domain.Above(rate("0.95")))

	settings, _ := svc.stores.Settings.Load(ctx)
	settings.EnableNotifications = false
	if err := svc.stores.Settings.Save(ctx, settings); err != nil {
		t.Fatalf("save settings: %v", err)
	}

	if err := svc.RunCheck(ctx, checkNow); err != nil {
		t.Fatalf("first check: %v", err)
	}

	if len(notifier.notes) != 0 {
		t.Fatal("master switch off must suppress the notification")
	}
	triggers, _ := svc.stores.AlertHistory.Query(ctx, 0)
	if len(triggers) != 0 {
		t.Fatal("denied trigger must not be recorded")
	}
	alerts, _ := svc.stores.Alerts.List(ctx)
	if alerts[0].TriggerCount != 0 || alerts[0].LastTriggered != nil {
		t.Fatal("denied trigger must not mark the alert triggered")
	}

	settings.EnableNotifications = true
	if err := svc.stores.Settings.Save(ctx, settings); err != nil {
		t.Fatalf("save settings: %v", err)
	}

	if err := svc.RunCheck(ctx, checkNow.Add(time.Hour)); err != nil {
		t.Fatalf("second check: %v", err)
	}
	if len(notifier.notes) != 1 {
		t.Fatalf("condition still holds, expected a notification on the next eligible tick, got %d", len(notifier.notes))
	}
}

func TestRunCheckDailyCapCountsSameTickTriggers(t *testing.T) {
	ctx := context.Background()
	source := &staticSource{rates: map[string]decimal.Decimal{
		"USD/EUR": rate("0.9612"),
		"GBP/JPY": rate("191.20"),
		"USD/CHF": rate("0.8825"),
	}}
	notifier := &captureNotifier{}
	svc := newTestService(t, source, notifier)

	mustCreateAlert(t, svc, "a", "USD/EUR", domain.Above(rate("0.95")))
	mustCreateAlert(t, svc, "b", "GBP/JPY", domain.Above(rate("190")))
	mustCreateAlert(t, svc, "c", "USD/CHF", domain.Above(rate("0.88")))

	settings, _ := svc.stores.Settings.Load(ctx)
	settings.MaxNotificationsPerDay = 2
	if err := svc.stores.Settings.Save(ctx, settings); err != nil {
		t.Fatalf("save settings: %v", err)
	}

	if err := svc.RunCheck(ctx, checkNow); err != nil {
		t.Fatalf("run check: %v", err)
	}

	if len(notifier.notes) != 2 {
		t.Fatalf("cap 2 should allow exactly two notifications in the tick, got %d", len(notifier.notes))
	}
	triggers, _ := svc.stores.AlertHistory.Query(ctx, 0)
	if len(triggers) != 2 {
		t.Fatalf("expected two trigger records, got %d", len(triggers))
	}

	alerts, _ := svc.stores.Alerts.List(ctx)
	for _, a := range alerts {
		if a.Name == "c" && a.TriggerCount != 0 {
			t.Fatal("the capped alert must stay untriggered")
		}
		if a.CurrentRate == nil {
			t.Fatalf("alert %s should still have its baseline advanced", a.Name)
		}
	}
}

func TestRunCheckNotifierFailureStillRecordsTrigger(t *testing.T) {
	ctx := context.Background()
	source := &staticSource{rates: map[string]decimal.Decimal{"USD/EUR": rate("0.9612")}}
	notifier := &captureNotifier{fail: true}
	svc := newTestService(t, source, notifier)

	mustCreateAlert(t, svc, "", "USD/EUR", domain.Above(rate("0.95")))

	if err := svc.RunCheck(ctx, checkNow); err != nil {
		t.Fatalf("run check: %v", err)
	}

	triggers, _ := svc.stores.AlertHistory.Query(ctx, 0)
	if len(triggers) != 1 {
		t.Fatalf("expected one trigger record, got %d", len(triggers))
	}
	if triggers[0].Notified {
		t.Fatal("record must carry notified=false when dispatch fails")
	}
	alerts, _ := svc.stores.Alerts.List(ctx)
	if alerts[0].TriggerCount != 1 {
		t.Fatal("dispatch failure must not undo the trigger")
	}
}

func TestRunCheckChangeConditionArmsThenFires(t *testing.T) {
	ctx := context.Background()
	source := &staticSource{rates: map[string]decimal.Decimal{"USD/EUR": rate("1.00")}}
	notifier := &captureNotifier{}
	svc := newTestService(t, source, notifier)

	mustCreateAlert(t, svc, "", "USD/EUR", domain.ChangeExceeding(rate("2")))

	if err := svc.RunCheck(ctx, checkNow); err != nil {
		t.Fatalf("arming check: %v", err)
	}
	if len(notifier.notes) != 0 {
		t.Fatal("first sample only arms a change alert")
	}

	source.rates["USD/EUR"] = rate("1.03")
	if err := svc.RunCheck(ctx, checkNow.Add(time.Hour)); err != nil {
		t.Fatalf("firing check: %v", err)
	}
	if len(notifier.notes) != 1 {
		t.Fatalf("expected the move to trigger, got %d notifications", len(notifier.notes))
	}
	if !strings.Contains(notifier.notes[0].Body, "+3.00%") {
		t.Fatalf("notification should carry the signed move: %q", notifier.notes[0].Body)
	}

	triggers, _ := svc.stores.AlertHistory.Query(ctx, 0)
	if triggers[0].PreviousRate == nil || !triggers[0].PreviousRate.Equal(rate("1.00")) {
		t.Fatalf("trigger record should keep the previous rate: %+v", triggers[0].PreviousRate)
	}
}

func TestDailySummaryAggregatesTriggers(t *testing.T) {
	ctx := context.Background()
	notifier := &captureNotifier{}
	svc := newTestService(t, &staticSource{}, notifier)

	pair, _ := domain.NewCurrencyPair("USD", "EUR")
	for i, name := range []string{"a", "a", "b"} {
		err := svc.stores.AlertHistory.Append(ctx, domain.AlertHistoryEntry{
			AlertID:     "id",
			AlertName:   name,
			Pair:        pair,
			Condition:   domain.Above(rate("0.95")),
			Rate:        rate("0.96"),
			Message:     "USD/EUR reached 0.96",
			Notified:    true,
			TriggeredAt: checkNow.Add(-time.Duration(i+1) * time.Hour),
		})
		if err != nil {
			t.Fatalf("seed history: %v", err)
		}
	}

	if err := svc.RunDailySummary(ctx, checkNow); err != nil {
		t.Fatalf("daily summary: %v", err)
	}

	if len(notifier.notes) != 1 {
		t.Fatalf("expected one summary notification, got %d", len(notifier.notes))
	}
	note := notifier.notes[0]
	if !strings.Contains(note.Title, "3 trigger(s)") {
		t.Fatalf("unexpected title: %q", note.Title)
	}
	if !strings.Contains(note.Body, "a: 2 trigger(s)") || !strings.Contains(note.Body, "b: 1 trigger(s)") {
		t.Fatalf("summary body missing per-alert counts: %q", note.Body)
	}
}

func TestDailySummarySkipsWhenDisabledOrEmpty(t *testing.T) {
	ctx := context.Background()
	notifier := &captureNotifier{}
	svc := newTestService(t, &staticSource{}, notifier)

	if err := svc.RunDailySummary(ctx, checkNow); err != nil {
		t.Fatalf("summary with no triggers: %v", err)
	}
	if len(notifier.notes) != 0 {
		t.Fatal("nothing to report, nothing should be sent")
	}

	settings, _ := svc.stores.Settings.Load(ctx)
	settings.EnableDailySummary = false
	if err := svc.stores.Settings.Save(ctx, settings); err != nil {
		t.Fatalf("save settings: %v", err)
	}

	pair, _ := domain.NewCurrencyPair("USD", "EUR")
	_ = svc.stores.AlertHistory.Append(ctx, domain.AlertHistoryEntry{
		AlertName: "a", Pair: pair, Condition: domain.Above(rate("0.95")),
		Rate: rate("0.96"), TriggeredAt: checkNow.Add(-time.Hour),
	})

	if err := svc.RunDailySummary(ctx, checkNow); err != nil {
		t.Fatalf("summary while disabled: %v", err)
	}
	if len(notifier.notes) != 0 {
		t.Fatal("disabled flag must suppress the summary")
	}
}

func TestWeeklySummaryIncludesTrendAndCaches(t *testing.T) {
	ctx := context.Background()
	notifier := &captureNotifier{}
	svc := newTestService(t, &staticSource{}, notifier)

	pair, _ := domain.NewCurrencyPair("USD", "EUR")
	for i, r := range []string{"1.00", "1.01", "1.03"} {
		err := svc.stores.RateHistory.Append(ctx, domain.RateHistoryEntry{
			Pair:      pair,
			Rate:      rate(r),
			Timestamp: checkNow.Add(-time.Duration(3-i) * 24 * time.Hour),
		})
		if err != nil {
			t.Fatalf("seed rates: %v", err)
		}
	}

	if err := svc.RunWeeklySummary(ctx, checkNow); err != nil {
		t.Fatalf("weekly summary: %v", err)
	}

	if len(notifier.notes) != 1 {
		t.Fatalf("expected one summary, got %d", len(notifier.notes))
	}
	body := notifier.notes[0].Body
	if !strings.Contains(body, "USD/EUR") || !strings.Contains(body, "rising") {
		t.Fatalf("summary should describe the pair trend: %q", body)
	}

	snap, ok, err := svc.stores.Trends.Load(ctx, 7)
	if err != nil || !ok {
		t.Fatalf("trend snapshot should be cached: ok=%v err=%v", ok, err)
	}
	if _, present := snap.Pairs["USD/EUR"]; !present {
		t.Fatal("cached snapshot missing the analyzed pair")
	}
}

func TestRetentionCleanupPrunesBothHistories(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, &staticSource{}, &captureNotifier{})

	pair, _ := domain.NewCurrencyPair("USD", "EUR")
	old := checkNow.AddDate(0, 0, -120)
	fresh := checkNow.Add(-time.Hour)

	for _, ts := range []time.Time{old, fresh} {
		if err := svc.stores.RateHistory.Append(ctx, domain.RateHistoryEntry{Pair: pair, Rate: rate("1.0"), Timestamp: ts}); err != nil {
			t.Fatalf("seed rates: %v", err)
		}
		err := svc.stores.AlertHistory.Append(ctx, domain.AlertHistoryEntry{
			AlertName: "a", Pair: pair, Condition: domain.Above(rate("0.9")),
			Rate: rate("1.0"), TriggeredAt: ts,
		})
		if err != nil {
			t.Fatalf("seed triggers: %v", err)
		}
	}

	if err := svc.RunRetentionCleanup(ctx, checkNow); err != nil {
		t.Fatalf("retention cleanup: %v", err)
	}

	samples, _ := svc.stores.RateHistory.Snapshot(ctx)
	if len(samples) != 1 || !samples[0].Timestamp.Equal(fresh) {
		t.Fatalf("expected only the fresh sample to survive, got %d", len(samples))
	}
	triggers, _ := svc.stores.AlertHistory.Snapshot(ctx)
	if len(triggers) != 1 || !triggers[0].TriggeredAt.Equal(fresh) {
		t.Fatalf("expected only the fresh trigger to survive, got %d", len(triggers))
	}
}

func TestUpdateSettingsValidatesAndPersists(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, &staticSource{}, &captureNotifier{})

	interval := 15
	updated, err := svc.UpdateSettings(ctx, domain.SettingsPatch{CheckIntervalMinutes: &interval})
	if err != nil {
		t.Fatalf("update settings: %v", err)
	}
	if updated.CheckIntervalMinutes != 15 {
		t.Fatalf("expected interval 15, got %d", updated.CheckIntervalMinutes)
	}

	bad := 0
	if _, err := svc.UpdateSettings(ctx, domain.SettingsPatch{CheckIntervalMinutes: &bad}); err == nil {
		t.Fatal("zero interval must be rejected")
	}

	reloaded, _ := svc.Settings(ctx)
	if reloaded.CheckIntervalMinutes != 15 {
		t.Fatal("rejected patch must not overwrite the stored settings")
	}
}

func TestGetTrendRejectsBadPeriod(t *testing.T) {
	svc := newTestService(t, &staticSource{}, &captureNotifier{})

	if _, err := svc.GetTrend(context.Background(), 0); err == nil {
		t.Fatal("period below one day must be rejected")
	}
}
