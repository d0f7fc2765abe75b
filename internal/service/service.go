package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fx-rate-alerts/internal/alerting"
	"fx-rate-alerts/internal/config"
	"fx-rate-alerts/internal/domain"
	"fx-rate-alerts/internal/fetcher"
	"fx-rate-alerts/internal/gate"
	"fx-rate-alerts/internal/scheduler"
	"fx-rate-alerts/internal/storage"
)

// Schedule names owned by the coordinator.
const (
	scheduleRateCheck     = "rate_check"
	scheduleDailySummary  = "daily_summary"
	scheduleWeeklySummary = "weekly_summary"
	scheduleRetention     = "retention_cleanup"
)

// retentionCleanupTime is fixed off-peak; it is not user-visible.
var retentionCleanupTime = domain.ClockTime{Hour: 3, Minute: 15}

// Stores groups the persistence components the coordinator works with.
type Stores struct {
	Alerts       *storage.AlertStore
	RateHistory  *storage.RateHistoryStore
	AlertHistory *storage.AlertHistoryStore
	Settings     *storage.SettingsStore
	Trends       *storage.TrendStore
}

// Service coordinates rate sampling, alert evaluation, gating, notification
// and summaries. It is the only writer of the alert collection during a
// tick.
type Service struct {
	scheduler *scheduler.Scheduler
	source    fetcher.RateSource
	stores    Stores
	notifier  alerting.Notifier
	logger    zerolog.Logger

	fetchTimeout  time.Duration
	retentionDays int
}

// New constructs the monitoring coordinator.
func New(cfg *config.Config, sched *scheduler.Scheduler, source fetcher.RateSource, stores Stores, notifier alerting.Notifier, logger zerolog.Logger) *Service {
	fetchTimeout := cfg.Monitor.FetchTimeout
	if fetchTimeout <= 0 {
		fetchTimeout = 10 * time.Second
	}

	return &Service{
		scheduler:     sched,
		source:        source,
		stores:        stores,
		notifier:      notifier,
		logger:        logger.With().Str("component", "service").Logger(),
		fetchTimeout:  fetchTimeout,
		retentionDays: cfg.Monitor.RetentionDays,
	}
}

// Run registers the schedules from the stored settings and consumes tick
// events until ctx is cancelled. Tick failures degrade to logs; they are
// never returned to the caller.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}

	settings, err := s.stores.Settings.Load(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	s.applySchedules(settings)

	errCh := make(chan error, 1)
	go func() { errCh <- s.scheduler.Run(ctx) }()

	for {
		select {
		case err := <-errCh:
			return err
		case ev := <-s.scheduler.Ticks():
			s.dispatch(ctx, ev)
		}
	}
}

func (s *Service) dispatch(ctx context.Context, ev scheduler.Event) {
	var err error
	switch ev.Name {
	case scheduleRateCheck:
		err = s.RunCheck(ctx, ev.Due)
	case scheduleDailySummary:
		err = s.RunDailySummary(ctx, ev.Due)
	case scheduleWeeklySummary:
		err = s.RunWeeklySummary(ctx, ev.Due)
	case scheduleRetention:
		err = s.RunRetentionCleanup(ctx, ev.Due)
	default:
		s.logger.Warn().Str("schedule", ev.Name).Msg("unknown schedule event")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("schedule", ev.Name).Time("due", ev.Due).Msg("tick execution failed")
	}
}

func (s *Service) applySchedules(settings domain.Settings) {
	s.scheduler.Register(scheduleRateCheck, scheduler.Every(settings.CheckInterval()))

	if settings.EnableDailySummary {
		s.scheduler.Register(scheduleDailySummary, scheduler.DailyAt(settings.SummaryTime))
	} else {
		s.scheduler.Unregister(scheduleDailySummary)
	}

	if settings.EnableWeeklySummary {
		s.scheduler.Register(scheduleWeeklySummary, scheduler.WeeklyAt(settings.WeeklySummaryDay, settings.SummaryTime))
	} else {
		s.scheduler.Unregister(scheduleWeeklySummary)
	}

	s.scheduler.Register(scheduleRetention, scheduler.DailyAt(retentionCleanupTime))
}

// RunCheck 执行一次完整的汇率巡检: 逐个告警拉取现价、评估条件、限流后推送。
func (s *Service) RunCheck(ctx context.Context, now time.Time) error {
	enabled, err := s.stores.Alerts.ListEnabled(ctx)
	if err != nil {
		return fmt.Errorf("list enabled alerts: %w", err)
	}
	if len(enabled) == 0 {
		s.logger.Debug().Msg("no enabled alerts, check skipped")
		return nil
	}

	settings, err := s.stores.Settings.Load(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	// sequential on purpose: outbound request rate stays bounded and the
	// evaluation order matches creation order
	checked := make([]domain.Alert, 0, len(enabled))
	for _, alert := range enabled {
		updated, err := s.checkAlert(ctx, alert, settings, now)
		if err != nil {
			s.logger.Warn().Err(err).
				Str("alert_id", alert.ID).
				Str("pair", alert.Pair.Key()).
				Msg("alert check skipped")
			continue
		}
		checked = append(checked, updated)
	}

	if len(checked) == 0 {
		return nil
	}
	if err := s.stores.Alerts.SaveBatch(ctx, checked); err != nil {
		return fmt.Errorf("persist checked alerts: %w", err)
	}

	s.logger.Info().Int("alerts_checked", len(checked)).Time("tick", now).Msg("rate check complete")
	return nil
}

// checkAlert fetches the pair's rate and applies the alert's condition. The
// returned alert carries the new baseline; a fetch failure leaves the stored
// alert untouched for this tick.
func (s *Service) checkAlert(ctx context.Context, alert domain.Alert, settings domain.Settings, now time.Time) (domain.Alert, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	rate, err := s.source.FetchRate(fetchCtx, alert.Pair)
	cancel()
	if err != nil {
		return domain.Alert{}, fmt.Errorf("fetch rate: %w", err)
	}

	if err := s.stores.RateHistory.Append(ctx, domain.RateHistoryEntry{
		Pair:      alert.Pair,
		Rate:      rate,
		Source:    s.source.Name(),
		Timestamp: now,
	}); err != nil {
		s.logger.Error().Err(err).Str("pair", alert.Pair.Key()).Msg("failed to append rate history")
	}

	// evaluate against the previous sample before overwriting the baseline
	ev := domain.Evaluate(alert, rate)

	checkedAt := now
	alert.CurrentRate = &rate
	alert.LastChecked = &checkedAt

	if ev.Triggered {
		s.handleTrigger(ctx, &alert, ev, settings, now)
	}
	return alert, nil
}

// handleTrigger runs the notification gate and, when allowed, dispatches the
// notification and records the trigger. A denied alert keeps its
// triggerCount and lastTriggered untouched so it can fire again once the
// gate reopens.
func (s *Service) handleTrigger(ctx context.Context, alert *domain.Alert, ev domain.Evaluation, settings domain.Settings, now time.Time) {
	history, err := s.stores.AlertHistory.Snapshot(ctx)
	if err != nil {
		s.logger.Error().Err(err).Str("alert_id", alert.ID).Msg("failed to load alert history for gating")
		return
	}

	decision := gate.Decide(settings, history, now)
	if !decision.Allowed {
		s.logger.Info().
			Str("alert_id", alert.ID).
			Str("pair", alert.Pair.Key()).
			Str("reason", string(decision.Reason)).
			Msg("notification suppressed")
		return
	}

	message := ev.Message(*alert)
	entry := domain.AlertHistoryEntry{
		ID:           uuid.NewString(),
		AlertID:      alert.ID,
		AlertName:    alert.Name,
		Pair:         alert.Pair,
		Condition:    alert.Condition,
		Rate:         ev.Rate,
		PreviousRate: ev.Previous,
		Message:      message,
		Notified:     true,
		TriggeredAt:  now,
	}

	if err := s.notifier.Notify(ctx, alerting.Notification{
		ID:    entry.ID,
		Title: "FX Alert: " + alert.Name,
		Body:  message,
		At:    now,
	}); err != nil {
		s.logger.Error().Err(err).Str("alert_id", alert.ID).Msg("failed to dispatch notification")
		entry.Notified = false
	}

	if err := s.stores.AlertHistory.Append(ctx, entry); err != nil {
		s.logger.Error().Err(err).Str("alert_id", alert.ID).Msg("failed to append alert history")
	}

	triggeredAt := now
	alert.TriggerCount++
	alert.LastTriggered = &triggeredAt

	s.logger.Info().
		Str("alert_id", alert.ID).
		Str("pair", alert.Pair.Key()).
		Str("rate", ev.Rate.String()).
		Msg("alert triggered")
}
