package service

import (
	"context"
	"time"

	"fx-rate-alerts/internal/domain"
	"fx-rate-alerts/internal/trend"
)

// ListAlerts returns every alert in creation order.
func (s *Service) ListAlerts(ctx context.Context) ([]domain.Alert, error) {
	return s.stores.Alerts.List(ctx)
}

// CreateAlert validates the spec and persists a new alert.
func (s *Service) CreateAlert(ctx context.Context, spec domain.AlertSpec) (domain.Alert, error) {
	return s.stores.Alerts.Create(ctx, spec, time.Now().UTC())
}

// UpdateAlert applies a partial update to an existing alert.
func (s *Service) UpdateAlert(ctx context.Context, id string, patch domain.AlertPatch) (domain.Alert, error) {
	return s.stores.Alerts.Update(ctx, id, patch, time.Now().UTC())
}

// DeleteAlert removes an alert. Its trigger history survives unchanged.
func (s *Service) DeleteAlert(ctx context.Context, id string) (domain.Alert, error) {
	return s.stores.Alerts.Delete(ctx, id)
}

// GetAlertHistory returns trigger records, most recent first.
func (s *Service) GetAlertHistory(ctx context.Context, limit int) ([]domain.AlertHistoryEntry, error) {
	return s.stores.AlertHistory.Query(ctx, limit)
}

// GetRateHistory returns rate samples, most recent first, optionally
// filtered by currency code.
func (s *Service) GetRateHistory(ctx context.Context, from, to string, limit int) ([]domain.RateHistoryEntry, error) {
	return s.stores.RateHistory.Query(ctx, from, to, limit)
}

// GetTrend regenerates the trend snapshot for the period from the stored
// rate history and caches it. A caching failure does not fail the query.
func (s *Service) GetTrend(ctx context.Context, periodDays int) (domain.TrendSnapshot, error) {
	if periodDays < 1 {
		return domain.TrendSnapshot{}, domain.ValidationError{Field: "periodDays", Reason: "must be at least 1"}
	}

	rates, err := s.stores.RateHistory.Snapshot(ctx)
	if err != nil {
		return domain.TrendSnapshot{}, err
	}

	snap := trend.Analyze(rates, periodDays, time.Now().UTC())
	if err := s.stores.Trends.Save(ctx, snap); err != nil {
		s.logger.Error().Err(err).Int("period_days", periodDays).Msg("failed to cache trend snapshot")
	}
	return snap, nil
}

// Settings returns the current monitor settings.
func (s *Service) Settings(ctx context.Context) (domain.Settings, error) {
	return s.stores.Settings.Load(ctx)
}

// UpdateSettings applies a partial settings update and re-registers the
// schedules so interval and summary changes take effect without a restart.
func (s *Service) UpdateSettings(ctx context.Context, patch domain.SettingsPatch) (domain.Settings, error) {
	current, err := s.stores.Settings.Load(ctx)
	if err != nil {
		return domain.Settings{}, err
	}

	next, err := current.ApplyPatch(patch)
	if err != nil {
		return domain.Settings{}, err
	}
	if err := s.stores.Settings.Save(ctx, next); err != nil {
		return domain.Settings{}, err
	}

	if s.scheduler != nil {
		s.applySchedules(next)
	}
	return next, nil
}
