package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fx-rate-alerts/internal/alerting"
	"fx-rate-alerts/internal/domain"
	"fx-rate-alerts/internal/trend"
)

// weeklyTrendDays is the analysis window attached to the weekly summary.
const weeklyTrendDays = 7

// RunDailySummary reports the last day's trigger activity in a single
// notification. Nothing is sent when the flag is off or no alert fired.
func (s *Service) RunDailySummary(ctx context.Context, now time.Time) error {
	settings, err := s.stores.Settings.Load(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if !settings.EnableDailySummary {
		return nil
	}

	history, err := s.stores.AlertHistory.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("load alert history: %w", err)
	}

	recent := triggeredBetween(history, now.Add(-24*time.Hour), now)
	if len(recent) == 0 {
		s.logger.Debug().Msg("no triggers in the last day, summary skipped")
		return nil
	}

	note := alerting.Notification{
		ID:    uuid.NewString(),
		Title: fmt.Sprintf("Daily FX summary: %d trigger(s)", len(recent)),
		Body:  triggerBreakdown(recent),
		At:    now,
	}
	if err := s.notifier.Notify(ctx, note); err != nil {
		return fmt.Errorf("dispatch daily summary: %w", err)
	}

	s.logger.Info().Int("triggers", len(recent)).Msg("daily summary sent")
	return nil
}

// RunWeeklySummary combines the week's trigger counts with a fresh trend
// analysis over the same window. The analysis snapshot is cached even when
// no notification goes out.
func (s *Service) RunWeeklySummary(ctx context.Context, now time.Time) error {
	settings, err := s.stores.Settings.Load(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if !settings.EnableWeeklySummary {
		return nil
	}

	history, err := s.stores.AlertHistory.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("load alert history: %w", err)
	}
	recent := triggeredBetween(history, now.AddDate(0, 0, -weeklyTrendDays), now)

	rates, err := s.stores.RateHistory.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("load rate history: %w", err)
	}
	snap := trend.Analyze(rates, weeklyTrendDays, now)
	if err := s.stores.Trends.Save(ctx, snap); err != nil {
		s.logger.Error().Err(err).Msg("failed to cache weekly trend snapshot")
	}

	if len(recent) == 0 && len(snap.Pairs) == 0 {
		s.logger.Debug().Msg("nothing to report, weekly summary skipped")
		return nil
	}

	note := alerting.Notification{
		ID:    uuid.NewString(),
		Title: fmt.Sprintf("Weekly FX summary: %d trigger(s)", len(recent)),
		Body:  weeklyBody(recent, snap),
		At:    now,
	}
	if err := s.notifier.Notify(ctx, note); err != nil {
		return fmt.Errorf("dispatch weekly summary: %w", err)
	}

	s.logger.Info().
		Int("triggers", len(recent)).
		Int("pairs_analyzed", len(snap.Pairs)).
		Msg("weekly summary sent")
	return nil
}

// RunRetentionCleanup prunes history entries older than the retention
// window.
func (s *Service) RunRetentionCleanup(ctx context.Context, now time.Time) error {
	if s.retentionDays <= 0 {
		return nil
	}
	cutoff := now.AddDate(0, 0, -s.retentionDays)

	removedRates, err := s.stores.RateHistory.PruneOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("prune rate history: %w", err)
	}
	removedTriggers, err := s.stores.AlertHistory.PruneOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("prune alert history: %w", err)
	}

	if removedRates > 0 || removedTriggers > 0 {
		s.logger.Info().
			Int("rates_removed", removedRates).
			Int("triggers_removed", removedTriggers).
			Time("cutoff", cutoff).
			Msg("retention cleanup complete")
	}
	return nil
}

func triggeredBetween(entries []domain.AlertHistoryEntry, since, until time.Time) []domain.AlertHistoryEntry {
	out := make([]domain.AlertHistoryEntry, 0, len(entries))
	for _, e := range entries {
		if e.TriggeredAt.Before(since) || e.TriggeredAt.After(until) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// triggerBreakdown lists per-alert counts in first-trigger order, ending
// with the most recent message.
func triggerBreakdown(entries []domain.AlertHistoryEntry) string {
	counts := make(map[string]int, len(entries))
	order := make([]string, 0, len(entries))
	for _, e := range entries {
		if _, seen := counts[e.AlertName]; !seen {
			order = append(order, e.AlertName)
		}
		counts[e.AlertName]++
	}

	var b strings.Builder
	for _, name := range order {
		fmt.Fprintf(&b, "%s: %d trigger(s)\n", name, counts[name])
	}
	b.WriteString("Last: " + entries[len(entries)-1].Message)
	return b.String()
}

func weeklyBody(entries []domain.AlertHistoryEntry, snap domain.TrendSnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Triggers this week: %d\n", len(entries))

	keys := make([]string, 0, len(snap.Pairs))
	for key := range snap.Pairs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		t := snap.Pairs[key]
		fmt.Fprintf(&b, "%s: %s (%s%%, volatility %s)\n",
			key, t.Trend, signedFixed(t.PercentChange), t.Volatility.StringFixed(4))
	}
	return strings.TrimRight(b.String(), "\n")
}

func signedFixed(d decimal.Decimal) string {
	if d.Sign() > 0 {
		return "+" + d.StringFixed(2)
	}
	return d.StringFixed(2)
}
