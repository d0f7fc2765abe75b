package trend

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"fx-rate-alerts/internal/domain"
)

// Classification thresholds for the overall movement, in percent.
var (
	risingAbove  = decimal.NewFromInt(1)
	fallingBelow = decimal.NewFromInt(-1)
	hundred      = decimal.NewFromInt(100)
)

// Analyze summarises rate movement per currency pair over the trailing
// period ending at now. Pairs with fewer than two samples in the window are
// omitted: a single point carries no direction.
func Analyze(entries []domain.RateHistoryEntry, days int, now time.Time) domain.TrendSnapshot {
	cutoff := now.AddDate(0, 0, -days)

	byPair := make(map[string][]domain.RateHistoryEntry)
	for _, e := range entries {
		if e.Timestamp.Before(cutoff) || e.Timestamp.After(now) {
			continue
		}
		key := e.Pair.Key()
		byPair[key] = append(byPair[key], e)
	}

	pairs := make(map[string]domain.TrendEntry, len(byPair))
	for key, samples := range byPair {
		if len(samples) < 2 {
			continue
		}
		sort.SliceStable(samples, func(i, j int) bool {
			return samples[i].Timestamp.Before(samples[j].Timestamp)
		})

		first := samples[0].Rate
		last := samples[len(samples)-1].Rate
		if first.IsZero() {
			continue
		}
		pct := last.Sub(first).Div(first).Mul(hundred)

		pairs[key] = domain.TrendEntry{
			StartRate:     first,
			EndRate:       last,
			PercentChange: pct,
			Volatility:    volatility(samples),
			DataPoints:    len(samples),
			Trend:         classify(pct),
		}
	}

	return domain.TrendSnapshot{GeneratedAt: now, PeriodDays: days, Pairs: pairs}
}

func classify(pct decimal.Decimal) domain.TrendDirection {
	switch {
	case pct.GreaterThan(risingAbove):
		return domain.TrendRising
	case pct.LessThan(fallingBelow):
		return domain.TrendFalling
	default:
		return domain.TrendStable
	}
}

// volatility is the population standard deviation of the raw rate levels.
func volatility(samples []domain.RateHistoryEntry) decimal.Decimal {
	n := float64(len(samples))
	var sum float64
	for _, s := range samples {
		sum += s.Rate.InexactFloat64()
	}
	mean := sum / n

	var sq float64
	for _, s := range samples {
		d := s.Rate.InexactFloat64() - mean
		sq += d * d
	}
	return decimal.NewFromFloat(math.Sqrt(sq / n))
}
