package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TrendDirection classifies a pair's movement over an analysis period.
type TrendDirection string

const (
	TrendRising  TrendDirection = "rising"
	TrendFalling TrendDirection = "falling"
	TrendStable  TrendDirection = "stable"
)

// TrendEntry summarizes one currency pair's movement within a period.
type TrendEntry struct {
	StartRate     decimal.Decimal `json:"startRate"`
	EndRate       decimal.Decimal `json:"endRate"`
	PercentChange decimal.Decimal `json:"percentChange"`
	Volatility    decimal.Decimal `json:"volatility"`
	DataPoints    int             `json:"dataPoints"`
	Trend         TrendDirection  `json:"trend"`
}

// TrendSnapshot is a cached analysis result for one period. Regenerating the
// same period overwrites the prior snapshot.
type TrendSnapshot struct {
	GeneratedAt time.Time             `json:"generatedAt"`
	PeriodDays  int                   `json:"periodDays"`
	Pairs       map[string]TrendEntry `json:"pairs"`
}
