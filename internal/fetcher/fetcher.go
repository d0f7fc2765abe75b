package fetcher

import (
	"context"

	"github.com/shopspring/decimal"

	"fx-rate-alerts/internal/domain"
)

// RateSource retrieves the current exchange rate for a currency pair.
type RateSource interface {
	// FetchRate returns one unit of pair.From priced in pair.To.
	FetchRate(ctx context.Context, pair domain.CurrencyPair) (decimal.Decimal, error)
	// Name identifies the provider in rate history entries.
	Name() string
}
