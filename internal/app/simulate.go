package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"fx-rate-alerts/internal/domain"
	"fx-rate-alerts/internal/fetcher"
	"fx-rate-alerts/internal/service"
	"fx-rate-alerts/internal/storage"
)

// SimulateOptions capture the simulate-alert flags.
type SimulateOptions struct {
	Pair   string
	Rate   float64
	Above  float64
	Below  float64
	Change float64
}

// SimulateAlert 在独立的内存存储上模拟一次完整巡检, 不会触碰真实数据。
func (a *App) SimulateAlert(ctx context.Context, opts SimulateOptions) error {
	cond, err := conditionFromValues(opts.Above, opts.Below, opts.Change)
	if err != nil {
		return err
	}
	pair, err := domain.ParsePairKey(opts.Pair)
	if err != nil {
		return err
	}

	kv := storage.NewMemory()
	stores := a.newStores(kv)

	now := time.Now().UTC()
	alert, err := stores.Alerts.Create(ctx, domain.AlertSpec{
		Name:      "simulated",
		Pair:      pair,
		Condition: cond,
		Enabled:   true,
	}, now)
	if err != nil {
		return err
	}

	rate := decimal.NewFromFloat(opts.Rate)
	svc := service.New(a.Config, nil, &staticSource{rate: rate}, stores, a.newNotifier(), a.Logger)

	if err := svc.RunCheck(ctx, now); err != nil {
		return err
	}

	triggers, err := stores.AlertHistory.Query(ctx, 1)
	if err != nil {
		return err
	}
	if len(triggers) == 0 {
		if alert.Condition.Kind() == domain.ConditionChange {
			fmt.Fprintf(os.Stdout, "baseline armed at %s; a change alert needs a second sample\n", rate.String())
			return nil
		}
		fmt.Fprintf(os.Stdout, "condition not met: %s at %s\n", alert.Pair.Key(), rate.String())
		return nil
	}

	fmt.Fprintf(os.Stdout, "alert triggered: %s\n", triggers[0].Message)
	return nil
}

type staticSource struct {
	rate decimal.Decimal
}

func (s *staticSource) FetchRate(_ context.Context, _ domain.CurrencyPair) (decimal.Decimal, error) {
	return s.rate, nil
}

func (s *staticSource) Name() string { return "simulated" }

var _ fetcher.RateSource = (*staticSource)(nil)
