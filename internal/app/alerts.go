package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"fx-rate-alerts/internal/domain"
)

// AddAlertOptions capture the alert-add flags.
type AddAlertOptions struct {
	Name        string
	Description string
	Pair        string
	Above       float64
	Below       float64
	Change      float64
	Disabled    bool
}

// UpdateAlertOptions capture the alert-update flags. Nil means unchanged.
type UpdateAlertOptions struct {
	Name        *string
	Description *string
	Pair        *string
	Above       *float64
	Below       *float64
	Change      *float64
	Enabled     *bool
}

// conditionFromValues maps the mutually exclusive threshold flags onto a
// condition. Exactly one value must be set.
func conditionFromValues(above, below, change float64) (domain.Condition, error) {
	set := 0
	for _, v := range []float64{above, below, change} {
		if v != 0 {
			set++
		}
	}
	if set != 1 {
		return domain.Condition{}, errors.New("exactly one of --above, --below, --change must be set")
	}

	switch {
	case above != 0:
		return domain.Above(decimal.NewFromFloat(above)), nil
	case below != 0:
		return domain.Below(decimal.NewFromFloat(below)), nil
	default:
		return domain.ChangeExceeding(decimal.NewFromFloat(change)), nil
	}
}

// Alerts prints the alert collection.
func (a *App) Alerts(ctx context.Context) error {
	svc, closeSvc, err := a.newService(ctx)
	if err != nil {
		return err
	}
	defer closeSvc()

	alerts, err := svc.ListAlerts(ctx)
	if err != nil {
		return err
	}
	if len(alerts) == 0 {
		fmt.Fprintln(os.Stdout, "no alerts configured")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tName\tPair\tCondition\tEnabled\tRate\tTriggers\tLast Triggered")

	for _, alert := range alerts {
		rate := "-"
		if alert.CurrentRate != nil {
			rate = alert.CurrentRate.String()
		}
		lastTriggered := "-"
		if alert.LastTriggered != nil {
			lastTriggered = alert.LastTriggered.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%t\t%s\t%d\t%s\n",
			alert.ID,
			sanitizeInline(alert.Name),
			alert.Pair.Key(),
			alert.Condition.String(),
			alert.Enabled,
			rate,
			alert.TriggerCount,
			lastTriggered,
		)
	}

	writer.Flush()
	return nil
}

// AddAlert creates a new alert from CLI flags and prints its id.
func (a *App) AddAlert(ctx context.Context, opts AddAlertOptions) error {
	cond, err := conditionFromValues(opts.Above, opts.Below, opts.Change)
	if err != nil {
		return err
	}
	pair, err := domain.ParsePairKey(opts.Pair)
	if err != nil {
		return err
	}

	svc, closeSvc, err := a.newService(ctx)
	if err != nil {
		return err
	}
	defer closeSvc()

	alert, err := svc.CreateAlert(ctx, domain.AlertSpec{
		Name:        opts.Name,
		Description: opts.Description,
		Pair:        pair,
		Condition:   cond,
		Enabled:     !opts.Disabled,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "created alert %s (%s, %s)\n", alert.ID, alert.Pair.Key(), alert.Condition.String())
	return nil
}

// UpdateAlert applies flag-driven changes to an existing alert.
func (a *App) UpdateAlert(ctx context.Context, id string, opts UpdateAlertOptions) error {
	patch := domain.AlertPatch{
		Name:        opts.Name,
		Description: opts.Description,
		Enabled:     opts.Enabled,
	}

	if opts.Pair != nil {
		pair, err := domain.ParsePairKey(*opts.Pair)
		if err != nil {
			return err
		}
		patch.Pair = &pair
	}

	thresholds := 0
	for _, v := range []*float64{opts.Above, opts.Below, opts.Change} {
		if v != nil {
			thresholds++
		}
	}
	if thresholds > 1 {
		return errors.New("at most one of --above, --below, --change may be set")
	}
	switch {
	case opts.Above != nil:
		cond := domain.Above(decimal.NewFromFloat(*opts.Above))
		patch.Condition = &cond
	case opts.Below != nil:
		cond := domain.Below(decimal.NewFromFloat(*opts.Below))
		patch.Condition = &cond
	case opts.Change != nil:
		cond := domain.ChangeExceeding(decimal.NewFromFloat(*opts.Change))
		patch.Condition = &cond
	}

	svc, closeSvc, err := a.newService(ctx)
	if err != nil {
		return err
	}
	defer closeSvc()

	alert, err := svc.UpdateAlert(ctx, id, patch)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "updated alert %s (%s, %s)\n", alert.ID, alert.Pair.Key(), alert.Condition.String())
	return nil
}

// DeleteAlert removes an alert by id.
func (a *App) DeleteAlert(ctx context.Context, id string) error {
	svc, closeSvc, err := a.newService(ctx)
	if err != nil {
		return err
	}
	defer closeSvc()

	removed, err := svc.DeleteAlert(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "deleted alert %s (%s)\n", removed.ID, sanitizeInline(removed.Name))
	return nil
}
