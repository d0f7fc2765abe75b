package app

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
)

// Trend analyzes the stored rate history over the period and prints one row
// per pair.
func (a *App) Trend(ctx context.Context, periodDays int) error {
	svc, closeSvc, err := a.newService(ctx)
	if err != nil {
		return err
	}
	defer closeSvc()

	snap, err := svc.GetTrend(ctx, periodDays)
	if err != nil {
		return err
	}
	if len(snap.Pairs) == 0 {
		fmt.Fprintf(os.Stdout, "not enough data in the last %d day(s)\n", periodDays)
		return nil
	}

	keys := make([]string, 0, len(snap.Pairs))
	for key := range snap.Pairs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Pair\tTrend\tChange%\tStart\tEnd\tVolatility\tSamples")

	for _, key := range keys {
		entry := snap.Pairs[key]
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			key,
			entry.Trend,
			formatDecimal(entry.PercentChange, 2),
			entry.StartRate.String(),
			entry.EndRate.String(),
			formatDecimal(entry.Volatility, 4),
			entry.DataPoints,
		)
	}

	writer.Flush()
	return nil
}
