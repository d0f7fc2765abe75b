package app

import (
	"context"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	chart "github.com/wcharczuk/go-chart/v2"

	"fx-rate-alerts/internal/domain"
)

// Export renders stored rate history as CSV and/or PNG.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	svc, closeSvc, err := a.newService(ctx)
	if err != nil {
		return err
	}
	defer closeSvc()

	to := time.Now().UTC()
	if opts.To != nil {
		to = opts.To.UTC()
	}
	from := to.AddDate(0, 0, -a.Config.Monitor.RetentionDays)
	if opts.From != nil {
		from = opts.From.UTC()
	}
	if !from.Before(to) {
		return errors.New("from must be before to")
	}

	pairKey := ""
	if opts.Pair != "" {
		pair, err := domain.ParsePairKey(opts.Pair)
		if err != nil {
			return err
		}
		pairKey = pair.Key()
	}

	all, err := svc.GetRateHistory(ctx, "", "", 0)
	if err != nil {
		return err
	}

	entries := filterWindow(all, from, to, pairKey)
	if len(entries) == 0 {
		a.Logger.Info().Msg("no samples found for export window")
		return nil
	}

	a.Logger.Info().Int("total", len(all)).Int("exported", len(entries)).Msg("exporting samples")

	if opts.CSVPath != "" {
		if err := writeRatesCSV(opts.CSVPath, downsampleEntries(entries, opts.MaxPoints)); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeRatesPNG(opts.PNGPath, entries, opts.MaxPoints); err != nil {
			return err
		}
	}

	return nil
}

// filterWindow keeps entries inside [from, to), optionally for one pair, in
// ascending time order.
func filterWindow(entries []domain.RateHistoryEntry, from, to time.Time, pairKey string) []domain.RateHistoryEntry {
	out := make([]domain.RateHistoryEntry, 0, len(entries))
	for _, e := range entries {
		if e.Timestamp.Before(from) || !e.Timestamp.Before(to) {
			continue
		}
		if pairKey != "" && e.Pair.Key() != pairKey {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

func downsampleEntries(entries []domain.RateHistoryEntry, max int) []domain.RateHistoryEntry {
	if max <= 0 || len(entries) <= max {
		return entries
	}

	result := make([]domain.RateHistoryEntry, 0, max)
	step := float64(len(entries)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(entries) {
			idx = len(entries) - 1
		}
		result = append(result, entries[idx])
	}
	return result
}

func writeRatesCSV(path string, entries []domain.RateHistoryEntry) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"timestamp", "pair", "rate", "source"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, entry := range entries {
		record := []string{
			entry.Timestamp.UTC().Format(time.RFC3339),
			entry.Pair.Key(),
			entry.Rate.String(),
			entry.Source,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeRatesPNG(path string, entries []domain.RateHistoryEntry, maxPoints int) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	byPair := make(map[string][]domain.RateHistoryEntry)
	for _, entry := range entries {
		key := entry.Pair.Key()
		byPair[key] = append(byPair[key], entry)
	}

	keys := make([]string, 0, len(byPair))
	for key := range byPair {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	series := make([]chart.Series, 0, len(keys))
	for _, key := range keys {
		points := downsampleEntries(byPair[key], maxPoints)
		x := make([]time.Time, len(points))
		y := make([]float64, len(points))
		for i, p := range points {
			x[i] = p.Timestamp
			y[i] = p.Rate.InexactFloat64()
		}
		series = append(series, chart.TimeSeries{
			Name:    key,
			XValues: x,
			YValues: y,
		})
	}

	rateFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.4f")
	}
	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Rate",
			ValueFormatter: rateFormatter,
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func formatDecimal(d decimal.Decimal, places int32) string {
	return d.StringFixed(places)
}
