package app

import (
	"context"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"pump-alerts/internal/model"
	"pump-alerts/internal/storage"
)

// Export renders recorded signals as CSV and/or PNG.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot export")
	}
	if closeStore != nil {
		defer closeStore()
	}

	to := time.Now().UTC()
	if opts.To != nil {
		to = opts.To.UTC()
	}

	from := to.Add(-7 * 24 * time.Hour)
	if opts.From != nil {
		from = opts.From.UTC()
	}

	if !from.Before(to) {
		return errors.New("from must be before to")
	}

	signals, err := store.ListSignalsBetween(ctx, from, to)
	if err != nil {
		return err
	}
	if len(signals) == 0 {
		a.Logger.Info().Msg("no signals found for export window")
		return nil
	}

	downsampled := downsampleSignals(signals, opts.MaxPoints)
	a.Logger.Info().Int("total", len(signals)).Int("exported", len(downsampled)).Msg("exporting signals")

	if opts.CSVPath != "" {
		if err := writeSignalsCSV(opts.CSVPath, downsampled); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeSignalsPNG(opts.PNGPath, downsampled); err != nil {
			return err
		}
	}

	return nil
}

func downsampleSignals(signals []storage.SignalRecord, max int) []storage.SignalRecord {
	if max <= 0 || len(signals) <= max {
		return signals
	}
	if max == 1 {
		return signals[len(signals)-1:]
	}

	result := make([]storage.SignalRecord, 0, max)
	step := float64(len(signals)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(signals) {
			idx = len(signals) - 1
		}
		result = append(result, signals[idx])
	}
	return result
}

func writeSignalsCSV(path string, signals []storage.SignalRecord) error {
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

	header := []string{"signal_ts", "pair", "side", "price", "variation_pct", "series_variation_pct", "rsi_evaluation", "rsi_trend", "histogram_evaluation"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, rec := range signals {
		record := []string{
			rec.SignalAt.UTC().Format(time.RFC3339),
			rec.Pair,
			string(rec.Side),
			rec.Price.String(),
			rec.VariationPct.String(),
			rec.SeriesVariationPct.String(),
			csvFloat(rec.RSIEvaluation),
			csvFloat(rec.RSITrend),
			csvFloat(rec.HistogramEvaluation),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func csvFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// writeSignalsPNG plots the decision variation of buys and sells over time.
func writeSignalsPNG(path string, signals []storage.SignalRecord) error {
	if len(signals) < 2 {
		return errors.New("at least two signals are required to render a chart")
	}
	if err := ensureDir(path); err != nil {
		return err
	}

	var buyX, sellX []time.Time
	var buyY, sellY []float64
	x := make([]time.Time, len(signals))
	rsi := make([]float64, len(signals))

	for i, rec := range signals {
		x[i] = rec.SignalAt
		rsi[i] = rec.RSIEvaluation
		if math.IsNaN(rsi[i]) {
			rsi[i] = 0
		}
		if rec.Side == model.SideSell {
			sellX = append(sellX, rec.SignalAt)
			sellY = append(sellY, rec.VariationPct.InexactFloat64())
			continue
		}
		buyX = append(buyX, rec.SignalAt)
		buyY = append(buyY, rec.VariationPct.InexactFloat64())
	}

	pctFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.2f")
	}
	dots := func(s chart.Style) chart.Style {
		s.StrokeWidth = chart.Disabled
		s.DotWidth = 4
		return s
	}

	series := []chart.Series{
		chart.TimeSeries{
			Name:    "RSI (evaluation)",
			XValues: x,
			YValues: rsi,
			YAxis:   chart.YAxisSecondary,
		},
	}
	if len(buyX) > 0 {
		series = append(series, chart.TimeSeries{
			Name:    "Buy variation %",
			XValues: buyX,
			YValues: buyY,
			Style:   dots(chart.Style{StrokeColor: chart.ColorGreen, DotColor: chart.ColorGreen}),
		})
	}
	if len(sellX) > 0 {
		series = append(series, chart.TimeSeries{
			Name:    "Sell variation %",
			XValues: sellX,
			YValues: sellY,
			Style:   dots(chart.Style{StrokeColor: chart.ColorRed, DotColor: chart.ColorRed}),
		})
	}

	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Variation (%)",
			ValueFormatter: pctFormatter,
		},
		YAxisSecondary: chart.YAxis{
			Name:           "RSI",
			ValueFormatter: pctFormatter,
			Range:          &chart.ContinuousRange{Min: 0, Max: 100},
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
