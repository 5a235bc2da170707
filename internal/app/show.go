package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"pump-alerts/internal/model"
	"pump-alerts/internal/storage"
)

// Show prints the most recent recorded signals.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show signals")
	}
	if closeStore != nil {
		defer closeStore()
	}

	signals, err := store.ListRecentSignals(ctx, opts.Limit)
	if err != nil {
		return err
	}
	return writeSignalTable(os.Stdout, filterSignals(signals, opts.Pair, opts.Side))
}

func filterSignals(signals []storage.SignalRecord, pair string, side model.Side) []storage.SignalRecord {
	if pair == "" && side == "" {
		return signals
	}
	out := signals[:0:0]
	for _, rec := range signals {
		if pair != "" && !strings.EqualFold(rec.Pair, pair) {
			continue
		}
		if side != "" && rec.Side != side {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func writeSignalTable(out io.Writer, signals []storage.SignalRecord) error {
	if len(signals) == 0 {
		fmt.Fprintln(out, "no signals found")
		return nil
	}

	writer := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tPair\tSide\tPrice\tVariation%\tSeries%\tRSI eval\tRSI trend")

	for _, rec := range signals {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			rec.SignalAt.UTC().Format(time.RFC3339),
			rec.Pair,
			rec.Side,
			rec.Price.StringFixed(8),
			rec.VariationPct.StringFixed(2),
			rec.SeriesVariationPct.StringFixed(2),
			formatIndicator(rec.RSIEvaluation),
			formatIndicator(rec.RSITrend),
		)
	}

	return writer.Flush()
}

func formatIndicator(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}
