package fetcher

import (
	"context"

	"pump-alerts/internal/model"
)

// TickerFetcher retrieves the current ticker snapshot of every listed symbol.
type TickerFetcher interface {
	FetchSnapshot(ctx context.Context) ([]model.Ticker, error)
}
