package app

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"pump-alerts/internal/alerting"
	"pump-alerts/internal/model"
)

// SimulateOptions describe the synthetic transition to deliver.
type SimulateOptions struct {
	Pair      string
	Side      model.Side
	Price     decimal.Decimal
	Variation decimal.Decimal
}

// SimulateAlert 构造一次信号并通过已配置的告警通道直接发送。
func (a *App) SimulateAlert(ctx context.Context, opts SimulateOptions) error {
	if !a.Config.Alerting.Enabled {
		return errors.New("alerting 未启用")
	}
	if opts.Side != model.SideBuy && opts.Side != model.SideSell {
		return errors.New("side must be buy or sell")
	}

	transition := model.Transition{
		Pair:            opts.Pair,
		Side:            opts.Side,
		Price:           opts.Price,
		Variation:       opts.Variation,
		SeriesVariation: opts.Variation,
		At:              time.Now().UTC(),
	}

	dispatcher := a.newDispatcher(nil)
	return dispatcher.Deliver(ctx, alerting.TransitionMessage(transition))
}
