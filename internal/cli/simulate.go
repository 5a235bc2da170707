package cli

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"pump-alerts/internal/app"
	"pump-alerts/internal/model"
)

var (
	simulatePair      string
	simulateSide      string
	simulatePrice     float64
	simulateVariation float64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate-alert",
	Short: "模拟一次买入/卖出信号并触发告警",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulatePrice <= 0 {
			return errors.New("--price 必须大于 0")
		}
		if strings.TrimSpace(simulatePair) == "" {
			return errors.New("--pair 不能为空")
		}

		opts := app.SimulateOptions{
			Pair:      strings.ToUpper(simulatePair),
			Side:      model.Side(strings.ToLower(simulateSide)),
			Price:     decimal.NewFromFloat(simulatePrice),
			Variation: decimal.NewFromFloat(simulateVariation),
		}
		return getApp().SimulateAlert(cmd.Context(), opts)
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulatePair, "pair", "BTC-USDT", "交易对")
	simulateCmd.Flags().StringVar(&simulateSide, "side", "buy", "信号方向 (buy|sell)")
	simulateCmd.Flags().Float64Var(&simulatePrice, "price", 0, "最新价格")
	simulateCmd.Flags().Float64Var(&simulateVariation, "variation", 5, "变化百分比")
}
