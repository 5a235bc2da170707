package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pump-alerts/internal/app"
	"pump-alerts/internal/model"
)

var (
	showLimit int
	showPair  string
	showSide  string
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the latest recorded buy and sell signals",
	RunE: func(cmd *cobra.Command, args []string) error {
		if showLimit <= 0 {
			return fmt.Errorf("--limit must be greater than zero")
		}

		side := model.Side(strings.ToLower(showSide))
		switch side {
		case "", model.SideBuy, model.SideSell:
		default:
			return fmt.Errorf("--side must be buy or sell, got %q", showSide)
		}

		return getApp().Show(cmd.Context(), app.ShowOptions{
			Limit: showLimit,
			Pair:  strings.ToUpper(showPair),
			Side:  side,
		})
	},
}

func init() {
	showCmd.Flags().IntVar(&showLimit, "limit", 20, "Number of latest signals to read")
	showCmd.Flags().StringVar(&showPair, "pair", "", "Only print signals for this pair, e.g. SOL-USDT")
	showCmd.Flags().StringVar(&showSide, "side", "", "Only print buy or sell signals")
}
