package cli

import (
	"time"

	"github.com/spf13/cobra"
)

var (
	runInterval    time.Duration
	runNoDonation  bool
	runMetricsAddr string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll KuCoin, evaluate signals and deliver alerts until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := getApp()
		if cmd.Flags().Changed("interval") {
			a.Config.Scheduler.Interval = runInterval
		}
		if runNoDonation {
			a.Config.Donation.Enabled = false
		}
		if runMetricsAddr != "" {
			a.Config.Metrics.Enabled = true
			a.Config.Metrics.ListenAddr = runMetricsAddr
		}
		if err := a.Config.Validate(); err != nil {
			return err
		}
		return a.Run(cmd.Context())
	},
}

func init() {
	runCmd.Flags().DurationVar(&runInterval, "interval", time.Second, "Override the polling interval")
	runCmd.Flags().BoolVar(&runNoDonation, "no-donation", false, "Disable the donation broadcast")
	runCmd.Flags().StringVar(&runMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
}
