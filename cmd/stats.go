package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print record counts",
	Run: func(cmd *cobra.Command, _ []string) {
		a := newApplication(cmd.Context())
		defer a.Close()

		stats, err := a.service.Statistics(cmd.Context())
		if err != nil {
			a.logger.Fatal("getting statistics", zap.Error(err))
		}

		if err := printJSON(stats); err != nil {
			a.logger.Fatal("printing statistics", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
