package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/soto-lp/internal/export"
)

var matchesCmd = &cobra.Command{
	Use:   "matches",
	Short: "Inspect stored matches",
}

var matchesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored matches",
	Run: func(cmd *cobra.Command, _ []string) {
		a := newApplication(cmd.Context())
		defer a.Close()

		jobID, _ := cmd.Flags().GetInt64("job-id")
		matches, err := a.service.Matches(cmd.Context(), jobID)
		if err != nil {
			a.logger.Fatal("listing matches", zap.Error(err))
		}

		a.logger.Info("getting matches", zap.Int("count", len(matches)))
		if err := printJSON(matches); err != nil {
			a.logger.Fatal("printing matches", zap.Error(err))
		}
	},
}

var matchesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write stored matches to an xlsx workbook",
	Run: func(cmd *cobra.Command, _ []string) {
		a := newApplication(cmd.Context())
		defer a.Close()

		jobID, _ := cmd.Flags().GetInt64("job-id")
		output, _ := cmd.Flags().GetString("output")

		matches, err := a.service.Matches(cmd.Context(), jobID)
		if err != nil {
			a.logger.Fatal("listing matches", zap.Error(err))
		}

		data, err := export.MatchesXLSX(matches)
		if err != nil {
			a.logger.Fatal("building workbook", zap.Error(err))
		}

		if err := os.WriteFile(output, data, 0o644); err != nil {
			a.logger.Fatal("writing workbook", zap.Error(err), zap.String("filename", output))
		}

		a.logger.Info("dumping matches to file", zap.String("filename", output), zap.Int("count", len(matches)))
	},
}

func init() {
	rootCmd.AddCommand(matchesCmd)
	matchesCmd.AddCommand(matchesListCmd, matchesExportCmd)

	matchesCmd.PersistentFlags().Int64("job-id", 0, "only matches of this job. Default is all jobs.")
	matchesExportCmd.Flags().StringP("output", "o", "matches.xlsx", "workbook to write")
}
