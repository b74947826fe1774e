package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Manage jobs",
}

var jobsAddCmd = &cobra.Command{
	Use:   "add [text]",
	Short: "Extract a job text and store it",
	Run: func(cmd *cobra.Command, args []string) {
		a := newApplication(cmd.Context())
		defer a.Close()

		raw, err := readJobText(cmd, args)
		if err != nil {
			a.logger.Fatal("reading job text", zap.Error(err))
		}

		day, _ := cmd.Flags().GetInt("day")
		number, _ := cmd.Flags().GetInt("number")

		job, outcome, err := a.service.AddJob(cmd.Context(), day, number, raw)
		if err != nil {
			a.logger.Fatal("adding job", zap.Error(err))
		}

		if outcome.Fallback() {
			a.logger.Warn("job needs review",
				zap.Int64("job_id", job.ID),
				zap.Strings("missing_fields", job.MissingFields),
				zap.Strings("uncertain_fields", job.UncertainFields),
			)
		}

		if err := printJSON(job); err != nil {
			a.logger.Fatal("printing job", zap.Error(err))
		}
	},
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored jobs",
	Run: func(cmd *cobra.Command, _ []string) {
		a := newApplication(cmd.Context())
		defer a.Close()

		day, _ := cmd.Flags().GetInt("day")
		jobs, err := a.service.Jobs(cmd.Context(), day)
		if err != nil {
			a.logger.Fatal("listing jobs", zap.Error(err))
		}

		a.logger.Info("getting jobs", zap.Int("count", len(jobs)), zap.Int("day", day))
		if err := printJSON(jobs); err != nil {
			a.logger.Fatal("printing jobs", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.AddCommand(jobsAddCmd, jobsListCmd)

	jobsAddCmd.Flags().Int("day", 0, "day number of the job")
	jobsAddCmd.Flags().Int("number", 0, "job number within the day")
	jobsAddCmd.Flags().StringP("file", "f", "", "read the job text from a file, - for stdin")
	jobsAddCmd.MarkFlagRequired("day")
	jobsAddCmd.MarkFlagRequired("number")

	jobsListCmd.Flags().Int("day", 0, "only list jobs of this day. Default is all days.")
}
