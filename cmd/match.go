package cmd

import (
	"errors"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/soto-lp/internal/dispatch"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var matchPrompt = promptui.Select{
	Label: "Replace the stored matches of these jobs?",
	Items: []string{PromptYes, PromptNo},
}

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match stored jobs to drivers and replace their previous matches",
	Run: func(cmd *cobra.Command, _ []string) {
		a := newApplication(cmd.Context())
		defer a.Close()

		day, _ := cmd.Flags().GetInt("day")
		jobs, err := a.service.Jobs(cmd.Context(), day)
		if err != nil {
			a.logger.Fatal("listing jobs", zap.Error(err))
		}
		if len(jobs) == 0 {
			a.logger.Info("exiting", zap.String("reason", "no jobs found"), zap.Int("day", day))
			return
		}

		a.logger.Info("jobs to match", zap.Int("count", len(jobs)), zap.Int("day", day))

		if autoApprove, _ := cmd.Flags().GetBool("auto-approve"); !autoApprove {
			_, action, err := matchPrompt.Run()
			if err != nil {
				a.logger.Fatal("exiting", zap.Error(err))
			}
			if action != PromptYes {
				a.logger.Info("exiting", zap.String("reason", "got no from prompt"))
				return
			}
		}

		matches, err := a.service.ProcessMatches(cmd.Context(), day)
		switch {
		case errors.Is(err, dispatch.ErrNoDrivers):
			a.logger.Info("exiting", zap.String("reason", "no drivers found"))
			return
		case err != nil:
			a.logger.Fatal("processing matches", zap.Error(err))
		}

		if err := printJSON(matches); err != nil {
			a.logger.Fatal("printing matches", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().Int("day", 0, "only match jobs of this day. Default is all days.")
	matchCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before replacing matches")
}
