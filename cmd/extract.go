package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var extractCmd = &cobra.Command{
	Use:   "extract [text]",
	Short: "Show the structured form of a job text without storing it",
	Long:  "Show the structured form of a job text without storing it. The text is read from the arguments, --file or stdin.",
	Run: func(cmd *cobra.Command, args []string) {
		a := newApplication(cmd.Context())
		defer a.Close()

		raw, err := readJobText(cmd, args)
		if err != nil {
			a.logger.Fatal("reading job text", zap.Error(err))
		}

		outcome, err := a.service.Extract(cmd.Context(), raw)
		if err != nil {
			a.logger.Fatal("extracting job", zap.Error(err))
		}

		a.logger.Info("job extracted",
			zap.String("source", string(outcome.Source)),
			zap.Float64("overall_confidence", outcome.Job.OverallConfidence),
			zap.String("accuracy_rating", string(outcome.Job.AccuracyRating)),
		)

		if err := printJSON(outcome.Job); err != nil {
			a.logger.Fatal("printing job", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringP("file", "f", "", "read the job text from a file, - for stdin")
}

// readJobText takes the job text from args, the --file flag or stdin, in that order.
func readJobText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	file, _ := cmd.Flags().GetString("file")
	switch file {
	case "", "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	default:
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read job file: %w", err)
		}
		return string(data), nil
	}
}
