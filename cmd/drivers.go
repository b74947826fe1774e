package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/soto-lp/internal/roster"
)

var driversCmd = &cobra.Command{
	Use:   "drivers",
	Short: "Manage drivers",
}

var driversAddCmd = &cobra.Command{
	Use:   "add NAME POSTCODE",
	Short: "Add a driver",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		a := newApplication(cmd.Context())
		defer a.Close()

		driver, err := a.service.AddDriver(cmd.Context(), args[0], args[1])
		if err != nil {
			a.logger.Fatal("adding driver", zap.Error(err))
		}

		if err := printJSON(driver); err != nil {
			a.logger.Fatal("printing driver", zap.Error(err))
		}
	},
}

var driversListCmd = &cobra.Command{
	Use:   "list",
	Short: "List drivers",
	Run: func(cmd *cobra.Command, _ []string) {
		a := newApplication(cmd.Context())
		defer a.Close()

		drivers, err := a.service.Drivers(cmd.Context())
		if err != nil {
			a.logger.Fatal("listing drivers", zap.Error(err))
		}

		a.logger.Info("getting drivers", zap.Int("count", len(drivers)))
		if err := printJSON(drivers); err != nil {
			a.logger.Fatal("printing drivers", zap.Error(err))
		}
	},
}

var driversImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Add every driver of a yaml roster file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := newApplication(cmd.Context())
		defer a.Close()

		entries, err := roster.Load(args[0])
		if err != nil {
			a.logger.Fatal("loading roster", zap.Error(err), zap.String("filename", args[0]))
		}

		added, err := a.service.ImportDrivers(cmd.Context(), entries)
		if err != nil {
			a.logger.Fatal("importing drivers", zap.Error(err), zap.Int("added", len(added)))
		}

		a.logger.Info("drivers imported",
			zap.Int("added", len(added)),
			zap.Int("skipped", len(entries)-len(added)),
		)
	},
}

func init() {
	rootCmd.AddCommand(driversCmd)
	driversCmd.AddCommand(driversAddCmd, driversListCmd, driversImportCmd)
}
