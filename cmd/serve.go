package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/soto-lp/internal/dispatch"
	"github.com/spigell/soto-lp/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default is :8080)")
	serveCmd.Flags().String("rematch-schedule", "", "cron expression for periodic re-matching of all jobs. Default is unset.")

	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	viper.BindPFlag("server.rematch-schedule", serveCmd.Flags().Lookup("rematch-schedule"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := newApplication(ctx)
	defer a.Close()

	a.logger.Info("starting the soto-lp server", zap.String("version", version))

	cfg := a.config.Server
	if cfg.RematchSchedule != "" {
		scheduler, err := dispatch.NewScheduler(a.service, cfg.RematchSchedule, cfg.RematchTimeout, a.logger)
		if err != nil {
			a.logger.Fatal("scheduling rematch", zap.Error(err))
		}
		scheduler.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			scheduler.Stop(stopCtx)
		}()
	}

	srv := server.New(server.Config{
		Addr:           cfg.Addr,
		AllowedOrigins: cfg.AllowedOrigins,
	}, server.Deps{
		Service:  a.service,
		Ping:     a.store.Ping,
		Metrics:  a.metrics,
		Gatherer: a.registry,
		Logger:   a.logger,
	})

	if err := srv.Run(ctx); err != nil {
		a.logger.Error("serving http", zap.Error(err))
		return
	}

	a.logger.Info("exiting", zap.String("reason", "shutdown requested"))
}
