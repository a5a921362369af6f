package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spigell/hireflow/internal/server"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the screening, onboarding and policy HTTP API",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "address to listen on (overrides server.listen)")

	viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("listen"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt := bootstrap(ctx)
	defer rt.close()

	srv := server.New(rt.config.Server, server.Services{
		Screening:  rt.screening(),
		Onboarding: rt.onboarding(),
		Policy:     rt.policy(),
		Candidates: rt.store,
	}, rt.logger)

	if err := srv.Run(ctx); err != nil {
		rt.logger.Error("server stopped", zap.Error(err))
		return
	}

	rt.logger.Info("exiting", zap.String("reason", "shutdown requested"))
}
