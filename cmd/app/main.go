package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/authz"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/config"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/logger"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/media"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/proto"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/service"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/transport"
)

var (
	infraModule = fx.Provide(
		config.NewConfig,
		logger.NewLogger,
		logger.NewSugared,
		db.NewGormClient,
		media.NewStore,
		authz.NewEnforcer,
	)

	rootCmd = &cobra.Command{
		Use:   "foodgram",
		Short: "Foodgram recipe sharing backend",
		Long: `Foodgram serves the recipe API over HTTP and gRPC.

Configuration is read from FOODGRAM_* environment variables.`,
		SilenceUsage: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "run the HTTP and gRPC servers",
		Run: func(cmd *cobra.Command, args []string) {
			fx.New(
				fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
					return &fxevent.ZapLogger{Logger: l.Named("fx")}
				}),
				infraModule,
				service.Module,
				transport.Module,
				proto.Module,
			).Run()
		},
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
