package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"insiden/internal/api"
	"insiden/internal/auth"
	"insiden/internal/bootstrap"
	"insiden/internal/bootstrap/logging"
	"insiden/internal/errs"
	"insiden/internal/ports"
	incidentusecase "insiden/internal/usecase/incident"
)

// appDeps is the wired object graph a command can draw from.
type appDeps struct {
	Incidents *incidentusecase.Service
	Users     ports.UserRepository
	Tokens    *auth.TokenIssuer
	API       *api.Server
}

func withApp(run func(cmd *cobra.Command, app *bootstrap.App, deps appDeps) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := logging.WithAttrs(
			cmd.Context(),
			slog.String("command", cmd.CommandPath()),
			slog.String("config_file", cfgFile),
		)

		var app *bootstrap.App
		var deps appDeps
		fxApp := fx.New(
			bootstrap.Module,
			fx.Provide(func() context.Context { return ctx }),
			fx.Provide(
				fx.Annotate(
					func() string { return cfgFile },
					fx.ResultTags(`name:"configFile"`),
				),
			),
			fx.Populate(&app, &deps.Incidents, &deps.Users, &deps.Tokens, &deps.API),
		)

		startCtx, cancelStart := context.WithTimeout(ctx, 10*time.Second)
		defer cancelStart()
		if err := fxApp.Start(startCtx); err != nil {
			logging.Error(ctx, "bootstrap application failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "start fx application")
		}

		defer func() {
			stopCtx, cancelStop := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancelStop()
			if err := fxApp.Stop(stopCtx); err != nil {
				logging.Error(ctx, "fx application stop failed", slog.Any("err", errs.Loggable(err)))
			}
		}()

		if err := run(cmd, app, deps); err != nil {
			return errs.Wrap(err, "run command")
		}
		return nil
	}
}
