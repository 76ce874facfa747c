package bootstrap

import (
	"context"
	"log/slog"
	"time"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"insiden/internal/api"
	"insiden/internal/auth"
	"insiden/internal/bootstrap/config"
	"insiden/internal/bootstrap/database"
	"insiden/internal/bootstrap/logging"
	cacheinfra "insiden/internal/infrastructure/cache"
	"insiden/internal/infrastructure/classifier"
	sqliterepo "insiden/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "insiden/internal/infrastructure/persistence/sqlite/uow"
	"insiden/internal/ports"
	incidentusecase "insiden/internal/usecase/incident"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewIncidentRepository,
			fx.As(new(ports.IncidentRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewUserRepository,
			fx.As(new(ports.UserRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliteuow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(
		fx.Annotate(
			cacheinfra.NewSQLiteCache,
			fx.As(new(ports.Cache)),
		),
	),
	fx.Provide(provideClassifier),
	fx.Provide(provideTokenIssuer),
	fx.Provide(incidentusecase.NewService),
	fx.Provide(api.NewServer),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideApp(cfg config.Config, db *gorm.DB) *App {
	return &App{
		Config: cfg,
		DB:     db,
	}
}

// provideClassifier resolves the artifact once at composition time; the handle
// it returns is immutable and safe for concurrent use.
func provideClassifier(ctx context.Context, cfg config.Config) ports.Classifier {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))
	return classifier.New(logCtx, cfg.Classifier.ModelPath, cfg.Classifier.FallbackVersion)
}

func provideTokenIssuer(cfg config.Config) (*auth.TokenIssuer, error) {
	ttl := time.Duration(cfg.Auth.AccessTokenTTLMinutes) * time.Minute
	return auth.NewTokenIssuer(cfg.Auth.JWTSecret, ttl)
}
