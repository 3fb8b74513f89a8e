package components

import (
	"log/slog"

	"feasibility-backend/internal/domain/privacy"
	"feasibility-backend/internal/domain/user"
	"feasibility-backend/internal/infra/ratelimit"
	"feasibility-backend/internal/infra/resultstore"
	"feasibility-backend/internal/infra/translate"
	"feasibility-backend/internal/pkg/clock"
	"feasibility-backend/internal/pkg/config"
	"feasibility-backend/internal/usecase"
	"feasibility-backend/internal/usecase/commands"
	"feasibility-backend/internal/usecase/queries"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseQueriesModule,
	usecaseValidatorsModule,
	usecaseCommandsModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	func(cfg config.Config) *privacy.Gate {
		return privacy.NewGate(privacy.Thresholds{
			ResultSize: cfg.Privacy.ResultSizeThreshold,
			Sites:      cfg.Privacy.SitesThreshold,
			SiteResult: cfg.Privacy.SiteResultThreshold,
		})
	},
	fx.Annotate(
		func(cfg config.Config, clk clock.Clock) *ratelimit.Limiter {
			return ratelimit.NewLimiterFromConfig(cfg.RateLimit, clk)
		},
		fx.As(new(queries.RateLimiter)),
	),
	fx.Annotate(
		func(cfg config.Config, logger *slog.Logger) *translate.Translator {
			return translate.NewTranslator(cfg.Translate, logger)
		},
		fx.As(new(commands.Translator)),
	),
	fx.Annotate(
		func(s *resultstore.Store) *resultstore.Store { return s },
		fx.As(new(queries.ResultSource)),
	),
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewDispatcher,
		func(
			uow commands.UnitOfWork,
			dispatcher commands.Dispatcher,
			cfg config.Config,
			roles user.RoleSet,
			clk clock.Clock,
			logger *slog.Logger,
		) commands.QueryCommands {
			return commands.NewQueryUseCase(uow, dispatcher, cfg.Quota, roles, clk, logger)
		},
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewQueryQueries,
		func(
			reader queries.QueryReader,
			results queries.ResultSource,
			limiter queries.RateLimiter,
			gate *privacy.Gate,
			roles user.RoleSet,
			logger *slog.Logger,
		) queries.ResultQueries {
			return queries.NewResultQueries(reader, results, limiter, gate, roles, logger)
		},
	),
)

var usecaseValidatorsModule = fx.Module("usecase/validators",
	fx.Provide(
		usecase.NewTokenValidator,
	),
)
