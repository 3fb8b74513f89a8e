package components

import (
	"feasibility-backend/internal/infra/db"
	"feasibility-backend/internal/infra/repository"
	"feasibility-backend/internal/infra/uow"
	"feasibility-backend/internal/usecase/commands"
	"feasibility-backend/internal/usecase/queries"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var RepositoryModule = fx.Module("repository",
	fx.Provide(
		NewDBTX,
		fx.Annotate(
			repository.NewQueryRepository,
			fx.As(new(queries.QueryReader)),
		),
		fx.Annotate(
			repository.NewDispatchRepository,
			fx.As(new(commands.DispatchRepository)),
		),
		uow.NewPostgresUoW,
	),
)

func NewDBTX(pool *pgxpool.Pool) db.DBTX {
	return pool
}
