package bootstrap

import (
	"feasibility-backend/cmd/bootstrap/components"

	"go.uber.org/fx"
)

var Module = fx.Options(
	ConfigModule,
	LoggerModule,
	DBModule,
	JWTModule,
	BrokerModule,
	components.RepositoryModule,
	components.UseCaseModule,
	components.ResultStoreModule,
	components.HandlerModule,
)
