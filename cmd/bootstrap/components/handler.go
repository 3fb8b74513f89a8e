package components

import (
	"feasibility-backend/internal/handler"
	"feasibility-backend/internal/handler/api"
	"feasibility-backend/internal/handler/dto/request"
	"feasibility-backend/internal/handler/middleware"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		request.NewStructuredQueryValidator,
		api.NewQueryHandler,
		middleware.NewAuthMiddleware,
	),
	fx.Invoke(handler.NewRouter),
)
