package handler

import (
	"net/http"

	"feasibility-backend/internal/domain/user"
	"feasibility-backend/internal/handler/api"
	"feasibility-backend/internal/handler/middleware"
	"feasibility-backend/internal/pkg/config"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

func NewRouter(engine *gin.Engine, cfg config.Config, logger *middleware.Logger, queryHandler *api.QueryHandler, authMiddleware *middleware.AuthMiddleware) {
	setupMiddleware(engine, cfg, logger)
	setupRoutes(engine, cfg, queryHandler, authMiddleware)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config, logger *middleware.Logger) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(logger.LoggingMiddleware())
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(engine *gin.Engine, cfg config.Config, queryHandler *api.QueryHandler, authMiddleware *middleware.AuthMiddleware) {
	engine.GET("/health", healthCheck)

	if gin.Mode() == gin.DebugMode {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	anyUser := authMiddleware.RequireAnyRole(
		user.Role(cfg.JWT.UserRole),
		user.Role(cfg.JWT.PowerUserRole),
		user.Role(cfg.JWT.DetailedResultRole),
	)
	detailed := authMiddleware.RequireAnyRole(user.Role(cfg.JWT.DetailedResultRole))

	apiGroup := engine.Group("/api")
	{
		q := apiGroup.Group("/query")
		q.Use(authMiddleware.RequireAuth(), anyUser)
		{
			addRoutes(q, []route{
				{Method: http.MethodPost, Path: "", Handler: queryHandler.Create},
				{Method: http.MethodGet, Path: "/detailed-obfuscated-result-rate-limit", Handler: queryHandler.DetailedObfuscatedResultRateLimit},
				{Method: http.MethodGet, Path: "/:id", Handler: queryHandler.Get},
				{Method: http.MethodGet, Path: "/:id/summary-result", Handler: queryHandler.SummaryResult},
				{Method: http.MethodGet, Path: "/:id/detailed-obfuscated-result", Handler: queryHandler.DetailedObfuscatedResult},
				{Method: http.MethodGet, Path: "/:id/detailed-result", Handler: queryHandler.DetailedResult, Mw: []gin.HandlerFunc{detailed}},
			})
		}
	}
}

// @Summary Health check
// @Description Check if the service is healthy
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
