package api

import (
	"mime"
	"net/http"

	"feasibility-backend/internal/domain/user"
	reqdto "feasibility-backend/internal/handler/dto/request"
	resdto "feasibility-backend/internal/handler/dto/response"
	"feasibility-backend/internal/handler/httperr"
	"feasibility-backend/internal/handler/middleware"
	"feasibility-backend/internal/usecase/commands"
	"feasibility-backend/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderDetailedObfuscatedResultWasEmpty = "X-Detailed-Obfuscated-Result-Was-Empty"
	MediaTypeStructuredQuery               = "application/sq+json"
)

type QueryHandler struct {
	cmds      commands.QueryCommands
	q         queries.QueryQueries
	results   queries.ResultQueries
	validator *reqdto.StructuredQueryValidator
}

func NewQueryHandler(
	cmds commands.QueryCommands,
	q queries.QueryQueries,
	results queries.ResultQueries,
	validator *reqdto.StructuredQueryValidator,
) *QueryHandler {
	return &QueryHandler{cmds: cmds, q: q, results: results, validator: validator}
}

// @Summary Create query
// @Description Store a structured query and dispatch it to every configured broker
// @Tags query
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object true "Structured query"
// @Success 201 "Created, Location points at the new query"
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 429 {object} httperr.Response
// @Failure 502 {object} httperr.Response
// @Router /api/query [post]
func (h *QueryHandler) Create(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		httperr.Abort(c, httperr.Unauthorized("Unauthorized"))
		return
	}
	if ct := c.ContentType(); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err != nil || (mt != gin.MIMEJSON && mt != MediaTypeStructuredQuery) {
			httperr.Abort(c, httperr.New(http.StatusUnsupportedMediaType, httperr.CodeInvalidStructuredQuery,
				"Unsupported content type"))
			return
		}
	}
	body, err := c.GetRawData()
	if err != nil {
		abortWithUseCaseError(c, err)
		return
	}
	if err := h.validator.Validate(body); err != nil {
		abortWithUseCaseError(c, err)
		return
	}

	result, err := h.cmds.CreateQuery(c.Request.Context(), body, principal)
	if err != nil {
		abortWithUseCaseError(c, err)
		return
	}
	c.Header("Location", "/api/query/"+result.Query.ID().String())
	c.Status(http.StatusCreated)
}

// @Summary Get query
// @Description Get a stored query (author only)
// @Tags query
// @Produce json
// @Security BearerAuth
// @Param id path string true "Query ID"
// @Success 200 {object} resdto.QueryResponse
// @Failure 400 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /api/query/{id} [get]
func (h *QueryHandler) Get(c *gin.Context) {
	id, principal, ok := h.target(c)
	if !ok {
		return
	}
	view, err := h.q.GetQuery(c.Request.Context(), id, principal)
	if err != nil {
		abortWithUseCaseError(c, err)
		return
	}
	respond(c, view, resdto.FromQueryView)
}

// @Summary Summary result
// @Description Total number of patients, or the privacy issue that withholds it
// @Tags query
// @Produce json
// @Security BearerAuth
// @Param id path string true "Query ID"
// @Success 200 {object} resdto.SummaryResultResponse
// @Failure 403 {object} httperr.Response
// @Failure 429 {object} httperr.Response
// @Router /api/query/{id}/summary-result [get]
func (h *QueryHandler) SummaryResult(c *gin.Context) {
	id, principal, ok := h.target(c)
	if !ok {
		return
	}
	view, err := h.results.Summary(c.Request.Context(), id, principal)
	if err != nil {
		abortWithUseCaseError(c, err)
		return
	}
	respond(c, view, resdto.FromSummaryView)
}

// @Summary Detailed obfuscated result
// @Description Per-site results with site names replaced by stable tokens
// @Tags query
// @Produce json
// @Security BearerAuth
// @Param id path string true "Query ID"
// @Success 200 {object} resdto.DetailedResultResponse
// @Failure 403 {object} httperr.Response
// @Failure 429 {object} httperr.Response
// @Router /api/query/{id}/detailed-obfuscated-result [get]
func (h *QueryHandler) DetailedObfuscatedResult(c *gin.Context) {
	id, principal, ok := h.target(c)
	if !ok {
		return
	}
	view, err := h.results.DetailedObfuscated(c.Request.Context(), id, principal)
	if err != nil {
		abortWithUseCaseError(c, err)
		return
	}
	if view.Empty {
		c.Header(HeaderDetailedObfuscatedResultWasEmpty, "true")
	}
	respond(c, view, resdto.FromDetailedView)
}

// @Summary Detailed result
// @Description Per-site results with real site names, elevated role only
// @Tags query
// @Produce json
// @Security BearerAuth
// @Param id path string true "Query ID"
// @Success 200 {object} resdto.DetailedResultResponse
// @Failure 403 {object} httperr.Response
// @Router /api/query/{id}/detailed-result [get]
func (h *QueryHandler) DetailedResult(c *gin.Context) {
	id, principal, ok := h.target(c)
	if !ok {
		return
	}
	view, err := h.results.Detailed(c.Request.Context(), id, principal)
	if err != nil {
		abortWithUseCaseError(c, err)
		return
	}
	respond(c, view, resdto.FromDetailedView)
}

// @Summary Detailed obfuscated result rate limit
// @Description How many detailed obfuscated views the caller has left
// @Tags query
// @Produce json
// @Security BearerAuth
// @Success 200 {object} resdto.RateLimitResponse
// @Router /api/query/detailed-obfuscated-result-rate-limit [get]
func (h *QueryHandler) DetailedObfuscatedResultRateLimit(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		httperr.Abort(c, httperr.Unauthorized("Unauthorized"))
		return
	}
	view, err := h.results.DetailedObfuscatedRateLimit(principal)
	if err != nil {
		abortWithUseCaseError(c, err)
		return
	}
	respond(c, view, resdto.FromRateLimitView)
}

func (h *QueryHandler) target(c *gin.Context) (uuid.UUID, *user.Principal, bool) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		httperr.Abort(c, httperr.Unauthorized("Unauthorized"))
		return uuid.Nil, nil, false
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, err, httperr.New(http.StatusBadRequest, httperr.CodeBadRequest, "Invalid query id"))
		return uuid.Nil, nil, false
	}
	return id, principal, true
}

func respond[V, R any](c *gin.Context, view V, mapper func(V) (R, error)) {
	res, err := mapper(view)
	if err != nil {
		abortWithUseCaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
