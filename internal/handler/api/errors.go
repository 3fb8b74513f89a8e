package api

import (
	"log/slog"
	"net/http"

	"feasibility-backend/internal/handler/dto/request"
	"feasibility-backend/internal/handler/httperr"
	"feasibility-backend/internal/pkg/errs"
	"feasibility-backend/internal/usecase/commands"
	"feasibility-backend/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

// abortWithUseCaseError maps use case errors to issue payloads.
func abortWithUseCaseError(c *gin.Context, err error) {
	resp := responseFor(err)
	if resp.Status >= http.StatusInternalServerError {
		slog.Error("request failed",
			"path", c.FullPath(),
			"error", err.Error(),
			"stack", errs.ExtractStackLines(err, 12))
	}
	httperr.AbortWithError(c, err, resp)
}

func responseFor(err error) httperr.Response {
	switch {
	case errs.Is(err, commands.ErrBlacklisted):
		return httperr.New(http.StatusForbidden, httperr.CodeUserBlacklisted,
			"User is blacklisted and not a power user")
	case errs.Is(err, commands.ErrQuotaExceeded):
		resp := httperr.New(http.StatusTooManyRequests, httperr.CodeQuotaExceeded, "Query quota exceeded")
		var qe *commands.QuotaError
		if errs.As(err, &qe) {
			resp = resp.WithRetryAfter(qe.RetryAfterSeconds())
		}
		return resp
	case errs.Is(err, request.ErrInvalidStructuredQuery):
		resp := httperr.New(http.StatusBadRequest, httperr.CodeInvalidStructuredQuery, "Invalid structured query")
		var ve *request.ValidationError
		if errs.As(err, &ve) {
			resp = resp.WithDetail(ve.Violations)
		}
		return resp
	case errs.Is(err, commands.ErrInvalidQuery):
		return httperr.New(http.StatusBadRequest, httperr.CodeInvalidStructuredQuery, "Invalid structured query")
	case errs.Is(err, commands.ErrDispatch):
		return httperr.New(http.StatusBadGateway, httperr.CodeDispatchFailed,
			"Query could not be dispatched to any broker")
	case errs.Is(err, queries.ErrRateLimited):
		resp := httperr.New(http.StatusTooManyRequests, httperr.CodePollingLimitExceeded, "Polling limit exceeded")
		var re *queries.RateLimitError
		if errs.As(err, &re) {
			resp = resp.WithRetryAfter(re.RetryAfterSeconds)
		}
		return resp
	case errs.Is(err, queries.ErrForbidden):
		return httperr.Forbidden("Access to query denied")
	case errs.Is(err, queries.ErrQueryNotFound):
		return httperr.New(http.StatusNotFound, httperr.CodeNotFound, "Query not found")
	default:
		return httperr.Internal()
	}
}
