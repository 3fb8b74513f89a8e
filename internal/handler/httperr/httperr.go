package httperr

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type IssueCode string

const (
	CodeUserBlacklisted        IssueCode = "FEAS-10001"
	CodeQuotaExceeded          IssueCode = "FEAS-10002"
	CodePrivacyResultSize      IssueCode = "FEAS-10003"
	CodePrivacyResultSites     IssueCode = "FEAS-10004"
	CodePollingLimitExceeded   IssueCode = "FEAS-10005"
	CodeInvalidStructuredQuery IssueCode = "FEAS-10006"
	CodeDispatchFailed         IssueCode = "FEAS-10007"
	CodeBadRequest             IssueCode = "FEAS-400"
	CodeUnauthorized           IssueCode = "FEAS-401"
	CodeForbidden              IssueCode = "FEAS-403"
	CodeNotFound               IssueCode = "FEAS-404"
	CodeInternal               IssueCode = "FEAS-500"
)

type Issue struct {
	Code    IssueCode `json:"code"`
	Message string    `json:"message"`
	Detail  any       `json:"detail,omitempty"`
}

type Response struct {
	Status     int     `json:"-"`
	RetryAfter int     `json:"-"`
	Issues     []Issue `json:"issues"`
}

func New(status int, code IssueCode, msg string) Response {
	return Response{Status: status, Issues: []Issue{{Code: code, Message: msg}}}
}

func (r Response) WithRetryAfter(seconds int) Response {
	r.RetryAfter = seconds
	return r
}

func (r Response) WithDetail(detail any) Response {
	r.Issues[0].Detail = detail
	return r
}

func Unauthorized(msg string) Response {
	return New(http.StatusUnauthorized, CodeUnauthorized, msg)
}

func Forbidden(msg string) Response {
	return New(http.StatusForbidden, CodeForbidden, msg)
}

func Internal() Response {
	return New(http.StatusInternalServerError, CodeInternal, "Internal server error")
}

// Abort writes resp without an underlying error, e.g. from middleware.
func Abort(c *gin.Context, resp Response) {
	write(c, resp)
	c.Abort()
}

// preserves original error for future monitoring
func AbortWithError(c *gin.Context, err error, resp Response) {
	if err == nil {
		panic("AbortWithError: err cannot be nil")
	}

	_ = c.Error(gin.Error{
		Err:  err,
		Type: gin.ErrorTypePublic,
		Meta: resp,
	})
	write(c, resp)
	c.Abort()
}

func write(c *gin.Context, resp Response) {
	if resp.RetryAfter > 0 {
		c.Header("Retry-After", strconv.Itoa(resp.RetryAfter))
	}
	c.JSON(resp.Status, resp)
}
