package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/glowup/internal/common"
	"github.com/dmitrijs2005/glowup/internal/logging"
	"github.com/gin-gonic/gin"
)

var (
	errMissingAccessToken = errors.New("access token is missing")
	errAccessTokenExpired = errors.New("access token has expired")
	errInvalidAccessToken = errors.New("invalid access token")
	errBadRequestBody     = errors.New("invalid request body")
)

// apiError carries a response decided by a handler.
type apiError struct {
	status  int
	message string
	details any
	cause   error
}

func (e *apiError) Error() string { return e.message }
func (e *apiError) Unwrap() error { return e.cause }

type mapping struct {
	status  int
	message string
	label   string
}

// known lists every error kind that has a fixed response. Anything else is
// a 500.
var known = []struct {
	err error
	mapping
}{
	{common.ErrAlreadyExists, mapping{http.StatusConflict, "User already exists", "already_exists"}},
	{common.ErrInvalidCredentials, mapping{http.StatusUnauthorized, "Invalid email or password", "invalid_credentials"}},
	{common.ErrMissingInput, mapping{http.StatusBadRequest, "Refresh token is required", "missing_input"}},
	{common.ErrInvalidOrExpiredToken, mapping{http.StatusUnauthorized, "Invalid or expired refresh token", "invalid_token"}},
	{common.ErrTokenNotFound, mapping{http.StatusUnauthorized, "Refresh token not found", "token_not_found"}},
	{common.ErrTokenExpired, mapping{http.StatusUnauthorized, "Refresh token expired", "token_expired"}},
	{errMissingAccessToken, mapping{http.StatusUnauthorized, "Access token is missing", "unauthenticated"}},
	{errAccessTokenExpired, mapping{http.StatusUnauthorized, "Access token has expired", common.CodeAccessTokenExpired}},
	{errInvalidAccessToken, mapping{http.StatusForbidden, "Invalid access token", "forbidden"}},
	{errBadRequestBody, mapping{http.StatusBadRequest, "Invalid request body", "bad_request"}},
}

var internalError = mapping{http.StatusInternalServerError, "Internal server error", "error"}

func classify(err error) mapping {
	var ae *apiError
	if errors.As(err, &ae) {
		return mapping{status: ae.status, message: ae.message, label: http.StatusText(ae.status)}
	}
	for _, k := range known {
		if errors.Is(err, k.err) {
			return k.mapping
		}
	}
	return internalError
}

// outcome is the metrics label for the result of an operation.
func outcome(err error) string {
	if err == nil {
		return "success"
	}
	return classify(err).label
}

// ErrorHandler turns the last error recorded on the context into the
// response envelope. It is the only place errors become HTTP statuses.
func ErrorHandler(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		m := classify(err)
		if m.status >= http.StatusInternalServerError {
			logger.Error(c.Request.Context(), "request failed",
				"method", c.Request.Method,
				"route", c.FullPath(),
				"error", err,
			)
		}

		// handler-built errors carry details instead of a code
		var details any
		code := m.label
		var ae *apiError
		if errors.As(err, &ae) {
			details = ae.details
			code = ""
		}

		if c.Writer.Written() {
			return
		}
		respondFail(c, m.status, m.message, code, details)
	}
}
