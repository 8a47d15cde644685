package httpapi

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alexanderramin/caseflow/internal/app"
	"github.com/alexanderramin/caseflow/internal/contract"
	"github.com/alexanderramin/caseflow/internal/domain"
	"github.com/alexanderramin/caseflow/internal/logging"
)

const callerKey = "caseflow.caller"

// RequireAuth resolves the bearer token into a caller and stores it on the
// gin context and, as log attributes, on the request context.
func RequireAuth(resolver app.IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, contract.ErrorEnvelope{Error: contract.APIError{
				Code: "UNAUTHENTICATED", Message: "missing bearer token",
			}})
			return
		}
		caller, err := resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, contract.ErrorEnvelope{Error: contract.APIError{
				Code: "UNAUTHENTICATED", Message: err.Error(),
			}})
			return
		}
		c.Set(callerKey, caller)
		ctx := logging.WithAttrs(c.Request.Context(), slog.String("caller", caller.String()))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func callerFrom(c *gin.Context) domain.Caller {
	v, _ := c.Get(callerKey)
	caller, _ := v.(domain.Caller)
	return caller
}

func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if log == nil {
			return
		}
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		log.InfoContext(c.Request.Context(), "http_request",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

// statusFor maps engine error codes to HTTP statuses.
func statusFor(code domain.ErrorCode) int {
	switch code {
	case domain.CodeForbidden:
		return http.StatusForbidden
	case domain.CodeLocked:
		return http.StatusLocked
	case domain.CodeValidation:
		return http.StatusUnprocessableEntity
	case domain.CodeStageNotReady, domain.CodeSessionAlreadyClosed:
		return http.StatusConflict
	case domain.CodeNotConfirmed:
		return http.StatusPreconditionRequired
	case domain.CodeUnknownStage, domain.CodeUnknownCase, domain.CodeUnknownReport:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes err as the error envelope.
func RespondError(c *gin.Context, log *slog.Logger, err error) {
	code := domain.CodeOf(err)
	status := statusFor(code)
	if status == http.StatusInternalServerError && log != nil {
		log.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(status, contract.NewErrorEnvelope(err))
}
