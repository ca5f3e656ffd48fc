package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// InitSentry configures the global Sentry hub. An empty DSN disables capture.
func InitSentry(dsn, env, release string) (func(), error) {
	if dsn == "" {
		return func() {}, nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: env,
		Release:     release,
	}); err != nil {
		return func() {}, err
	}
	return func() { sentry.Flush(2 * time.Second) }, nil
}

// CaptureErr forwards err to Sentry when capture is enabled.
func CaptureErr(err error) {
	if err != nil {
		sentry.CaptureException(err)
	}
}

// Recovery turns panics into 500 responses and reports them.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				err := fmt.Errorf("panic: %v", rec)
				logger.Error("panic recovered", zap.Error(err), zap.String("path", c.FullPath()))
				CaptureErr(err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": gin.H{"code": "INTERNAL_ERROR", "message": "internal server error", "status": http.StatusInternalServerError},
				})
			}
		}()
		c.Next()
	}
}
