package requestid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func serve(t *testing.T, header string) (*httptest.ResponseRecorder, string, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	var fromGin, fromCtx string
	router := gin.New()
	router.Use(Middleware())
	router.GET("/", func(c *gin.Context) {
		fromGin = Value(c)
		fromCtx = FromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(headerKey, header)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec, fromGin, fromCtx
}

func TestMiddlewareKeepsCallerID(t *testing.T) {
	rec, fromGin, fromCtx := serve(t, "req-42")
	assert.Equal(t, "req-42", rec.Header().Get(headerKey))
	assert.Equal(t, "req-42", fromGin)
	assert.Equal(t, "req-42", fromCtx)
}

func TestMiddlewareGeneratesID(t *testing.T) {
	rec, fromGin, _ := serve(t, strings.Repeat("x", maxLength+1))
	assert.Len(t, fromGin, 36)
	assert.Equal(t, fromGin, rec.Header().Get(headerKey))
}
