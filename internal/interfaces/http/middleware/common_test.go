package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mishipay/shopify-bridge/internal/infrastructure/logger"
)

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("honours an inbound id and propagates it", func(t *testing.T) {
		engine := gin.New()
		engine.Use(RequestID())

		var ginValue, ctxValue string
		engine.GET("/", func(c *gin.Context) {
			ginValue = c.GetString("request_id")
			ctxValue = logger.GetRequestID(c.Request.Context())
			c.Status(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "req-abc")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, "req-abc", ginValue)
		assert.Equal(t, "req-abc", ctxValue)
		assert.Equal(t, "req-abc", w.Header().Get("X-Request-ID"))
	})

	t.Run("generates an id when none is sent", func(t *testing.T) {
		engine := gin.New()
		engine.Use(RequestID())

		var ctxValue string
		engine.GET("/", func(c *gin.Context) {
			ctxValue = logger.GetRequestID(c.Request.Context())
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		require.NotEmpty(t, ctxValue)
		assert.Equal(t, ctxValue, w.Header().Get("X-Request-ID"))
	})
}
