package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/GriffinCanCode/AppletOS/backend/internal/infrastructure/config"
)

func setupTestRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(handlers...)
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})
	return router
}

func get(router *gin.Engine, remote string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if remote != "" {
		req.RemoteAddr = remote
	}
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCORS(t *testing.T) {
	router := setupTestRouter(CORS(DefaultCORSConfig()))

	tests := []struct {
		name           string
		method         string
		origin         string
		wantStatus     int
		wantCORSHeader bool
	}{
		{"simple GET request with origin", http.MethodGet, "http://localhost:3000", http.StatusOK, true},
		{"preflight OPTIONS request", http.MethodOptions, "http://localhost:3000", http.StatusNoContent, true},
		{"no origin header", http.MethodGet, "", http.StatusOK, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/test", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCORSHeader {
				assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}

func TestCORSWildcardDropsCredentials(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowCredentials = true
	router := setupTestRouter(CORS(cfg))

	w := get(router, "", http.Header{"Origin": {"http://localhost:3000"}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestRateLimit(t *testing.T) {
	router := setupTestRouter(RateLimit(config.RateLimitConfig{
		RequestsPerSecond: 2,
		Burst:             2,
		Enabled:           true,
	}))

	for i := 0; i < 2; i++ {
		w := get(router, "192.168.1.1:1234", nil)
		assert.Equal(t, http.StatusOK, w.Code, "Request %d should succeed", i+1)
	}
	w := get(router, "192.168.1.1:1234", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRateLimitDifferentClients(t *testing.T) {
	router := setupTestRouter(RateLimit(config.RateLimitConfig{
		RequestsPerSecond: 1,
		Burst:             1,
		Enabled:           true,
	}))

	assert.Equal(t, http.StatusOK, get(router, "192.168.1.1:1234", nil).Code)
	assert.Equal(t, http.StatusOK, get(router, "192.168.1.2:1234", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, get(router, "192.168.1.1:1234", nil).Code)
}

func TestRateLimitDisabled(t *testing.T) {
	router := setupTestRouter(RateLimit(config.RateLimitConfig{
		RequestsPerSecond: 1,
		Burst:             1,
	}))

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, get(router, "192.168.1.1:1234", nil).Code)
	}
}

func TestGlobalRateLimit(t *testing.T) {
	router := setupTestRouter(GlobalRateLimit(config.RateLimitConfig{
		RequestsPerSecond: 1,
		Burst:             1,
		Enabled:           true,
	}))

	assert.Equal(t, http.StatusOK, get(router, "192.168.1.1:1234", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, get(router, "192.168.1.2:1234", nil).Code)
}

func TestRequestID(t *testing.T) {
	router := setupTestRouter(RequestID())

	t.Run("generates an id", func(t *testing.T) {
		w := get(router, "", nil)
		rid := w.Header().Get(RequestIDHeader)
		_, err := uuid.Parse(rid)
		assert.NoError(t, err)
	})

	t.Run("keeps a caller id", func(t *testing.T) {
		want := uuid.NewString()
		w := get(router, "", http.Header{RequestIDHeader: {want}})
		assert.Equal(t, want, w.Header().Get(RequestIDHeader))
	})

	t.Run("replaces a malformed id", func(t *testing.T) {
		w := get(router, "", http.Header{RequestIDHeader: {"not-an-id"}})
		assert.NotEqual(t, "not-an-id", w.Header().Get(RequestIDHeader))
	})
}

func TestLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID(), Logger(zap.New(core)))
	router.GET("/fail", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))

	entries := logs.FilterMessage("request failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, w.Header().Get(RequestIDHeader), entries[0].ContextMap()["request_id"])
	assert.Equal(t, int64(http.StatusInternalServerError), entries[0].ContextMap()["status"])
}
