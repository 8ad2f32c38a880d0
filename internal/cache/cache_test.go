package cache

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EmpowerMS/empower-ms/internal/monitoring"
)

func TestCache_SetGet(t *testing.T) {
	c := NewCache(time.Minute)

	c.Set("key", []byte("value"))
	got, found := c.Get("key")
	require.True(t, found)
	assert.Equal(t, []byte("value"), got)

	_, found = c.Get("absent")
	assert.False(t, found)
}

func TestCache_Expiry(t *testing.T) {
	c := NewCache(10 * time.Millisecond)

	c.Set("key", []byte("value"))
	time.Sleep(25 * time.Millisecond)

	_, found := c.Get("key")
	assert.False(t, found)
}

func TestCache_DeleteAndClear(t *testing.T) {
	c := NewCache(time.Minute)

	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))
	assert.Equal(t, 2, c.Size())

	c.Delete("a")
	assert.Equal(t, 1, c.Size())

	c.Clear()
	assert.Equal(t, 0, c.Size())
}

func TestCache_KeyIncludesPath(t *testing.T) {
	c := NewCache(time.Minute)

	// The same body on different endpoints must not collide.
	riskKey := c.generateKey("/api/risk", `{"bpwms":1}`)
	benefitKey := c.generateKey("/api/benefit", `{"bpwms":1}`)
	assert.NotEqual(t, riskKey, benefitKey)
}

func TestCache_Stats(t *testing.T) {
	c := NewCache(time.Minute)
	c.Set("a", []byte("1"))

	stats := c.Stats()
	assert.Equal(t, 1, stats["total_items"])
	assert.Equal(t, 1, stats["active_items"])
	assert.Equal(t, 60.0, stats["ttl_seconds"])
}

func TestMiddleware_CachesEstimateResponses(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c := NewCache(time.Minute)
	metrics := monitoring.NewMetrics()
	handlerCalls := 0

	r := gin.New()
	r.Use(c.Middleware(metrics))
	r.POST("/api/risk", func(ctx *gin.Context) {
		handlerCalls++
		ctx.JSON(http.StatusOK, gin.H{"risk_percent": 3.33})
	})

	body := `{"bpwms":1,"current_smoker":1,"pack_years":2.5,"age_at_baseline":30,"sex_male":0,"follow_up_interval":1.0}`

	first := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/risk", bytes.NewBufferString(body))
	r.ServeHTTP(first, req)
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodPost, "/api/risk", bytes.NewBufferString(body))
	r.ServeHTTP(second, req)
	require.Equal(t, http.StatusOK, second.Code)

	assert.Equal(t, 1, handlerCalls, "second request should be served from cache")
	assert.JSONEq(t, first.Body.String(), second.Body.String())
}

func TestMiddleware_SkipsNonEstimatePaths(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c := NewCache(time.Minute)
	metrics := monitoring.NewMetrics()
	handlerCalls := 0

	r := gin.New()
	r.Use(c.Middleware(metrics))
	r.GET("/health", func(ctx *gin.Context) {
		handlerCalls++
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/health", nil)
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, 2, handlerCalls)
	assert.Equal(t, 0, c.Size())
}

func TestMiddleware_DoesNotCacheErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c := NewCache(time.Minute)
	metrics := monitoring.NewMetrics()

	r := gin.New()
	r.Use(c.Middleware(metrics))
	r.POST("/api/benefit", func(ctx *gin.Context) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "bad input"})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/benefit", bytes.NewBufferString(`{}`))
	r.ServeHTTP(w, req)

	assert.Equal(t, 0, c.Size())
}
