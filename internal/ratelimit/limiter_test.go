package ratelimit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestLimiter(t *testing.T) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, Config{Points: 5, Window: time.Minute, Block: 15 * time.Minute}), mr
}

func TestLimiter_LockoutAfterAllowance(t *testing.T) {
	l, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		res, err := l.Consume(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.Truef(t, res.Allowed, "attempt %d", i)
		assert.Equal(t, 5-i, res.Remaining)
	}

	res, err := l.Consume(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.InDelta(t, 900, res.RetryAfter.Seconds(), 1)

	other, err := l.Consume(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, other.Allowed, "keys are independent")
}

func TestLimiter_BlockOutlastsWindow(t *testing.T) {
	l, mr := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		_, err := l.Consume(ctx, "ip")
		require.NoError(t, err)
	}

	mr.FastForward(2 * time.Minute)
	res, err := l.Consume(ctx, "ip")
	require.NoError(t, err)
	assert.False(t, res.Allowed, "still blocked after the window")
	assert.InDelta(t, 780, res.RetryAfter.Seconds(), 1)

	mr.FastForward(14 * time.Minute)
	res, err = l.Consume(ctx, "ip")
	require.NoError(t, err)
	assert.True(t, res.Allowed, "block lifted")
}

func TestLimiter_WindowResets(t *testing.T) {
	l, mr := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := l.Consume(ctx, "ip")
		require.NoError(t, err)
	}
	mr.FastForward(61 * time.Second)

	res, err := l.Consume(ctx, "ip")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 4, res.Remaining)
}

func TestMiddleware(t *testing.T) {
	l, mr := newTestLimiter(t)

	e := echo.New()
	calls := 0
	e.POST("/login", func(c echo.Context) error {
		calls++
		return c.NoContent(http.StatusOK)
	}, Middleware(l, zap.NewNop()))

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.Header.Set(echo.HeaderXForwardedFor, "203.0.113.9")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, do().Code)
	}

	rec := do()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, 5, calls, "handler never runs once rejected")
	assert.Equal(t, "900", rec.Header().Get("Retry-After"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, float64(900), body["retryAfter"])

	mr.Close()
	rec = do()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code, "fails closed without redis")
	assert.Equal(t, 5, calls)
}
