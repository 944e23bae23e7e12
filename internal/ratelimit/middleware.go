package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"authcodelab/internal/errors"
)

// storeFailureRetry is reported when the counter store cannot be reached.
const storeFailureRetry = 60 * time.Second

// Middleware consumes one point per request, keyed by c.RealIP() as resolved
// by the server's IPExtractor, before the handler runs. Requests are rejected
// while Redis is unavailable.
func Middleware(l *Limiter, log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()

			res, err := l.Consume(c.Request().Context(), ip)
			if err != nil {
				log.Error("rate limiter store failure", zap.String("ip", ip), zap.Error(err))
				return reject(c, storeFailureRetry)
			}
			if !res.Allowed {
				log.Warn("login rate limit exceeded", zap.String("ip", ip), zap.Duration("retry_after", res.RetryAfter))
				return reject(c, res.RetryAfter)
			}
			return next(c)
		}
	}
}

func reject(c echo.Context, retryAfter time.Duration) error {
	secs := int(math.Ceil(retryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	c.Response().Header().Set("Retry-After", strconv.Itoa(secs))

	resp := errors.MapErrorToHTTP(errors.ErrRateLimited).ToErrorResponse()
	resp.RetryAfter = secs
	return echo.NewHTTPError(http.StatusTooManyRequests, resp)
}
