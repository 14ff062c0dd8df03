package echoapi

import (
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/actionunitmanager/backend/core"
	"github.com/actionunitmanager/backend/core/subscription"
)

// roleMiddleware restricts an endpoint to users holding any of the given roles.
func roleMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if _, err := getContextClaims(ctx); err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if contextHasAnyRole(ctx, roles) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// subscriptionGateMiddleware enforces the billing gate on every request of the
// group it is registered on. Denials short-circuit with a 402 and the gate's
// structured payload.
func subscriptionGateMiddleware(lookup subscription.Lookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			var churchID string
			if claims, err := getContextClaims(ctx); err == nil {
				churchID = claims.ChurchID
			}

			req := subscription.RequestContext{
				Method:   ctx.Request().Method,
				Path:     ctx.Request().URL.Path,
				ChurchID: churchID,
			}
			decision, err := subscription.CheckAccess(req, lookup, core.Today())
			if err != nil {
				return errors.Wrap(err, "checking subscription access")
			}
			if !decision.Allow {
				return ctx.JSON(http.StatusPaymentRequired, decision)
			}
			return next(ctx)
		}
	}
}

// ipRateLimiter hands out a token bucket per client IP.
type ipRateLimiter struct {
	mut      sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newIPRateLimiter(limit rate.Limit, burst int) *ipRateLimiter {
	return &ipRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
		burst:    burst,
	}
}

func (rl *ipRateLimiter) get(ip string) *rate.Limiter {
	rl.mut.Lock()
	defer rl.mut.Unlock()
	lim, ok := rl.limiters[ip]
	if !ok {
		lim = rate.NewLimiter(rl.limit, rl.burst)
		rl.limiters[ip] = lim
	}
	return lim
}

// rateLimitMiddleware throttles brute-force-prone endpoints (phone logins use
// guessable default passwords) per client IP.
func rateLimitMiddleware(limit rate.Limit, burst int) echo.MiddlewareFunc {
	rl := newIPRateLimiter(limit, burst)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if core.Conf.TestMode {
				return next(ctx)
			}
			if !rl.get(ctx.RealIP()).Allow() {
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
			}
			return next(ctx)
		}
	}
}
