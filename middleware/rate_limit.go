package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/cppla/blogpub/utils"
)

const rateLimitWindow = time.Minute

type rateLimiter struct {
	limiter *rate.Limiter
	expires time.Time
}

// RateLimiter caps requests per client IP per minute. With a Redis client the
// count is shared across instances through a fixed window; otherwise each
// process keeps its own token buckets.
type RateLimiter struct {
	perMinute int
	redis     *redis.Client
	prefix    string
	now       func() time.Time

	mu       sync.Mutex
	limiters map[string]*rateLimiter
}

// NewRateLimiter builds a limiter allowing perMinute requests per IP. rc may
// be nil.
func NewRateLimiter(perMinute int, rc *redis.Client) *RateLimiter {
	return &RateLimiter{
		perMinute: max(perMinute, 1),
		redis:     rc,
		prefix:    "ratelimit:",
		now:       time.Now,
		limiters:  map[string]*rateLimiter{},
	}
}

// Middleware answers 429 once the caller's budget is spent.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ip := ctx.ClientIP()

		var allowed bool
		if l.redis != nil {
			allowed = l.allowRedis(ctx.Request.Context(), ip)
		} else {
			allowed = l.allowLocal(ip)
		}

		ctx.Header("X-RateLimit-Limit", strconv.Itoa(l.perMinute))
		if !allowed {
			ctx.Header("Retry-After", strconv.Itoa(int(rateLimitWindow/time.Second)))
			utils.Error(ctx, http.StatusTooManyRequests, "too many requests, please try again later")
			ctx.Abort()
			return
		}

		ctx.Next()
	}
}

// allowRedis counts hits in the current minute. Redis failures let the request
// through so an outage of the limiter never takes the API down.
func (l *RateLimiter) allowRedis(ctx context.Context, ip string) bool {
	window := l.now().Unix() / int64(rateLimitWindow/time.Second)
	key := fmt.Sprintf("%s%s:%d", l.prefix, ip, window)

	pipe := l.redis.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, rateLimitWindow+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		utils.Sugar.Warnf("rate limit redis error ip=%s err=%v", ip, err)
		return true
	}
	return incr.Val() <= int64(l.perMinute)
}

func (l *RateLimiter) allowLocal(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.cleanupExpiredLocked(now)

	limiter, ok := l.limiters[ip]
	if !ok {
		limiter = &rateLimiter{
			limiter: rate.NewLimiter(rate.Every(rateLimitWindow/time.Duration(l.perMinute)), l.perMinute),
		}
		l.limiters[ip] = limiter
	}
	limiter.expires = now.Add(5 * time.Minute)
	return limiter.limiter.AllowN(now, 1)
}

func (l *RateLimiter) cleanupExpiredLocked(now time.Time) {
	for key, limiter := range l.limiters {
		if now.After(limiter.expires) {
			delete(l.limiters, key)
		}
	}
}
