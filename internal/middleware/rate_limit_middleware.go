package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/yourusername/vefify-quiz/internal/pkg/response"
)

// RateLimitConfig содержит настройки rate limiting
type RateLimitConfig struct {
	// MaxRequests: максимальное количество запросов за Window
	MaxRequests int
	// Window: временное окно для подсчёта запросов
	Window time.Duration
	// KeyPrefix: префикс для ключей счетчиков
	KeyPrefix string
}

// Counter: распределенный счетчик запросов (Redis)
type Counter interface {
	Increment(ctx context.Context, key string, expiration time.Duration) (int64, error)
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter ограничивает запросы по IP: счетчик в Redis с окном,
// при недоступности Redis: локальный token bucket
type RateLimiter struct {
	counter Counter
	cfg     RateLimitConfig
	logger  *zap.Logger

	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
}

// NewRateLimiter создает RateLimiter; counter может быть nil (только локальный лимит)
func NewRateLimiter(counter Counter, cfg RateLimitConfig, logger *zap.Logger) *RateLimiter {
	if cfg.MaxRequests < 1 {
		cfg.MaxRequests = 60
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "rl"
	}
	return &RateLimiter{
		counter:  counter,
		cfg:      cfg,
		logger:   logger,
		visitors: make(map[string]*visitor),
		limit:    rate.Every(cfg.Window / time.Duration(cfg.MaxRequests)),
	}
}

// LimitByIP возвращает middleware с лимитом на IP для группы маршрутов
func (rl *RateLimiter) LimitByIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		allowed, remaining, err := rl.allowDistributed(c.Request.Context(), ip)
		if err != nil {
			rl.logger.Debug("[RateLimiter] Счетчик недоступен, локальный лимит", zap.Error(err))
			allowed = rl.allowLocal(ip)
			remaining = -1
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.cfg.MaxRequests))
		if remaining >= 0 {
			c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		}

		if !allowed {
			retryAfter := int(rl.cfg.Window.Seconds())
			rl.logger.Info("[RateLimiter] Превышен лимит запросов", zap.String("ip", ip), zap.String("path", c.FullPath()))
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			response.Abort(c, http.StatusTooManyRequests, "too many requests, please try again later")
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) allowDistributed(ctx context.Context, ip string) (bool, int, error) {
	if rl.counter == nil {
		return false, 0, fmt.Errorf("no distributed counter configured")
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	count, err := rl.counter.Increment(ctx, fmt.Sprintf("%s:%s", rl.cfg.KeyPrefix, ip), rl.cfg.Window)
	if err != nil {
		return false, 0, err
	}
	remaining := rl.cfg.MaxRequests - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return int(count) <= rl.cfg.MaxRequests, remaining, nil
}

func (rl *RateLimiter) allowLocal(ip string) bool {
	rl.mu.Lock()
	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.cfg.MaxRequests)}
		rl.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	rl.mu.Unlock()

	return v.limiter.Allow()
}

// Cleanup удаляет локальные лимитеры, не использовавшиеся дольше трех окон
func (rl *RateLimiter) Cleanup() {
	expiry := rl.cfg.Window * 3
	if expiry < time.Minute {
		expiry = time.Minute
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, v := range rl.visitors {
		if time.Since(v.lastSeen) > expiry {
			delete(rl.visitors, ip)
		}
	}
}

// RunCleanup периодически вызывает Cleanup до отмены контекста
func (rl *RateLimiter) RunCleanup(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Cleanup()
		}
	}
}
