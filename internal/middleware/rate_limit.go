package middleware

import (
	"net/http"
	"strconv"

	"crossx/internal/domain"
	"crossx/internal/service"
	"crossx/pkg/logger"

	"github.com/gin-gonic/gin"
)

type RateLimitMiddleware struct {
	rateLimitService service.RateLimitService
	log              logger.Logger
}

// NewRateLimitMiddleware принимает nil, если Redis не настроен: тогда лимиты не применяются
func NewRateLimitMiddleware(rateLimitService service.RateLimitService, log logger.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		rateLimitService: rateLimitService,
		log:              log,
	}
}

// Limit ограничивает число запросов с одного IP в минуту для scope
func (m *RateLimitMiddleware) Limit(scope string, perMinute int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.rateLimitService == nil || perMinute <= 0 {
			c.Next()
			return
		}

		allowed, remaining, err := m.rateLimitService.Allow(c.Request.Context(), scope, c.ClientIP(), perMinute, domain.RateLimitWindow)
		if err != nil {
			// Недоступный Redis не должен блокировать комнаты
			m.log.Warn("Rate limit check failed", "error", err, "scope", scope)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(perMinute))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}

		c.Next()
	}
}
