package ratelimit

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// SubjectFunc extracts the limiter subject from a request.
type SubjectFunc func(c *gin.Context) string

// ClientIP keys requests by the client address gin resolves.
func ClientIP(c *gin.Context) string {
	return c.ClientIP()
}

// Fixed keys every request by the same subject, such as a webhook provider.
func Fixed(subject string) SubjectFunc {
	return func(*gin.Context) string { return subject }
}

// Middleware rejects requests over the limit configured for scope with 429.
func Middleware(m *Manager, scope Scope, subject SubjectFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil || subject == nil {
			c.Next()
			return
		}
		decision := ResolveLimit(m.Settings(), scope, subject(c))
		key := KeyForDecision(decision)
		if key == "" {
			c.Next()
			return
		}
		result, err := m.Allow(c.Request.Context(), key, decision.Limit)
		if err != nil {
			log.WithError(err).Warn("rate limit: check failed")
			c.Next()
			return
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		if !result.Allowed {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		c.Next()
	}
}
