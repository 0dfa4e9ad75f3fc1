package middleware

import (
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Limiter allows each client IP r requests per second with bursts of b.
// Buckets live as long as the returned handler.
func Limiter(r rate.Limit, b int) gin.HandlerFunc {
	var limiters sync.Map
	return func(c *gin.Context) {
		ip := c.ClientIP()
		limiter, _ := limiters.LoadOrStore(ip, rate.NewLimiter(r, b))
		if !limiter.(*rate.Limiter).Allow() {
			log.Printf("rate limit exceeded for %s on %s", ip, c.FullPath())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, try again later"})
			return
		}
		c.Next()
	}
}

// PerMinute converts a per-minute budget to a rate.Limit.
func PerMinute(n int) rate.Limit {
	return rate.Limit(float64(n) / 60)
}
