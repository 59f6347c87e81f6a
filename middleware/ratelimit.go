package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const rateLimitMessage = "Too many login attempts, please try again later."

type attempts struct {
	timestamps []time.Time
}

// prune 丢弃 cutoff 之前的记录，返回剩余次数
func (a *attempts) prune(cutoff time.Time) int {
	kept := a.timestamps[:0]
	for _, t := range a.timestamps {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	a.timestamps = kept
	return len(kept)
}

// LoginRateLimit 登录限流中间件
// 每 IP 在 window 内最多 maxAttempts 次尝试，超过则返回 429
func LoginRateLimit(maxAttempts int, window time.Duration) gin.HandlerFunc {
	var (
		mu    sync.Mutex
		store = make(map[string]*attempts)
	)
	// 定期清理过期数据
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			mu.Lock()
			cutoff := time.Now().Add(-window)
			for ip, a := range store {
				if a.prune(cutoff) == 0 {
					delete(store, ip)
				}
			}
			mu.Unlock()
		}
	}()

	return func(c *gin.Context) {
		// 只限制提交，登录页本身不计数
		if c.Request.Method == http.MethodGet {
			c.Next()
			return
		}

		ip := c.ClientIP()
		now := time.Now()
		mu.Lock()
		a, ok := store[ip]
		if !ok {
			a = &attempts{}
			store[ip] = a
		}
		if a.prune(now.Add(-window)) >= maxAttempts {
			mu.Unlock()
			abortTooManyRequests(c)
			return
		}
		a.timestamps = append(a.timestamps, now)
		mu.Unlock()
		c.Next()
	}
}

func abortTooManyRequests(c *gin.Context) {
	if wantsJSON(c) {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"code":    http.StatusTooManyRequests,
			"message": rateLimitMessage,
		})
		return
	}
	c.Data(http.StatusTooManyRequests, "text/plain; charset=utf-8", []byte(rateLimitMessage))
	c.Abort()
}

// wantsJSON API 路径或 JSON 请求
func wantsJSON(c *gin.Context) bool {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(c.GetHeader("Content-Type"), "application/json") ||
		strings.Contains(c.GetHeader("Accept"), "application/json")
}
