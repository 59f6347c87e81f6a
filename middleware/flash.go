package middleware

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"expensetracker/config"

	"github.com/gin-gonic/gin"
)

const (
	flashCookie = "flash"
	ctxFlashes  = "flashes"
)

// Flash 一次性提示消息，下一次页面渲染时展示
type Flash struct {
	Level   string `json:"level"` // success / error
	Message string `json:"message"`
}

// AddFlash 追加提示，通常紧接着重定向
func AddFlash(c *gin.Context, level, message string) {
	flashes := append(pendingFlashes(c), Flash{Level: level, Message: message})
	c.Set(ctxFlashes+".pending", flashes)
	raw, err := json.Marshal(flashes)
	if err != nil {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookie, base64.RawURLEncoding.EncodeToString(raw), 300, "/", "", config.IsRelease(), true)
}

// Flashes 读取上一请求留下的提示并清除 cookie
func Flashes() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, err := c.Cookie(flashCookie); err == nil && raw != "" {
			var flashes []Flash
			if data, err := base64.RawURLEncoding.DecodeString(raw); err == nil {
				_ = json.Unmarshal(data, &flashes)
			}
			c.Set(ctxFlashes, flashes)
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(flashCookie, "", -1, "/", "", config.IsRelease(), true)
		}
		c.Next()
	}
}

// GetFlashes 当前请求可展示的提示
func GetFlashes(c *gin.Context) []Flash {
	if v, ok := c.Get(ctxFlashes); ok {
		if flashes, ok := v.([]Flash); ok {
			return flashes
		}
	}
	return nil
}

func pendingFlashes(c *gin.Context) []Flash {
	if v, ok := c.Get(ctxFlashes + ".pending"); ok {
		if flashes, ok := v.([]Flash); ok {
			return flashes
		}
	}
	return nil
}
