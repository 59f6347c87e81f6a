package middleware

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"expensetracker/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// SessionCookie 页面会话 cookie 名
	SessionCookie = "session"
	// LoginPath 未登录时跳转的地址
	LoginPath = "/login"

	ctxUserID   = "userID"
	ctxUsername = "username"
)

var jwtSecret []byte

// Claims JWT 载荷
type Claims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// InitJWT 设置签名密钥
func InitJWT(cfg *config.Config) {
	jwtSecret = []byte(cfg.JWT.Secret)
}

// GenerateToken 生成 token
func GenerateToken(userID uint, username string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret)
}

// ParseToken 解析并校验 token
func ParseToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.New("empty token")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// JWTAuth API 鉴权：Authorization: Bearer <token>，失败返回 401
func JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			abortUnauthorized(c, "missing or malformed Authorization header")
			return
		}
		claims, err := ParseToken(strings.TrimSpace(parts[1]))
		if err != nil {
			abortUnauthorized(c, "invalid or expired token")
			return
		}
		setIdentity(c, claims)
		c.Next()
	}
}

// SessionAuth 页面鉴权：读取会话 cookie，失败跳转登录页并携带 next
func SessionAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := SessionClaims(c)
		if !ok {
			ClearSessionCookie(c)
			c.Redirect(http.StatusFound, LoginURL(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		setIdentity(c, claims)
		c.Next()
	}
}

// SessionClaims 读取并校验会话 cookie
func SessionClaims(c *gin.Context) (*Claims, bool) {
	raw, err := c.Cookie(SessionCookie)
	if err != nil || raw == "" {
		return nil, false
	}
	claims, err := ParseToken(raw)
	if err != nil {
		return nil, false
	}
	return claims, true
}

// LoginURL 登录地址，next 为登录后返回的站内路径
func LoginURL(next string) string {
	if next == "" || next == "/" {
		return LoginPath
	}
	return LoginPath + "?next=" + url.QueryEscape(next)
}

// SafeNext 只允许站内相对路径，避免开放重定向
func SafeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

// SetSessionCookie 写入会话 cookie（HttpOnly，生产环境 Secure）
func SetSessionCookie(c *gin.Context, token string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, token, int(ttl.Seconds()), "/", "", config.IsRelease(), true)
}

// ClearSessionCookie 清除会话 cookie
func ClearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", config.IsRelease(), true)
}

// GetCurrentUserID 当前登录用户 ID，未登录为 0
func GetCurrentUserID(c *gin.Context) uint {
	if v, ok := c.Get(ctxUserID); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}

// GetCurrentUsername 当前登录用户名
func GetCurrentUsername(c *gin.Context) string {
	return c.GetString(ctxUsername)
}

func setIdentity(c *gin.Context, claims *Claims) {
	c.Set(ctxUserID, claims.UserID)
	c.Set(ctxUsername, claims.Username)
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":    http.StatusUnauthorized,
		"message": message,
	})
}
