package api

import (
	"errors"
	"net/http"
	"time"

	"expensetracker/config"
	"expensetracker/forms"
	"expensetracker/middleware"
	"expensetracker/models"
	"expensetracker/service"

	"github.com/gin-gonic/gin"
)

// AuthHandler 登录认证处理器
type AuthHandler struct {
	ledger *service.Ledger
	cfg    *config.Config
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(ledger *service.Ledger, cfg *config.Config) *AuthHandler {
	return &AuthHandler{ledger: ledger, cfg: cfg}
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"alice"`
	Password string `json:"password" binding:"required" example:"secret123"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
}

const invalidLogin = "Please enter a correct username and password."

func (h *AuthHandler) ttl() time.Duration {
	if h.cfg.JWT.ExpireTime > 0 {
		return h.cfg.JWT.ExpireTime
	}
	return 24 * time.Hour
}

// LoginPage 登录页；已登录直接跳转
func (h *AuthHandler) LoginPage(c *gin.Context) {
	next := middleware.SafeNext(c.Query("next"))
	if _, ok := middleware.SessionClaims(c); ok {
		c.Redirect(http.StatusFound, next)
		return
	}
	renderForm(c, "login.html", "Log in", &forms.LoginForm{}, nil, gin.H{"next": next})
}

// Login 表单登录，成功后写入会话 cookie 并跳回 next
func (h *AuthHandler) Login(c *gin.Context) {
	next := middleware.SafeNext(c.PostForm("next"))
	var form forms.LoginForm
	if errs := form.Bind(c); errs != nil {
		renderForm(c, "login.html", "Log in", &form, errs, gin.H{"next": next})
		return
	}

	user, err := h.ledger.Authenticate(c.Request.Context(), form.Username, form.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		form.Password = ""
		renderForm(c, "login.html", "Log in", &form, forms.FieldErrors{forms.NonFieldKey: invalidLogin}, gin.H{"next": next})
		return
	}
	if err != nil {
		renderError(c, err, "login failed")
		return
	}

	token, err := middleware.GenerateToken(user.ID, user.Username, h.ttl())
	if err != nil {
		renderError(c, err, "login failed")
		return
	}
	middleware.SetSessionCookie(c, token, h.ttl())
	c.Redirect(http.StatusFound, next)
}

// Logout 清除会话
func (h *AuthHandler) Logout(c *gin.Context) {
	middleware.ClearSessionCookie(c)
	c.Redirect(http.StatusFound, middleware.LoginPath)
}

// APILogin 用户登录
// @Summary 用户登录
// @Description 用户名或邮箱登录，获取 Bearer token
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body LoginRequest true "登录信息"
// @Success 200 {object} Response{data=LoginResponse} "登录成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "用户名或密码错误"
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) APILogin(c *gin.Context) {
	var form forms.LoginForm
	if errs := form.Bind(c); errs != nil {
		ValidationError(c, errs)
		return
	}

	user, err := h.ledger.Authenticate(c.Request.Context(), form.Username, form.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		Unauthorized(c, invalidLogin)
		return
	}
	if err != nil {
		respondError(c, err, "login failed")
		return
	}

	ttl := h.ttl()
	token, err := middleware.GenerateToken(user.ID, user.Username, ttl)
	if err != nil {
		respondError(c, err, "generate token failed")
		return
	}
	Success(c, LoginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(ttl),
		User:      *user,
	})
}
