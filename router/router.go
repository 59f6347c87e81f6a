package router

import (
	"net/http"
	"time"

	"expensetracker/api"
	"expensetracker/config"
	_ "expensetracker/docs"
	"expensetracker/logger"
	"expensetracker/middleware"
	"expensetracker/service"
	"expensetracker/web"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const (
	loginMaxAttempts = 10
	loginWindow      = 15 * time.Minute
)

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, ledger *service.Ledger) *gin.Engine {
	// 设置运行模式
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger.Log))

	r.SetHTMLTemplate(web.Templates())
	r.StaticFS("/static", http.FS(web.Static()))

	authHandler := api.NewAuthHandler(ledger, cfg)
	dashboardHandler := api.NewDashboardHandler(ledger)
	expenseHandler := api.NewExpenseHandler(ledger)
	incomeHandler := api.NewIncomeHandler(ledger)
	categoryHandler := api.NewCategoryHandler(ledger)
	reportHandler := api.NewReportHandler(ledger)
	groupHandler := api.NewGroupExpenseHandler(ledger)

	// 登录页与 API 登录共用同一个限流计数
	loginLimit := middleware.LoginRateLimit(loginMaxAttempts, loginWindow)

	// 页面路由：会话 cookie 认证，未登录跳转登录页
	pages := r.Group("")
	pages.Use(middleware.Flashes())
	{
		pages.GET("/login", authHandler.LoginPage)
		pages.POST("/login", loginLimit, authHandler.Login)
		pages.POST("/logout", authHandler.Logout)

		authed := pages.Group("")
		authed.Use(middleware.SessionAuth())
		{
			authed.GET("/", dashboardHandler.Page)

			authed.GET("/expenses/", expenseHandler.Page)
			authed.GET("/expenses/add/", expenseHandler.AddPage)
			authed.POST("/expenses/add/", expenseHandler.Add)

			authed.GET("/income/", incomeHandler.Page)
			authed.GET("/income/add/", incomeHandler.AddPage)
			authed.POST("/income/add/", incomeHandler.Add)

			authed.GET("/categories/", categoryHandler.Page)
			authed.GET("/categories/add/", categoryHandler.AddPage)
			authed.POST("/categories/add/", categoryHandler.Add)

			authed.GET("/reports/", reportHandler.Page)
			authed.POST("/reports/", reportHandler.Submit)
			authed.GET("/reports/export.xlsx", reportHandler.ExportXLSX)
			authed.GET("/reports/export.pdf", reportHandler.ExportPDF)

			groups := authed.Group("/group-expenses")
			{
				groups.GET("/", groupHandler.Page)
				groups.GET("/add/", groupHandler.AddPage)
				groups.POST("/add/", groupHandler.Add)
				groups.GET("/:id/", groupHandler.Detail)
				groups.POST("/:id/members/", groupHandler.AddMember)
				groups.POST("/:id/members/:member_id/paid/", groupHandler.MarkPaid)
				groups.POST("/:id/settle/", groupHandler.Settle)
			}
		}
	}

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1 路由组
	v1 := r.Group("/api/v1")
	v1.Use(CORSMiddleware())
	{
		// 预检请求由 CORSMiddleware 直接返回
		v1.OPTIONS("/*path", func(c *gin.Context) {})
		v1.POST("/auth/login", loginLimit, authHandler.APILogin)

		// 需要 JWT 认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth())
		{
			authorized.GET("/dashboard", dashboardHandler.Get)
			authorized.GET("/reports", reportHandler.Get)
			authorized.GET("/categories", categoryHandler.List)

			authorized.GET("/expenses", expenseHandler.List)
			authorized.POST("/expenses", expenseHandler.Create)

			authorized.GET("/incomes", incomeHandler.List)
			authorized.POST("/incomes", incomeHandler.Create)

			groups := authorized.Group("/group-expenses")
			{
				groups.GET("", groupHandler.List)
				groups.POST("", groupHandler.Create)
				groups.GET("/:id", groupHandler.Get)
				groups.POST("/:id/members", groupHandler.CreateMember)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	return r
}

// CORSMiddleware CORS 跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
