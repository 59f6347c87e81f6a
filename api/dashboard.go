package api

import (
	"net/http"

	"expensetracker/middleware"
	"expensetracker/service"

	"github.com/gin-gonic/gin"
)

// DashboardHandler 首页概览处理器
type DashboardHandler struct {
	ledger *service.Ledger
}

// NewDashboardHandler 创建首页处理器
func NewDashboardHandler(ledger *service.Ledger) *DashboardHandler {
	return &DashboardHandler{ledger: ledger}
}

// Page 首页
func (h *DashboardHandler) Page(c *gin.Context) {
	d, err := h.ledger.Dashboard(c.Request.Context(), middleware.GetCurrentUserID(c))
	if err != nil {
		renderError(c, err, "load dashboard failed")
		return
	}
	render(c, http.StatusOK, "dashboard.html", "Dashboard", gin.H{
		"dashboard":   d,
		"window_days": h.ledger.Settings().WindowDays,
	})
}

// Get 首页概览
// @Summary 首页概览
// @Description 最近窗口内收支合计、结余、预算状态、最近消费及最近创建的群组消费
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=service.Dashboard} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/dashboard [get]
func (h *DashboardHandler) Get(c *gin.Context) {
	d, err := h.ledger.Dashboard(c.Request.Context(), middleware.GetCurrentUserID(c))
	if err != nil {
		respondError(c, err, "load dashboard failed")
		return
	}
	Success(c, d)
}
