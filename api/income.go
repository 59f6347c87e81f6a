package api

import (
	"net/http"

	"expensetracker/forms"
	"expensetracker/middleware"
	"expensetracker/service"

	"github.com/gin-gonic/gin"
)

// IncomeHandler 收入记录处理器
type IncomeHandler struct {
	ledger *service.Ledger
}

// NewIncomeHandler 创建收入记录处理器
func NewIncomeHandler(ledger *service.Ledger) *IncomeHandler {
	return &IncomeHandler{ledger: ledger}
}

// IncomeRequest 创建收入请求
type IncomeRequest struct {
	Amount      string `json:"amount" example:"5000.00"`
	Date        string `json:"date" example:"2024-03-01"`
	Source      string `json:"source" example:"工资"`
	Description string `json:"description" example:"三月工资"`
}

// Page 收入列表
func (h *IncomeHandler) Page(c *gin.Context) {
	incomes, total, err := h.ledger.ListIncomes(c.Request.Context(), middleware.GetCurrentUserID(c))
	if err != nil {
		renderError(c, err, "list incomes failed")
		return
	}
	render(c, http.StatusOK, "income_list.html", "Income", gin.H{
		"incomes": incomes,
		"total":   total,
	})
}

func (h *IncomeHandler) AddPage(c *gin.Context) {
	renderForm(c, "income_form.html", "Add income", &forms.IncomeForm{}, nil, nil)
}

// Add 提交新增收入
func (h *IncomeHandler) Add(c *gin.Context) {
	var form forms.IncomeForm
	data, errs := form.Bind(c, h.ledger.Today())
	if errs != nil {
		renderForm(c, "income_form.html", "Add income", &form, errs, nil)
		return
	}
	if _, err := h.ledger.CreateIncome(c.Request.Context(), middleware.GetCurrentUserID(c), data); err != nil {
		renderError(c, err, "create income failed")
		return
	}
	redirectWithFlash(c, "/income/", "Income added successfully!")
}

// List 获取收入列表
// @Summary 获取收入列表
// @Description 当前用户全部收入，按日期倒序，total 为全部金额合计
// @Tags 收入
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=ListResponse{list=[]models.Income}} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/incomes [get]
func (h *IncomeHandler) List(c *gin.Context) {
	incomes, total, err := h.ledger.ListIncomes(c.Request.Context(), middleware.GetCurrentUserID(c))
	if err != nil {
		respondError(c, err, "list incomes failed")
		return
	}
	Success(c, ListResponse{Count: len(incomes), Total: total.StringFixed(2), List: incomes})
}

// Create 创建收入
// @Summary 创建收入
// @Description 创建一条收入记录，归属当前登录用户
// @Tags 收入
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body IncomeRequest true "收入信息"
// @Success 201 {object} Response{data=models.Income} "创建成功"
// @Failure 400 {object} Response{data=forms.FieldErrors} "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/incomes [post]
func (h *IncomeHandler) Create(c *gin.Context) {
	var form forms.IncomeForm
	data, errs := form.Bind(c, h.ledger.Today())
	if errs != nil {
		ValidationError(c, errs)
		return
	}
	income, err := h.ledger.CreateIncome(c.Request.Context(), middleware.GetCurrentUserID(c), data)
	if err != nil {
		respondError(c, err, "create income failed")
		return
	}
	Created(c, "创建成功", income)
}
