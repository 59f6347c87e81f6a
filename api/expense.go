package api

import (
	"net/http"

	"expensetracker/forms"
	"expensetracker/middleware"
	"expensetracker/service"

	"github.com/gin-gonic/gin"
)

// ExpenseHandler 消费记录处理器
type ExpenseHandler struct {
	ledger *service.Ledger
}

// NewExpenseHandler 创建消费记录处理器
func NewExpenseHandler(ledger *service.Ledger) *ExpenseHandler {
	return &ExpenseHandler{ledger: ledger}
}

// ExpenseRequest 创建消费记录请求，用户取自登录身份
type ExpenseRequest struct {
	Amount      string `json:"amount" example:"12.50"`
	Date        string `json:"date" example:"2024-03-15"`
	Description string `json:"description" example:"午餐"`
	Category    int    `json:"category" example:"1"`
}

// Page 消费列表
func (h *ExpenseHandler) Page(c *gin.Context) {
	expenses, total, err := h.ledger.ListExpenses(c.Request.Context(), middleware.GetCurrentUserID(c))
	if err != nil {
		renderError(c, err, "list expenses failed")
		return
	}
	render(c, http.StatusOK, "expense_list.html", "Expenses", gin.H{
		"expenses": expenses,
		"total":    total,
	})
}

// AddPage 新增消费表单
func (h *ExpenseHandler) AddPage(c *gin.Context) {
	h.renderForm(c, &forms.ExpenseForm{}, nil)
}

// Add 提交新增消费，成功后重定向到列表
func (h *ExpenseHandler) Add(c *gin.Context) {
	var form forms.ExpenseForm
	data, errs := form.Bind(c, h.ledger.Today())
	if errs != nil {
		h.renderForm(c, &form, errs)
		return
	}
	if _, err := h.ledger.CreateExpense(c.Request.Context(), middleware.GetCurrentUserID(c), data); err != nil {
		if fe, ok := fieldErrors(err); ok {
			h.renderForm(c, &form, fe)
			return
		}
		renderError(c, err, "create expense failed")
		return
	}
	redirectWithFlash(c, "/expenses/", "Expense added successfully!")
}

func (h *ExpenseHandler) renderForm(c *gin.Context, form *forms.ExpenseForm, errs forms.FieldErrors) {
	categories, err := h.ledger.ListCategories(c.Request.Context())
	if err != nil {
		renderError(c, err, "list categories failed")
		return
	}
	renderForm(c, "expense_form.html", "Add expense", form, errs, gin.H{"categories": categories})
}

// List 获取消费记录列表
// @Summary 获取消费记录列表
// @Description 当前用户全部消费记录，按日期倒序，total 为全部金额合计
// @Tags 消费记录
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=ListResponse{list=[]models.Expense}} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/expenses [get]
func (h *ExpenseHandler) List(c *gin.Context) {
	expenses, total, err := h.ledger.ListExpenses(c.Request.Context(), middleware.GetCurrentUserID(c))
	if err != nil {
		respondError(c, err, "list expenses failed")
		return
	}
	Success(c, ListResponse{Count: len(expenses), Total: total.StringFixed(2), List: expenses})
}

// Create 创建消费记录
// @Summary 创建消费记录
// @Description 创建一条新的消费记录，归属当前登录用户
// @Tags 消费记录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ExpenseRequest true "消费记录信息"
// @Success 201 {object} Response{data=models.Expense} "创建成功"
// @Failure 400 {object} Response{data=forms.FieldErrors} "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/expenses [post]
func (h *ExpenseHandler) Create(c *gin.Context) {
	var form forms.ExpenseForm
	data, errs := form.Bind(c, h.ledger.Today())
	if errs != nil {
		ValidationError(c, errs)
		return
	}
	expense, err := h.ledger.CreateExpense(c.Request.Context(), middleware.GetCurrentUserID(c), data)
	if err != nil {
		respondError(c, err, "create expense failed")
		return
	}
	Created(c, "创建成功", expense)
}
