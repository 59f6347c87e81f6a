package api

import (
	"net/http"

	"expensetracker/forms"
	"expensetracker/service"

	"github.com/gin-gonic/gin"
)

// CategoryHandler 消费类别，所有用户共用
type CategoryHandler struct {
	ledger *service.Ledger
}

func NewCategoryHandler(ledger *service.Ledger) *CategoryHandler {
	return &CategoryHandler{ledger: ledger}
}

// Page 类别列表
func (h *CategoryHandler) Page(c *gin.Context) {
	categories, err := h.ledger.ListCategories(c.Request.Context())
	if err != nil {
		renderError(c, err, "list categories failed")
		return
	}
	render(c, http.StatusOK, "category_list.html", "Categories", gin.H{"categories": categories})
}

func (h *CategoryHandler) AddPage(c *gin.Context) {
	renderForm(c, "category_form.html", "Add category", &forms.CategoryForm{}, nil, nil)
}

// Add 新增类别
func (h *CategoryHandler) Add(c *gin.Context) {
	var form forms.CategoryForm
	name, errs := form.Bind(c)
	if errs != nil {
		renderForm(c, "category_form.html", "Add category", &form, errs, nil)
		return
	}
	if _, err := h.ledger.CreateCategory(c.Request.Context(), name); err != nil {
		renderError(c, err, "create category failed")
		return
	}
	redirectWithFlash(c, "/categories/", "Category added successfully!")
}

// List 获取消费类别列表
// @Summary 获取消费类别列表
// @Description 全部消费类别，按 ID 排序
// @Tags 消费类别
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.Category} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	categories, err := h.ledger.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err, "list categories failed")
		return
	}
	Success(c, categories)
}
