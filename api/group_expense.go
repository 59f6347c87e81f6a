package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"expensetracker/forms"
	"expensetracker/middleware"
	"expensetracker/models"
	"expensetracker/service"

	"github.com/gin-gonic/gin"
)

// GroupExpenseHandler 群组消费处理器，只有创建者能查看与管理
type GroupExpenseHandler struct {
	ledger *service.Ledger
}

// NewGroupExpenseHandler 创建群组消费处理器
func NewGroupExpenseHandler(ledger *service.Ledger) *GroupExpenseHandler {
	return &GroupExpenseHandler{ledger: ledger}
}

// GroupExpenseRequest 创建群组消费请求
type GroupExpenseRequest struct {
	Title         string `json:"title" example:"周末聚餐"`
	TotalAmount   string `json:"total_amount" example:"100.00"`
	Date          string `json:"date" example:"2024-03-15"`
	AdvancedBy    int    `json:"advanced_by" example:"1"`
	AdvanceAmount string `json:"advance_amount" example:"40.00"`
}

// GroupMemberRequest 添加成员请求
type GroupMemberRequest struct {
	User        int    `json:"user" example:"2"`
	ShareAmount string `json:"share_amount" example:"25.00"`
}

// GroupListResponse 群组消费列表响应
type GroupListResponse struct {
	Summary service.GroupSummary  `json:"summary"`
	List    []models.GroupExpense `json:"list"`
}

func paramID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, service.ErrNotFound
	}
	return uint(id), nil
}

func groupURL(id uint) string {
	return fmt.Sprintf("/group-expenses/%d/", id)
}

// Page 群组消费列表
func (h *GroupExpenseHandler) Page(c *gin.Context) {
	groups, summary, err := h.ledger.ListGroupExpenses(c.Request.Context(), middleware.GetCurrentUserID(c))
	if err != nil {
		renderError(c, err, "list group expenses failed")
		return
	}
	render(c, http.StatusOK, "group_expenses.html", "Group expenses", gin.H{
		"groups":  groups,
		"summary": summary,
	})
}

func (h *GroupExpenseHandler) AddPage(c *gin.Context) {
	h.renderForm(c, &forms.GroupExpenseForm{}, nil)
}

// Add 提交新增群组消费，创建者为当前用户
func (h *GroupExpenseHandler) Add(c *gin.Context) {
	var form forms.GroupExpenseForm
	data, errs := form.Bind(c, h.ledger.Today())
	if errs != nil {
		h.renderForm(c, &form, errs)
		return
	}
	if _, err := h.ledger.CreateGroupExpense(c.Request.Context(), middleware.GetCurrentUserID(c), data); err != nil {
		if fe, ok := fieldErrors(err); ok {
			h.renderForm(c, &form, fe)
			return
		}
		renderError(c, err, "create group expense failed")
		return
	}
	redirectWithFlash(c, "/group-expenses/", "Group expense added successfully!")
}

func (h *GroupExpenseHandler) renderForm(c *gin.Context, form *forms.GroupExpenseForm, errs forms.FieldErrors) {
	users, err := h.ledger.Users(c.Request.Context())
	if err != nil {
		renderError(c, err, "list users failed")
		return
	}
	renderForm(c, "group_expense_form.html", "Add group expense", form, errs, gin.H{"users": users})
}

// Detail 群组详情与成员
func (h *GroupExpenseHandler) Detail(c *gin.Context) {
	h.renderDetail(c, &forms.GroupMemberForm{}, nil)
}

func (h *GroupExpenseHandler) renderDetail(c *gin.Context, form *forms.GroupMemberForm, errs forms.FieldErrors) {
	id, err := paramID(c, "id")
	if err != nil {
		renderError(c, err, "")
		return
	}
	group, err := h.ledger.GroupExpense(c.Request.Context(), middleware.GetCurrentUserID(c), id)
	if err != nil {
		renderError(c, err, "load group expense failed")
		return
	}
	users, err := h.ledger.Users(c.Request.Context())
	if err != nil {
		renderError(c, err, "list users failed")
		return
	}
	renderForm(c, "group_expense_detail.html", group.Title, form, errs, gin.H{
		"group": group,
		"users": users,
	})
}

// AddMember 添加成员；已结清的群组不再接受新成员
func (h *GroupExpenseHandler) AddMember(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		renderError(c, err, "")
		return
	}
	var form forms.GroupMemberForm
	data, errs := form.Bind(c)
	if errs != nil {
		h.renderDetail(c, &form, errs)
		return
	}
	_, err = h.ledger.AddGroupMember(c.Request.Context(), middleware.GetCurrentUserID(c), id, data)
	switch {
	case err == nil:
		redirectWithFlash(c, groupURL(id), "Member added successfully!")
	case errors.Is(err, service.ErrGroupSettled):
		middleware.AddFlash(c, "error", "This group expense is settled and cannot take new members.")
		c.Redirect(http.StatusFound, groupURL(id))
	default:
		if fe, ok := fieldErrors(err); ok {
			h.renderDetail(c, &form, fe)
			return
		}
		renderError(c, err, "add group member failed")
	}
}

// MarkPaid 标记成员已付款
func (h *GroupExpenseHandler) MarkPaid(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		renderError(c, err, "")
		return
	}
	memberID, err := paramID(c, "member_id")
	if err != nil {
		renderError(c, err, "")
		return
	}
	if err := h.ledger.MarkMemberPaid(c.Request.Context(), middleware.GetCurrentUserID(c), id, memberID); err != nil {
		renderError(c, err, "mark member paid failed")
		return
	}
	redirectWithFlash(c, groupURL(id), "Member marked as paid.")
}

// Settle 结清群组
func (h *GroupExpenseHandler) Settle(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		renderError(c, err, "")
		return
	}
	if err := h.ledger.SettleGroupExpense(c.Request.Context(), middleware.GetCurrentUserID(c), id); err != nil {
		renderError(c, err, "settle group expense failed")
		return
	}
	redirectWithFlash(c, groupURL(id), "Group expense settled.")
}

// List 获取群组消费列表
// @Summary 获取群组消费列表
// @Description 当前用户创建的群组消费，按日期倒序，附带垫付合计、总额合计与进行中数量
// @Tags 群组消费
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=GroupListResponse} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/group-expenses [get]
func (h *GroupExpenseHandler) List(c *gin.Context) {
	groups, summary, err := h.ledger.ListGroupExpenses(c.Request.Context(), middleware.GetCurrentUserID(c))
	if err != nil {
		respondError(c, err, "list group expenses failed")
		return
	}
	Success(c, GroupListResponse{Summary: summary, List: groups})
}

// Create 创建群组消费
// @Summary 创建群组消费
// @Description 创建群组消费，创建者为当前登录用户，状态为 active
// @Tags 群组消费
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body GroupExpenseRequest true "群组消费信息"
// @Success 201 {object} Response{data=models.GroupExpense} "创建成功"
// @Failure 400 {object} Response{data=forms.FieldErrors} "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/group-expenses [post]
func (h *GroupExpenseHandler) Create(c *gin.Context) {
	var form forms.GroupExpenseForm
	data, errs := form.Bind(c, h.ledger.Today())
	if errs != nil {
		ValidationError(c, errs)
		return
	}
	group, err := h.ledger.CreateGroupExpense(c.Request.Context(), middleware.GetCurrentUserID(c), data)
	if err != nil {
		respondError(c, err, "create group expense failed")
		return
	}
	Created(c, "创建成功", group)
}

// Get 获取群组消费详情
// @Summary 获取群组消费详情
// @Description 群组消费及其成员，仅创建者可见
// @Tags 群组消费
// @Produce json
// @Security BearerAuth
// @Param id path int true "群组消费ID"
// @Success 200 {object} Response{data=models.GroupExpense} "获取成功"
// @Failure 404 {object} Response "不存在"
// @Router /api/v1/group-expenses/{id} [get]
func (h *GroupExpenseHandler) Get(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		respondError(c, err, "")
		return
	}
	group, err := h.ledger.GroupExpense(c.Request.Context(), middleware.GetCurrentUserID(c), id)
	if err != nil {
		respondError(c, err, "load group expense failed")
		return
	}
	Success(c, group)
}

// CreateMember 添加群组成员
// @Summary 添加群组成员
// @Description 为进行中的群组添加成员及其分摊金额，同一用户只能加入一次
// @Tags 群组消费
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "群组消费ID"
// @Param request body GroupMemberRequest true "成员信息"
// @Success 201 {object} Response{data=models.GroupMember} "添加成功"
// @Failure 400 {object} Response{data=forms.FieldErrors} "请求参数错误"
// @Failure 404 {object} Response "不存在"
// @Failure 409 {object} Response "群组已结清"
// @Router /api/v1/group-expenses/{id}/members [post]
func (h *GroupExpenseHandler) CreateMember(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		respondError(c, err, "")
		return
	}
	var form forms.GroupMemberForm
	data, errs := form.Bind(c)
	if errs != nil {
		ValidationError(c, errs)
		return
	}
	member, err := h.ledger.AddGroupMember(c.Request.Context(), middleware.GetCurrentUserID(c), id, data)
	if err != nil {
		respondError(c, err, "add group member failed")
		return
	}
	Created(c, "添加成功", member)
}
