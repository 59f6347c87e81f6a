package api

import (
	"fmt"
	"net/http"

	"expensetracker/forms"
	"expensetracker/middleware"
	"expensetracker/models"
	"expensetracker/service"

	"github.com/gin-gonic/gin"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypePDF  = "application/pdf"
)

// ReportHandler 区间报表处理器
type ReportHandler struct {
	ledger *service.Ledger
}

// NewReportHandler 创建报表处理器
func NewReportHandler(ledger *service.Ledger) *ReportHandler {
	return &ReportHandler{ledger: ledger}
}

func rangeForm(w service.Window) *forms.DateRangeForm {
	return &forms.DateRangeForm{
		StartDate: w.Start.Format(models.DateLayout),
		EndDate:   w.End.Format(models.DateLayout),
	}
}

// Page 报表页，默认最近窗口
func (h *ReportHandler) Page(c *gin.Context) {
	w := h.ledger.DefaultWindow()
	h.renderReport(c, w, rangeForm(w), nil)
}

// Submit 提交日期区间；区间无效时保留默认窗口并标注错误
func (h *ReportHandler) Submit(c *gin.Context) {
	var form forms.DateRangeForm
	w := h.ledger.DefaultWindow()
	start, end, errs := form.Bind(c)
	if errs == nil {
		win, err := service.NewWindow(start, end)
		if err != nil {
			errs = forms.FieldErrors{"end_date": "End date must be on or after the start date."}
		} else {
			w = win
		}
	}
	h.renderReport(c, w, &form, errs)
}

func (h *ReportHandler) renderReport(c *gin.Context, w service.Window, form *forms.DateRangeForm, errs forms.FieldErrors) {
	report, err := h.ledger.Report(c.Request.Context(), middleware.GetCurrentUserID(c), w)
	if err != nil {
		renderError(c, err, "build report failed")
		return
	}
	renderForm(c, "reports.html", "Reports", form, errs, gin.H{"report": report})
}

// windowFromQuery start_date/end_date 都为空时使用默认窗口
func (h *ReportHandler) windowFromQuery(c *gin.Context) (service.Window, forms.FieldErrors) {
	if c.Query("start_date") == "" && c.Query("end_date") == "" {
		return h.ledger.DefaultWindow(), nil
	}
	var form forms.DateRangeForm
	start, end, errs := form.Bind(c)
	if errs != nil {
		return service.Window{}, errs
	}
	w, err := service.NewWindow(start, end)
	if err != nil {
		return service.Window{}, forms.FieldErrors{"end_date": "End date must be on or after the start date."}
	}
	return w, nil
}

// Get 获取区间报表
// @Summary 获取区间报表
// @Description 区间内收支合计、分类占比、按日汇总与最近交易；不传日期时为最近窗口
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Param start_date query string false "开始日期 (YYYY-MM-DD)"
// @Param end_date query string false "结束日期 (YYYY-MM-DD)"
// @Success 200 {object} Response{data=service.Report} "获取成功"
// @Failure 400 {object} Response{data=forms.FieldErrors} "日期区间无效"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/reports [get]
func (h *ReportHandler) Get(c *gin.Context) {
	w, errs := h.windowFromQuery(c)
	if errs != nil {
		ValidationError(c, errs)
		return
	}
	report, err := h.ledger.Report(c.Request.Context(), middleware.GetCurrentUserID(c), w)
	if err != nil {
		respondError(c, err, "build report failed")
		return
	}
	Success(c, report)
}

// ExportXLSX 导出 Excel
func (h *ReportHandler) ExportXLSX(c *gin.Context) {
	h.export(c, "xlsx", contentTypeXLSX, service.ReportWorkbook)
}

// ExportPDF 导出 PDF
func (h *ReportHandler) ExportPDF(c *gin.Context) {
	font := h.ledger.Settings().PDFFont
	h.export(c, "pdf", contentTypePDF, func(r *service.Report, username string) ([]byte, error) {
		return service.ReportPDF(r, username, font)
	})
}

func (h *ReportHandler) export(c *gin.Context, ext, contentType string, build func(*service.Report, string) ([]byte, error)) {
	w, errs := h.windowFromQuery(c)
	if errs != nil {
		render(c, http.StatusBadRequest, "error.html", "Bad Request", gin.H{"message": errs.Error()})
		return
	}
	report, err := h.ledger.Report(c.Request.Context(), middleware.GetCurrentUserID(c), w)
	if err != nil {
		renderError(c, err, "build report failed")
		return
	}
	data, err := build(report, middleware.GetCurrentUsername(c))
	if err != nil {
		renderError(c, err, "export report failed")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", service.ReportFilename(w, ext)))
	c.Data(http.StatusOK, contentType, data)
}
