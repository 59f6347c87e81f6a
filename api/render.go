package api

import (
	"errors"
	"net/http"

	"expensetracker/forms"
	"expensetracker/logger"
	"expensetracker/middleware"
	"expensetracker/service"

	"github.com/gin-gonic/gin"
)

// render 渲染页面，补齐布局需要的公共数据
func render(c *gin.Context, status int, name, title string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["title"] = title
	data["username"] = middleware.GetCurrentUsername(c)
	data["flashes"] = middleware.GetFlashes(c)
	if _, ok := data["errors"]; !ok {
		data["errors"] = forms.FieldErrors{}
	}
	c.HTML(status, name, data)
}

// renderForm 渲染表单页；有错误时返回 422
func renderForm(c *gin.Context, name, title string, form interface{}, errs forms.FieldErrors, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	status := http.StatusOK
	if len(errs) > 0 {
		status = http.StatusUnprocessableEntity
	} else {
		errs = forms.FieldErrors{}
	}
	data["form"] = form
	data["errors"] = errs
	render(c, status, name, title, data)
}

// renderError 渲染错误页
func renderError(c *gin.Context, err error, fallback string) {
	if errors.Is(err, service.ErrNotFound) {
		render(c, http.StatusNotFound, "error.html", "Not Found", gin.H{"message": "The requested page was not found."})
		return
	}
	logger.Log.WithError(err).WithField("request_id", middleware.GetRequestID(c)).Error(fallback)
	render(c, http.StatusInternalServerError, "error.html", "Error", gin.H{"message": SafeErrorMessage(err, fallback)})
}

// redirectWithFlash 成功提示后重定向，避免刷新重复提交
func redirectWithFlash(c *gin.Context, location, message string) {
	middleware.AddFlash(c, "success", message)
	c.Redirect(http.StatusFound, location)
}

func fieldErrors(err error) (forms.FieldErrors, bool) {
	var fe forms.FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
