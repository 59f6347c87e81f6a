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

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ListResponse 列表响应结构，total 为全部记录金额合计
type ListResponse struct {
	Count int         `json:"count"`
	Total string      `json:"total"`
	List  interface{} `json:"list"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    200,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    201,
		Message: message,
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

// Unauthorized 401 错误响应
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message)
}

// InternalError 500 错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}

// NotFound 404 错误响应
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// ValidationError 400 响应，data 为字段级错误
func ValidationError(c *gin.Context, errs forms.FieldErrors) {
	c.JSON(http.StatusBadRequest, Response{
		Code:    http.StatusBadRequest,
		Message: "validation failed",
		Data:    errs,
	})
}

// respondError 将领域错误映射为 JSON 响应
func respondError(c *gin.Context, err error, fallback string) {
	var fe forms.FieldErrors
	switch {
	case errors.As(err, &fe):
		ValidationError(c, fe)
	case errors.Is(err, service.ErrNotFound):
		NotFound(c, "not found")
	case errors.Is(err, service.ErrInvertedWindow):
		ValidationError(c, forms.FieldErrors{"end_date": "End date must be on or after the start date."})
	case errors.Is(err, service.ErrGroupSettled):
		Error(c, http.StatusConflict, err.Error())
	default:
		logger.Log.WithError(err).WithField("request_id", middleware.GetRequestID(c)).Error(fallback)
		InternalError(c, SafeErrorMessage(err, fallback))
	}
}
