// Package apperror 定义带 HTTP 状态码与错误码的应用错误
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError 应用错误
type AppError struct {
	Code       string // 错误码，如 MISSING_HEADERS
	Message    string // 面向用户的提示
	HTTPStatus int
	Details    any   // 可选的结构化详情
	Err        error // 被包装的原始错误
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap 支持 errors.Is / errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails 返回附带详情的副本
func (e *AppError) WithDetails(details any) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

// New 创建不包装原始错误的 AppError
func New(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap 包装已有错误，err 为 nil 时返回 nil
func Wrap(err error, code, message string, httpStatus int) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// As 提取错误链中的 AppError，未找到时包装为内部错误
func As(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, CodeInternalError, "An unexpected error occurred", http.StatusInternalServerError)
}
