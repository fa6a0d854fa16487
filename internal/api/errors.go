package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"feedbacktool/internal/ai"
	"feedbacktool/internal/apperror"
	"feedbacktool/internal/document"
	"feedbacktool/internal/exporter"
	"feedbacktool/internal/i18n"
	"feedbacktool/internal/model"
	"feedbacktool/internal/parser"
	"feedbacktool/internal/review"
)

// ErrorResponse 错误响应体
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// errorMapping 哨兵错误到 AppError 的映射，按顺序匹配
var errorMapping = []struct {
	target error
	code   string
	msg    string
	status int
}{
	{review.ErrSessionNotFound, apperror.CodeNotFound, "Session not found or expired", http.StatusNotFound},
	{i18n.ErrUnknownLocale, apperror.CodeUnknownLocale, "Unsupported locale", http.StatusBadRequest},
	{parser.ErrSheetNotFound, apperror.CodeSheetNotFound, "Sheet \"" + parser.ReportSheetName + "\" not found", http.StatusBadRequest},
	{parser.ErrEmptyFile, apperror.CodeEmptyFile, "The report is empty", http.StatusBadRequest},
	{parser.ErrUnreadableFile, apperror.CodeUnreadableFile, "The file could not be read as a spreadsheet", http.StatusBadRequest},
	{review.ErrEmployeeOutOfRange, apperror.CodeInvalidInput, "Employee index out of range", http.StatusBadRequest},
	{review.ErrNoEmployeeSelected, apperror.CodeNoEmployee, "No employee selected", http.StatusBadRequest},
	{review.ErrNoDraft, apperror.CodeNoDraft, "There is no feedback to export", http.StatusBadRequest},
	{review.ErrEmptyAudio, apperror.CodeInvalidInput, "Audio recording is empty", http.StatusBadRequest},
	{review.ErrAudioTooLarge, apperror.CodeAudioTooLarge, "Audio recording is too large", http.StatusRequestEntityTooLarge},
	{review.ErrGenerationInProgress, apperror.CodeGenerationBusy, "Feedback generation is already running", http.StatusConflict},
	{ai.ErrNotConfigured, apperror.CodeAINotConfigured, "AI generator is not configured", http.StatusServiceUnavailable},
	{review.ErrGenerationFailed, apperror.CodeGenerationFailed, "Feedback generation failed", http.StatusBadGateway},
	{document.ErrInvalidCommand, apperror.CodeInvalidCommand, "Invalid editing command", http.StatusBadRequest},
	{exporter.ErrUnknownFormat, apperror.CodeInvalidInput, "Unsupported export format", http.StatusBadRequest},
	{exporter.ErrExportFailed, apperror.CodeExportFailed, "Export failed", http.StatusInternalServerError},
}

// toAppError 将服务层错误转换为 AppError
func toAppError(err error) *apperror.AppError {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		code := apperror.CodeMissingHeaders
		if ve.Kind == model.ValidationHeaderNotFound {
			code = apperror.CodeHeaderNotFound
		}
		return apperror.Wrap(err, code, ve.Error(), http.StatusUnprocessableEntity).WithDetails(ve)
	}
	for _, m := range errorMapping {
		if errors.Is(err, m.target) {
			return apperror.Wrap(err, m.code, m.msg, m.status)
		}
	}
	return apperror.As(err)
}

// writeError 输出错误响应，5xx 记录为 Error，其余为 Warn
func (h *Handler) writeError(c *gin.Context, err error) {
	appErr := toAppError(err)
	fields := []zap.Field{
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", appErr.HTTPStatus),
		zap.String("code", appErr.Code),
		zap.Error(err),
	}
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		h.logger.Error("request failed", fields...)
	} else {
		h.logger.Warn("request failed", fields...)
	}
	c.AbortWithStatusJSON(appErr.HTTPStatus, ErrorResponse{
		Error:   appErr.Message,
		Code:    appErr.Code,
		Details: appErr.Details,
	})
}

// writeBindError 输出请求绑定/校验错误
func (h *Handler) writeBindError(c *gin.Context, err error) {
	h.writeError(c, apperror.MapValidationError(err))
}
