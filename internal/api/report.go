package api

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"feedbacktool/internal/apperror"
	"feedbacktool/internal/parser"
)

// UploadReport 上传绩效报表
// POST /api/sessions/:id/report
//
// 200 返回记录与期间；表头校验失败返回 422，details 中附带识别到的期间。
func (h *Handler) UploadReport(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		h.writeError(c, apperror.RequiredField("file"))
		return
	}
	if fh.Size > maxReportBytes {
		h.writeError(c, apperror.New(apperror.CodeInvalidInput, "The report file is too large", http.StatusRequestEntityTooLarge))
		return
	}
	data, err := readUpload(fh, maxReportBytes)
	if err != nil {
		h.writeError(c, apperror.Wrap(err, apperror.CodeInvalidInput, "Failed to read uploaded file", http.StatusBadRequest))
		return
	}

	out, err := h.svc.LoadReport(c.Param("id"), fh.Filename, data)
	if err != nil {
		if ve, ok := parser.IsValidationError(err); ok && out != nil {
			appErr := toAppError(err).WithDetails(gin.H{
				"kind":     ve.Kind,
				"missing":  ve.Missing,
				"expected": ve.Expected,
				"found":    ve.Found,
				"period":   out.Period,
			})
			h.writeError(c, appErr)
			return
		}
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// ListEmployees 按姓名筛选员工
// GET /api/sessions/:id/employees?q=
func (h *Handler) ListEmployees(c *gin.Context) {
	entries, err := h.svc.Employees(c.Param("id"), c.Query("q"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"employees": entries, "total": len(entries)})
}

// SelectEmployee 选择员工
// POST /api/sessions/:id/selection
func (h *Handler) SelectEmployee(c *gin.Context) {
	var req SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeBindError(c, err)
		return
	}
	snap, err := h.svc.Select(c.Param("id"), *req.Index)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func readUpload(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("upload exceeds %d bytes", limit)
	}
	return data, nil
}
