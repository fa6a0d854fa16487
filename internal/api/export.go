package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"feedbacktool/internal/apperror"
	"feedbacktool/internal/exporter"
	"feedbacktool/internal/review"
)

type exportProgressEvent struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Export 导出当前草稿，返回一次性下载地址
// POST /api/sessions/:id/export/:format
func (h *Handler) Export(c *gin.Context) {
	format, err := exporter.ParseFormat(c.Param("format"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	res, err := h.svc.Export(c.Param("id"), format, nil)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.publish(res))
}

// ExportStream 导出（SSE 推送进度，完成后提供下载地址）
// POST /api/sessions/:id/export/:format/stream
func (h *Handler) ExportStream(c *gin.Context) {
	format, err := exporter.ParseFormat(c.Param("format"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	id := c.Param("id")
	if _, err := h.svc.Session(id); err != nil {
		h.writeError(c, err)
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		h.writeError(c, apperror.New(apperror.CodeInternalError, "Streaming is not supported", http.StatusInternalServerError))
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	send := func(event exportProgressEvent) {
		b, err := json.Marshal(event)
		if err != nil {
			return
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", b)
		flusher.Flush()
	}

	send(exportProgressEvent{
		Type:      "start",
		Message:   "export started",
		Data:      gin.H{"format": format},
		Timestamp: time.Now(),
	})

	progress := exporter.DedupeProgress(func(p exporter.ProgressEvent) {
		send(exportProgressEvent{
			Type:      "progress",
			Message:   p.Stage,
			Data:      p,
			Timestamp: time.Now(),
		})
	})

	res, err := h.svc.Export(id, format, progress)
	if err != nil {
		appErr := toAppError(err)
		send(exportProgressEvent{
			Type:      "error",
			Message:   appErr.Message,
			Data:      gin.H{"code": appErr.Code},
			Timestamp: time.Now(),
		})
		return
	}

	out := h.publish(res)
	send(exportProgressEvent{
		Type:      "done",
		Message:   "export finished",
		Data:      gin.H{"percent": 100, "downloadUrl": out.DownloadURL, "filename": out.FileName},
		Timestamp: time.Now(),
	})
}

// publish 登记一次性下载
func (h *Handler) publish(res *review.ExportResult) ExportResponse {
	token := h.downloads.put(download{
		fileName:    res.FileName,
		contentType: res.ContentType,
		data:        res.Data,
	}, h.downloadTTL)
	return ExportResponse{
		DownloadURL: "/api/export/download/" + token,
		FileName:    res.FileName,
		Size:        len(res.Data),
	}
}

// DownloadExport 下载导出文件（一次性）
// GET /api/export/download/:token
func (h *Handler) DownloadExport(c *gin.Context) {
	item, ok := h.downloads.take(c.Param("token"))
	if !ok {
		h.writeError(c, apperror.New(apperror.CodeNotFound, "Download link has expired", http.StatusNotFound))
		return
	}
	c.Header("Content-Disposition", exporter.ContentDisposition(item.fileName))
	c.Data(http.StatusOK, item.contentType, item.data)
}
