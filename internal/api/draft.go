package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"feedbacktool/internal/apperror"
	"feedbacktool/internal/review"
)

// SetNotes 更新备注
// PUT /api/sessions/:id/notes
func (h *Handler) SetNotes(c *gin.Context) {
	var req NotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeBindError(c, err)
		return
	}
	if err := h.svc.SetNotes(c.Param("id"), req.Notes); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadAudio 上传录音（multipart 字段 audio）
// PUT /api/sessions/:id/audio
func (h *Handler) UploadAudio(c *gin.Context) {
	fh, err := c.FormFile("audio")
	if err != nil {
		h.writeError(c, review.ErrEmptyAudio)
		return
	}
	if h.maxAudioBytes > 0 && fh.Size > h.maxAudioBytes {
		h.writeError(c, review.ErrAudioTooLarge)
		return
	}
	limit := h.maxAudioBytes
	if limit <= 0 {
		limit = maxReportBytes
	}
	data, err := readUpload(fh, limit)
	if err != nil {
		h.writeError(c, apperror.Wrap(err, apperror.CodeInvalidInput, "Failed to read uploaded audio", http.StatusBadRequest))
		return
	}

	id := c.Param("id")
	if err := h.svc.SetAudio(id, data, fh.Header.Get("Content-Type")); err != nil {
		h.writeError(c, err)
		return
	}
	snap, err := h.svc.Session(id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// DeleteAudio 删除录音
// DELETE /api/sessions/:id/audio
func (h *Handler) DeleteAudio(c *gin.Context) {
	if err := h.svc.ClearAudio(c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Generate 生成反馈草稿
// POST /api/sessions/:id/generate
func (h *Handler) Generate(c *gin.Context) {
	draft, err := h.svc.Generate(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

// GetDraft 当前草稿
// GET /api/sessions/:id/draft
func (h *Handler) GetDraft(c *gin.Context) {
	draft, err := h.svc.Draft(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

// ReplaceDraft 以编辑器内容替换草稿
// PUT /api/sessions/:id/draft
func (h *Handler) ReplaceDraft(c *gin.Context) {
	var req DraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeBindError(c, err)
		return
	}
	draft, err := h.svc.ReplaceDraft(c.Param("id"), req.HTML)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

// ApplyCommand 执行编辑命令
// POST /api/sessions/:id/draft/commands
func (h *Handler) ApplyCommand(c *gin.Context) {
	var req CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeBindError(c, err)
		return
	}
	draft, err := h.svc.ApplyCommand(c.Param("id"), req.toCommand())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}
