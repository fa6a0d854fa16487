package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CreateSession 创建审阅会话
// POST /api/sessions
func (h *Handler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.writeBindError(c, err)
			return
		}
	}

	snap, err := h.svc.CreateSession(req.Locale, c.GetHeader("Accept-Language"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, snap)
}

// GetSession 会话快照
// GET /api/sessions/:id
func (h *Handler) GetSession(c *gin.Context) {
	snap, err := h.svc.Session(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// DeleteSession 结束会话
// DELETE /api/sessions/:id
func (h *Handler) DeleteSession(c *gin.Context) {
	if err := h.svc.DeleteSession(c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetLocale 切换会话语言
// PATCH /api/sessions/:id/locale
func (h *Handler) SetLocale(c *gin.Context) {
	var req SetLocaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeBindError(c, err)
		return
	}
	snap, err := h.svc.SetLocale(c.Param("id"), req.Locale)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}
