package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetStatus 系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, StatusResponse{
		Version:      Version,
		Locales:      h.locales.Codes(),
		Default:      h.locales.Default().Code,
		Sessions:     h.svc.SessionCount(),
		AIConfigured: h.aiConfigured,
	})
}

// ListLocales 可用语言
// GET /api/locales
func (h *Handler) ListLocales(c *gin.Context) {
	codes := h.locales.Codes()
	out := make([]LocaleSummary, 0, len(codes))
	for _, code := range codes {
		loc, err := h.locales.Locale(code)
		if err != nil {
			continue
		}
		out = append(out, LocaleSummary{Code: loc.Code, Name: loc.Name, Tag: loc.Tag})
	}
	c.JSON(http.StatusOK, gin.H{"locales": out})
}

// GetLocale 完整字符串表
// GET /api/locales/:code
func (h *Handler) GetLocale(c *gin.Context) {
	loc, err := h.locales.Locale(c.Param("code"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, loc)
}
