// Package api 提供审阅服务的 HTTP 接口
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"feedbacktool/internal/i18n"
	"feedbacktool/internal/metrics"
	"feedbacktool/internal/review"
)

// Version 服务版本
const Version = "1.0.0"

// 上传报表的大小上限
const maxReportBytes = 32 << 20

// Options 处理器依赖
type Options struct {
	Service       *review.Service
	Locales       i18n.Localizer
	Metrics       *metrics.Manager // 可为 nil
	AIConfigured  bool
	MaxAudioBytes int64
	DownloadTTL   time.Duration
	RatePerMinute int // 生成接口每个 IP 每分钟次数，<= 0 表示不限
}

// Handler API 处理器
type Handler struct {
	svc           *review.Service
	locales       i18n.Localizer
	metrics       *metrics.Manager
	aiConfigured  bool
	maxAudioBytes int64
	downloadTTL   time.Duration
	downloads     *downloadStore
	generateLimit gin.HandlerFunc
	logger        *zap.Logger
}

// NewHandler 创建 API 处理器
func NewHandler(opts Options) *Handler {
	h := &Handler{
		svc:           opts.Service,
		locales:       opts.Locales,
		metrics:       opts.Metrics,
		aiConfigured:  opts.AIConfigured,
		maxAudioBytes: opts.MaxAudioBytes,
		downloadTTL:   opts.DownloadTTL,
		downloads:     newDownloadStore(),
		logger:        zap.L().Named("api.handler"),
	}
	if h.downloadTTL <= 0 {
		h.downloadTTL = 10 * time.Minute
	}
	if opts.RatePerMinute > 0 {
		h.generateLimit = RateLimitByIP(rate.Every(time.Minute/time.Duration(opts.RatePerMinute)), opts.RatePerMinute, opts.Metrics)
	} else {
		h.generateLimit = func(c *gin.Context) { c.Next() }
	}
	return h
}

// RegisterRoutes 注册 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)
	router.GET("/locales", h.ListLocales)
	router.GET("/locales/:code", h.GetLocale)

	// 会话
	router.POST("/sessions", h.CreateSession)
	router.GET("/sessions/:id", h.GetSession)
	router.DELETE("/sessions/:id", h.DeleteSession)
	router.PATCH("/sessions/:id/locale", h.SetLocale)

	// 报表与员工
	router.POST("/sessions/:id/report", h.UploadReport)
	router.GET("/sessions/:id/employees", h.ListEmployees)
	router.POST("/sessions/:id/selection", h.SelectEmployee)

	// 生成输入
	router.PUT("/sessions/:id/notes", h.SetNotes)
	router.PUT("/sessions/:id/audio", h.UploadAudio)
	router.DELETE("/sessions/:id/audio", h.DeleteAudio)

	// 生成与编辑
	router.POST("/sessions/:id/generate", h.generateLimit, h.Generate)
	router.GET("/sessions/:id/draft", h.GetDraft)
	router.PUT("/sessions/:id/draft", h.ReplaceDraft)
	router.POST("/sessions/:id/draft/commands", h.ApplyCommand)

	// 导出
	router.POST("/sessions/:id/export/:format", h.Export)
	router.POST("/sessions/:id/export/:format/stream", h.ExportStream)
	router.GET("/export/download/:token", h.DownloadExport)
}
