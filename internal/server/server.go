package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"feedbacktool/internal/ai"
	"feedbacktool/internal/api"
	"feedbacktool/internal/apperror"
	"feedbacktool/internal/config"
	"feedbacktool/internal/exporter"
	"feedbacktool/internal/i18n"
	"feedbacktool/internal/metrics"
	"feedbacktool/internal/review"
	"feedbacktool/internal/store"
)

//go:embed all:static
var staticFiles embed.FS

// 过期会话清理周期
const purgeInterval = time.Minute

// Server HTTP服务器
type Server struct {
	router  *gin.Engine
	store   *store.Store
	service *review.Service
	metrics *metrics.Manager
	logger  *zap.Logger
}

// NewServer 创建服务器
func NewServer(cfg *config.AppConfig) (*Server, error) {
	logger := zap.L().Named("server")
	devMode := cfg.Server.DevMode
	if !devMode {
		gin.SetMode(gin.ReleaseMode)
	}
	apperror.Init()

	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("prepare data dir: %w", err)
	}
	sqliteStore, err := store.New(filepath.Join(dataDir, "feedback.db"))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	catalog, err := i18n.LoadCatalog(cfg.Locale.Default)
	if err != nil {
		sqliteStore.Close()
		return nil, err
	}

	if cfg.AI.Provider != "" && cfg.AI.Provider != "gemini" {
		sqliteStore.Close()
		return nil, fmt.Errorf("unsupported ai provider %q", cfg.AI.Provider)
	}
	gemini := ai.NewGeminiClient(ai.GeminiOptions{
		APIKey:  cfg.AI.APIKey,
		BaseURL: cfg.AI.BaseURL,
		Model:   cfg.AI.Model,
		Timeout: cfg.AITimeout(),
	})
	if !gemini.Configured() {
		logger.Warn("ai api key not set, generation will fail until configured")
	}

	fontPath := config.ResolvePDFFont(cfg)
	if fontPath == "" {
		logger.Info("no pdf font configured, using core font")
	}

	m := metrics.NewManager()
	svc := review.NewService(review.Options{
		Sessions:      review.NewMemoryStore(cfg.SessionTTL()),
		Locales:       catalog,
		Generator:     gemini,
		Exporter:      exporter.NewExporter(exporter.Options{PDFFontPath: fontPath}),
		Audit:         sqliteStore,
		Metrics:       m,
		MaxAudioBytes: cfg.AI.MaxAudioBytes,
		Timeout:       cfg.AITimeout(),
	})
	handler := api.NewHandler(api.Options{
		Service:       svc,
		Locales:       catalog,
		Metrics:       m,
		AIConfigured:  gemini.Configured(),
		MaxAudioBytes: cfg.AI.MaxAudioBytes,
		DownloadTTL:   cfg.DownloadTTL(),
		RatePerMinute: cfg.AI.RatePerMinute,
	})

	s := &Server{
		router:  gin.New(),
		store:   sqliteStore,
		service: svc,
		metrics: m,
		logger:  logger,
	}
	s.setupRoutes(handler, devMode)
	return s, nil
}

// setupRoutes 设置路由
func (s *Server) setupRoutes(handler *api.Handler, devMode bool) {
	s.router.Use(gin.Recovery(), api.RequestID(), api.RequestLogger(), api.Metrics(s.metrics))

	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Accept-Language, X-Request-ID")
		c.Header("Access-Control-Expose-Headers", "Content-Disposition, X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	handler.RegisterRoutes(s.router.Group("/api"))
	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	if devMode {
		// 开发模式：代理到前端开发服务器
		s.router.NoRoute(func(c *gin.Context) {
			c.Redirect(http.StatusTemporaryRedirect, "http://localhost:5173"+c.Request.URL.Path)
		})
		return
	}

	sub, _ := fs.Sub(staticFiles, "static")
	s.router.GET("/favicon.svg", func(c *gin.Context) {
		data, err := fs.ReadFile(sub, "favicon.svg")
		if err != nil {
			c.Status(http.StatusNotFound)
			return
		}
		c.Data(http.StatusOK, "image/svg+xml", data)
	})
	index := func(c *gin.Context) {
		data, _ := fs.ReadFile(sub, "index.html")
		c.Data(http.StatusOK, "text/html; charset=utf-8", data)
	}
	s.router.GET("/", index)
	s.router.NoRoute(index)
}

// Handler 返回 HTTP 处理器（测试用）
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run 启动服务器，ctx 取消后优雅关闭
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go s.purgeLoop(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server running", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	return nil
}

func (s *Server) purgeLoop(ctx context.Context) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.service.PurgeExpired(); n > 0 {
				s.logger.Info("expired sessions purged", zap.Int("count", n))
			}
		}
	}
}

// Close 释放资源
func (s *Server) Close() error {
	return s.store.Close()
}

// GetStore 获取存储（用于测试）
func (s *Server) GetStore() *store.Store {
	return s.store
}
