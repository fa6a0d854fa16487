package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"feedbacktool/internal/server"
	"feedbacktool/internal/util"
)

var (
	servePort      int
	serveDev       bool
	serveDataDir   string
	serveNoBrowser bool
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务",
		RunE:  runServe,
	}
	addServeFlags(cmd)
	return cmd
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&servePort, "port", 0, "服务端口 (config.toml 优先；仅当未显式配置 port 时生效)")
	cmd.Flags().BoolVar(&serveDev, "dev", false, "开发模式")
	cmd.Flags().StringVar(&serveDataDir, "data-dir", "", "数据目录 (覆盖配置文件)")
	cmd.Flags().BoolVar(&serveNoBrowser, "no-browser", false, "启动后不打开浏览器")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, info := loadConfig()

	// 命令行参数覆盖配置
	if servePort > 0 && !info.PortSpecified {
		cfg.Server.Port = servePort
	}
	if serveDev {
		cfg.Server.DevMode = true
	}
	if serveDataDir != "" {
		cfg.Data.DataDir = serveDataDir
	}
	if serveNoBrowser {
		cfg.Server.OpenBrowser = false
	}

	flush, err := setupLogger(cfg)
	if err != nil {
		return err
	}
	defer flush()
	logger := zap.L().Named("main")
	logger.Info("config loaded", zap.String("path", info.Path), zap.Bool("found", info.FileFound))

	srv, err := server.NewServer(cfg)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	defer srv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	url := fmt.Sprintf("http://localhost:%d", cfg.Server.Port)

	if cfg.Server.OpenBrowser && !cfg.Server.DevMode {
		logger.Info("opening browser", zap.String("url", url))
		if err := util.OpenBrowserWithFallback(url); err != nil {
			logger.Warn("cannot open browser, visit manually", zap.String("url", url), zap.Error(err))
		}
	} else {
		logger.Info("visit", zap.String("url", url))
	}

	return srv.Run(ctx, addr)
}
