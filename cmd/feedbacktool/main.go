package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"feedbacktool/internal/api"
	"feedbacktool/internal/config"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:     "feedbacktool",
		Short:   "Feedback - 员工绩效反馈撰写工具",
		Version: api.Version,
		RunE:    runServe,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "配置文件路径 (默认为可执行文件目录下的 config.toml)")
	addServeFlags(rootCmd)

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(inspectCmd())
	rootCmd.AddCommand(historyCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig 加载配置，失败时退回默认配置
func loadConfig() (*config.AppConfig, config.LoadConfigInfo) {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, info, err := config.LoadConfigWithInfo(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败，使用默认配置: %v\n", err)
		return config.DefaultConfig(), config.LoadConfigInfo{Path: path}
	}
	return cfg, info
}

// setupLogger 安装全局日志器，返回的函数用于退出前刷新
func setupLogger(cfg *config.AppConfig) (func(), error) {
	logger, err := config.NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return func() { _ = logger.Sync() }, nil
}
