package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// AppConfig 应用配置
type AppConfig struct {
	Server  ServerConfig  `toml:"server"`
	Data    DataConfig    `toml:"data"`
	Log     LogConfig     `toml:"log"`
	Locale  LocaleConfig  `toml:"locale"`
	AI      AIConfig      `toml:"ai"`
	Export  ExportConfig  `toml:"export"`
	Session SessionConfig `toml:"session"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port        int  `toml:"port"`
	DevMode     bool `toml:"dev_mode"`
	OpenBrowser bool `toml:"open_browser"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir string `toml:"data_dir"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `toml:"level"`
}

// LocaleConfig 语言配置
type LocaleConfig struct {
	Default string `toml:"default"`
}

// AIConfig 反馈生成服务配置
type AIConfig struct {
	Provider       string `toml:"provider"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxAudioBytes  int64  `toml:"max_audio_bytes"`
	RatePerMinute  int    `toml:"rate_per_minute"`
}

// ExportConfig 导出配置
type ExportConfig struct {
	PDFFontPath        string `toml:"pdf_font_path"`
	DownloadTTLMinutes int    `toml:"download_ttl_minutes"`
}

// SessionConfig 会话配置
type SessionConfig struct {
	IdleTTLMinutes int `toml:"idle_ttl_minutes"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path          string
	FileFound     bool
	PortSpecified bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:        20262,
			DevMode:     false,
			OpenBrowser: true,
		},
		Data: DataConfig{
			DataDir: "data",
		},
		Log: LogConfig{
			Level: "info",
		},
		Locale: LocaleConfig{
			Default: "cs",
		},
		AI: AIConfig{
			Provider:       "gemini",
			Model:          "gemini-2.5-flash",
			BaseURL:        "https://generativelanguage.googleapis.com/v1beta",
			TimeoutSeconds: 90,
			MaxAudioBytes:  20 << 20,
			RatePerMinute:  6,
		},
		Export: ExportConfig{
			DownloadTTLMinutes: 10,
		},
		Session: SessionConfig{
			IdleTTLMinutes: 720,
		},
	}
}

// AITimeout 单次生成请求超时
func (c *AppConfig) AITimeout() time.Duration {
	return time.Duration(c.AI.TimeoutSeconds) * time.Second
}

// DownloadTTL 导出下载令牌有效期
func (c *AppConfig) DownloadTTL() time.Duration {
	return time.Duration(c.Export.DownloadTTLMinutes) * time.Minute
}

// SessionTTL 会话空闲过期时间
func (c *AppConfig) SessionTTL() time.Duration {
	return time.Duration(c.Session.IdleTTLMinutes) * time.Minute
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// DefaultPath 默认配置文件路径（可执行文件同目录下的 config.toml）
func DefaultPath() string {
	exeDir, err := GetExeDir()
	if err != nil {
		// 无法获取可执行文件目录，使用当前目录
		exeDir = "."
	}
	return filepath.Join(exeDir, "config.toml")
}

// LoadConfigWithInfo 从 config.toml 加载配置并返回元信息，path 为空时使用默认路径
func LoadConfigWithInfo(path string) (*AppConfig, LoadConfigInfo, error) {
	if path == "" {
		path = DefaultPath()
	}
	info := LoadConfigInfo{Path: path}
	config := DefaultConfig()

	// .env 仅补充未设置的环境变量
	_ = godotenv.Load(filepath.Join(filepath.Dir(path), ".env"))

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		info.FileFound = true
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, err
		}
	case os.IsNotExist(err):
		// 配置文件不存在，使用默认配置
	default:
		return nil, info, err
	}

	applyEnv(config, &info)
	return config, info, nil
}

// applyEnv 环境变量覆盖
func applyEnv(config *AppConfig, info *LoadConfigInfo) {
	if v := os.Getenv("FEEDBACK_AI_API_KEY"); v != "" {
		config.AI.APIKey = v
	} else if config.AI.APIKey == "" {
		config.AI.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if v := os.Getenv("FEEDBACK_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			config.Server.Port = port
			info.PortSpecified = true
		}
	}
	if v := os.Getenv("FEEDBACK_DATA_DIR"); v != "" {
		config.Data.DataDir = v
	}
	if v := os.Getenv("FEEDBACK_PDF_FONT"); v != "" {
		config.Export.PDFFontPath = v
	}
}

// LoadConfig 从默认路径加载配置
func LoadConfig() (*AppConfig, error) {
	config, _, err := LoadConfigWithInfo("")
	return config, err
}

// SaveConfig 保存配置到 path
func SaveConfig(config *AppConfig, path string) error {
	if path == "" {
		path = DefaultPath()
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// EnsureDataDir 确保数据目录存在
// 相对路径以可执行文件所在目录为基准
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := resolveDataDir(config)

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}

	// 创建子目录
	subdirs := []string{FontsDir}
	for _, subdir := range subdirs {
		path := filepath.Join(dataDir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", err
		}
	}

	return dataDir, nil
}

// FontsDir 数据目录下放置 PDF 字体的子目录
const FontsDir = "fonts"

// ResolvePDFFont 显式配置优先，否则取字体目录中的第一个 .ttf，均无时返回空串
func ResolvePDFFont(config *AppConfig) string {
	if config.Export.PDFFontPath != "" {
		return config.Export.PDFFontPath
	}
	matches, err := filepath.Glob(filepath.Join(resolveDataDir(config), FontsDir, "*.ttf"))
	if err != nil || len(matches) == 0 {
		return ""
	}
	return matches[0]
}

// GetDataPath 获取数据文件路径
func GetDataPath(config *AppConfig, subdir, filename string) string {
	return filepath.Join(resolveDataDir(config), subdir, filename)
}

func resolveDataDir(config *AppConfig) string {
	if filepath.IsAbs(config.Data.DataDir) {
		return config.Data.DataDir
	}
	exeDir, err := GetExeDir()
	if err != nil || exeDir == "" {
		exeDir = "."
	}
	return filepath.Join(exeDir, config.Data.DataDir)
}
