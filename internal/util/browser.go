// Package util 启动后打开浏览器等辅助功能
package util

import (
	"errors"
	"os/exec"
	"runtime"
)

// 常见浏览器，主方式失败时依次尝试
var linuxBrowsers = []string{"google-chrome", "firefox", "chromium-browser", "sensible-browser"}

// browserCommand 返回指定系统下打开 url 的命令（名称与参数）
func browserCommand(goos, url string) (string, []string) {
	switch goos {
	case "windows":
		// rundll32 在 Windows 7 上比 cmd /c start 稳定
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	case "darwin":
		return "open", []string{url}
	default:
		return "xdg-open", []string{url}
	}
}

// fallbackCommands 主方式失败后的备选命令
func fallbackCommands(goos, url string) [][]string {
	switch goos {
	case "windows":
		return [][]string{{"explorer", url}}
	case "linux":
		out := make([][]string, 0, len(linuxBrowsers))
		for _, b := range linuxBrowsers {
			out = append(out, []string{b, url})
		}
		return out
	}
	return nil
}

// startCommand 启动进程但不等待退出
var startCommand = func(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// OpenBrowser 打开默认浏览器
func OpenBrowser(url string) error {
	name, args := browserCommand(runtime.GOOS, url)
	return startCommand(name, args...)
}

// OpenBrowserWithFallback 主方式失败时尝试备选方式，全部失败返回主方式的错误
func OpenBrowserWithFallback(url string) error {
	err := OpenBrowser(url)
	if err == nil {
		return nil
	}
	for _, c := range fallbackCommands(runtime.GOOS, url) {
		if startCommand(c[0], c[1:]...) == nil {
			return nil
		}
	}
	return errors.Join(errors.New("no browser could be started"), err)
}
