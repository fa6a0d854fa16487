package api

import "feedbacktool/internal/document"

// CreateSessionRequest 创建会话，locale 为空时按 Accept-Language 协商
type CreateSessionRequest struct {
	Locale string `json:"locale" binding:"omitempty,len=2"`
}

// SetLocaleRequest 切换语言
type SetLocaleRequest struct {
	Locale string `json:"locale" binding:"required,len=2"`
}

// SelectRequest 选择员工（报表中的序号）
type SelectRequest struct {
	Index *int `json:"index" binding:"required,min=0"`
}

// NotesRequest 备注
type NotesRequest struct {
	Notes string `json:"notes" binding:"max=20000"`
}

// DraftRequest 以 HTML 替换草稿
type DraftRequest struct {
	HTML string `json:"html"`
}

// CommandRequest 编辑命令，区间为 [start, end)
type CommandRequest struct {
	Name  string `json:"name" binding:"required,oneof=bold italic underline color highlight list clear"`
	Start int    `json:"start" binding:"min=0"`
	End   int    `json:"end" binding:"min=0"`
	Value string `json:"value"`
}

func (r CommandRequest) toCommand() document.Command {
	return document.Command{Name: r.Name, Start: r.Start, End: r.End, Value: r.Value}
}

// LocaleSummary 语言列表项
type LocaleSummary struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Tag  string `json:"tag"`
}

// StatusResponse 系统状态
type StatusResponse struct {
	Version      string   `json:"version"`
	Locales      []string `json:"locales"`
	Default      string   `json:"defaultLocale"`
	Sessions     int      `json:"sessions"`
	AIConfigured bool     `json:"aiConfigured"`
}

// ExportResponse 导出结果
type ExportResponse struct {
	DownloadURL string `json:"downloadUrl"`
	FileName    string `json:"filename"`
	Size        int    `json:"size"`
}
