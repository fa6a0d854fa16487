package model

import "strings"

// ValidationKind 校验失败类型
type ValidationKind string

const (
	ValidationHeaderNotFound ValidationKind = "header_not_found"
	ValidationMissingHeaders ValidationKind = "missing_headers"
)

// ValidationError 报表校验错误（仅用于展示，不自动重试）
type ValidationError struct {
	Kind     ValidationKind `json:"kind"`
	Missing  []string       `json:"missing"`
	Expected []string       `json:"expected"`
	Found    []string       `json:"found"`
}

// Error 实现 error 接口
func (e *ValidationError) Error() string {
	switch e.Kind {
	case ValidationHeaderNotFound:
		return "header row not found"
	default:
		return "missing required headers: " + strings.Join(e.Missing, ", ")
	}
}

// LoadResult 报表加载结果
type LoadResult struct {
	SheetName string            `json:"sheetName"`
	HeaderRow int               `json:"headerRow"` // 1-based
	Period    string            `json:"period"`
	Employees []EmployeeMetrics `json:"employees"`
}
