package parser

import (
	"errors"

	"feedbacktool/internal/model"
)

const (
	// ReportSheetName 报表所在工作表（固定名称）
	ReportSheetName = "User Performance"
	// HeaderToken 表头行识别标记
	HeaderToken = "Full name"
	// PeriodScanRows 期间识别最多扫描的行数
	PeriodScanRows = 15
)

var (
	ErrUnreadableFile = errors.New("unreadable spreadsheet")
	ErrSheetNotFound  = errors.New("sheet not found")
	ErrEmptyFile      = errors.New("empty file")
)

// 取整规则：实际工时列四舍五入为整数，完成率列乘 100 后四舍五入
var (
	roundedColumns = map[string]bool{
		model.HeaderHardwareActual: true,
		model.HeaderServicesActual: true,
	}
	percentColumns = map[string]bool{
		model.HeaderHardwareFill: true,
		model.HeaderServicesFill: true,
	}
)
