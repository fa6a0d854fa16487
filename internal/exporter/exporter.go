package exporter

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"feedbacktool/internal/document"
)

// ErrExportFailed 导出失败（格式化或写出出错）
var ErrExportFailed = errors.New("export failed")

// ErrUnknownFormat 不支持的导出格式
var ErrUnknownFormat = errors.New("unknown export format")

// Format 导出格式
type Format string

const (
	FormatDOCX Format = "docx"
	FormatPDF  Format = "pdf"
	FormatHTML Format = "html"
)

// ParseFormat 解析导出格式
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatDOCX, FormatPDF, FormatHTML:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Extension 文件扩展名
func (f Format) Extension() string {
	return string(f)
}

// ContentType 下载时的 MIME 类型
func (f Format) ContentType() string {
	switch f {
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatPDF:
		return "application/pdf"
	default:
		return "text/html; charset=utf-8"
	}
}

// Input 导出内容
type Input struct {
	EmployeeName string
	Period       string
	TitlePrefix  string // 如 "Zpětná vazba"
	PeriodLabel  string // 如 "Období"
	Language     string // BCP 47 标签，用于 HTML lang
	Document     document.Document
}

// Title 标题行
func (in Input) Title() string {
	return in.TitlePrefix + ": " + in.EmployeeName
}

// PeriodLine 期间行
func (in Input) PeriodLine() string {
	return in.PeriodLabel + ": " + in.Period
}

// Options 导出器配置
type Options struct {
	PDFFontPath string // 可选 UTF-8 TTF 字体，未配置时使用内置字体
}

// Exporter 反馈文档导出器
type Exporter struct {
	opts   Options
	logger *zap.Logger
}

// NewExporter 创建导出器
func NewExporter(opts Options) *Exporter {
	return &Exporter{
		opts:   opts,
		logger: zap.L().Named("exporter"),
	}
}

// Export 按格式导出到 w
//
// 先写入内存，成功后再整体写出，失败时 w 不会收到任何字节。
func (e *Exporter) Export(w io.Writer, format Format, in Input, progress func(ProgressEvent)) (int64, error) {
	reportProgress(progress, 10, StagePrepare)

	var buf bytes.Buffer
	var err error
	switch format {
	case FormatDOCX:
		err = WriteDOCX(&buf, in)
	case FormatPDF:
		err = WritePDF(&buf, in, e.opts.PDFFontPath)
	case FormatHTML:
		err = WriteHTML(&buf, in)
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		e.logger.Warn("render failed", zap.String("format", string(format)), zap.Error(err))
		return 0, fmt.Errorf("%w: %s: %v", ErrExportFailed, format, err)
	}
	reportProgress(progress, 80, StageRender)

	n, err := io.Copy(w, &buf)
	if err != nil {
		return n, fmt.Errorf("%w: write: %v", ErrExportFailed, err)
	}
	reportProgress(progress, 100, StageDone)
	return n, nil
}
