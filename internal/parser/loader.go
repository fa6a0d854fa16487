package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"feedbacktool/internal/i18n"
	"feedbacktool/internal/model"
)

// Loader 绩效报表加载器
type Loader struct {
	locale *i18n.Locale
	now    func() time.Time
}

// NewLoader 创建加载器，locale 决定期间识别使用的月份名称
func NewLoader(locale *i18n.Locale) *Loader {
	return &Loader{
		locale: locale,
		now:    time.Now,
	}
}

// SetClock 替换当前时间来源（期间兜底值依赖当前日期）
func (l *Loader) SetClock(now func() time.Time) {
	l.now = now
}

// LoadReader 从 reader 加载报表
func (l *Loader) LoadReader(r io.Reader) (*model.LoadResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	return l.Load(data)
}

// Load 解析报表字节流
//
// 校验失败（*model.ValidationError）时仍返回仅含 Period 的结果，
// 以便表头异常时期间依然可以展示。
func (l *Loader) Load(data []byte) (*model.LoadResult, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	defer f.Close()

	if !hasSheet(f, ReportSheetName) {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, ReportSheetName)
	}

	grid, err := decodeSheet(f, ReportSheetName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}

	return l.LoadGrid(grid)
}

// LoadGrid 对已解码的网格执行期间识别、表头定位、校验与记录提取
func (l *Loader) LoadGrid(grid [][]model.Cell) (*model.LoadResult, error) {
	if len(grid) == 0 {
		return nil, ErrEmptyFile
	}

	// 期间识别先于表头校验
	result := &model.LoadResult{
		SheetName: ReportSheetName,
		Period:    ExtractPeriod(grid, l.locale, l.now()),
	}

	headerIdx := -1
	for i, row := range grid {
		if rowHasToken(row, HeaderToken) {
			headerIdx = i
			break
		}
	}

	if headerIdx == -1 {
		found := []string{}
		for _, row := range grid {
			if rowHasContent(row) {
				found = model.RowTexts(row)
				break
			}
		}
		return result, &model.ValidationError{
			Kind:     model.ValidationHeaderNotFound,
			Missing:  []string{l.locale.T("headerNotFound")},
			Expected: requiredHeaders(),
			Found:    found,
		}
	}

	headers := trimmedRow(grid[headerIdx])

	var missing []string
	for _, h := range model.RequiredHeaders {
		if indexOf(headers, h) == -1 {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return result, &model.ValidationError{
			Kind:     model.ValidationMissingHeaders,
			Missing:  missing,
			Expected: requiredHeaders(),
			Found:    headers,
		}
	}

	colIndex := make(map[string]int, len(model.RequiredHeaders))
	for _, h := range model.RequiredHeaders {
		colIndex[h] = indexOf(headers, h)
	}
	nameIdx := colIndex[model.HeaderFullName]

	employees := make([]model.EmployeeMetrics, 0, len(grid)-headerIdx-1)
	for _, row := range grid[headerIdx+1:] {
		if nameIdx >= len(row) || strings.TrimSpace(row[nameIdx].Raw) == "" {
			continue
		}
		employees = append(employees, buildRecord(row, colIndex))
	}

	result.HeaderRow = headerIdx + 1
	result.Employees = employees
	return result, nil
}

// buildRecord 按必需表头逐列取值
func buildRecord(row []model.Cell, colIndex map[string]int) model.EmployeeMetrics {
	var emp model.EmployeeMetrics
	for _, h := range model.RequiredHeaders {
		cell := model.TextCell("")
		if idx := colIndex[h]; idx < len(row) {
			cell = row[idx]
		}
		if h == model.HeaderFullName {
			emp.FullName = strings.TrimSpace(cell.Raw)
			continue
		}
		emp.Set(h, normalizeValue(h, cell))
	}
	return emp
}

func requiredHeaders() []string {
	out := make([]string, len(model.RequiredHeaders))
	copy(out, model.RequiredHeaders)
	return out
}

// IsValidationError 判断是否为表头校验错误
func IsValidationError(err error) (*model.ValidationError, bool) {
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
