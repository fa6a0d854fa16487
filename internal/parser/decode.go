package parser

import (
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"feedbacktool/internal/model"
)

// hasSheet 工作簿中是否存在指定名称的工作表
func hasSheet(f *excelize.File, name string) bool {
	for _, s := range f.GetSheetList() {
		if s == name {
			return true
		}
	}
	return false
}

// decodeSheet 读取工作表为单元格网格
//
// 读取原始值（不套用数字格式），并按单元格类型区分数值与文本：
// 未标注类型或标注为数值、且原始值可解析为浮点数的单元格视为数值。
func decodeSheet(f *excelize.File, sheet string) ([][]model.Cell, error) {
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	grid := make([][]model.Cell, len(rows))
	for r, row := range rows {
		cells := make([]model.Cell, len(row))
		for c, raw := range row {
			cells[c] = decodeCell(f, sheet, r, c, raw)
		}
		grid[r] = cells
	}
	return grid, nil
}

func decodeCell(f *excelize.File, sheet string, r, c int, raw string) model.Cell {
	if raw == "" {
		return model.TextCell("")
	}
	axis, err := excelize.CoordinatesToCellName(c+1, r+1)
	if err != nil {
		return model.TextCell(raw)
	}
	typ, err := f.GetCellType(sheet, axis)
	if err != nil {
		return model.TextCell(raw)
	}
	if typ == excelize.CellTypeBool {
		return model.TextCell(formatBool(raw))
	}
	if typ != excelize.CellTypeUnset && typ != excelize.CellTypeNumber {
		return model.TextCell(raw)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return model.TextCell(raw)
	}
	return model.NumberCell(formatNumber(v), v)
}

// formatBool 布尔单元格按表格软件的显示形式输出
func formatBool(raw string) string {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "1", "TRUE":
		return "TRUE"
	case "0", "FALSE":
		return "FALSE"
	}
	return raw
}
