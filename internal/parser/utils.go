package parser

import (
	"math"
	"strconv"
	"strings"

	"feedbacktool/internal/model"
)

// roundHalfUp 四舍五入（.5 向正无穷方向进位）
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

// normalizeValue 按列规则转换单元格值，非数值原样保留
func normalizeValue(header string, c model.Cell) model.MetricValue {
	if !c.Numeric {
		return model.TextValue(c.Raw)
	}
	switch {
	case roundedColumns[header]:
		return model.NumberValue(roundHalfUp(c.Number))
	case percentColumns[header]:
		return model.NumberValue(roundHalfUp(c.Number * 100))
	}
	return model.NumberValue(c.Number)
}

// trimmedRow 去除每个单元格首尾空白
func trimmedRow(row []model.Cell) []string {
	out := make([]string, len(row))
	for i, c := range row {
		out[i] = strings.TrimSpace(c.Raw)
	}
	return out
}

// indexOf 返回 name 在 headers 中首次出现的位置
func indexOf(headers []string, name string) int {
	for i, h := range headers {
		if h == name {
			return i
		}
	}
	return -1
}

// rowHasToken 行内是否存在修剪后等于 token 的单元格
func rowHasToken(row []model.Cell, token string) bool {
	for _, c := range row {
		if strings.TrimSpace(c.Raw) == token {
			return true
		}
	}
	return false
}

// rowHasContent 行内是否存在非空单元格
func rowHasContent(row []model.Cell) bool {
	for _, c := range row {
		if c.Raw != "" {
			return true
		}
	}
	return false
}

// formatNumber 数值的最短十进制表示
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
