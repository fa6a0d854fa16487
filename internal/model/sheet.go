package model

// Cell 解码后的单元格
type Cell struct {
	Raw     string  `json:"raw"`              // 原始文本（数值单元格为最短十进制表示）
	Numeric bool    `json:"numeric"`          // 源单元格是否为数值
	Number  float64 `json:"number,omitempty"` // Numeric 为 true 时有效
}

// TextCell 构造文本单元格
func TextCell(s string) Cell {
	return Cell{Raw: s}
}

// NumberCell 构造数值单元格
func NumberCell(raw string, v float64) Cell {
	return Cell{Raw: raw, Numeric: true, Number: v}
}

// Value 转换为指标值
func (c Cell) Value() MetricValue {
	if c.Numeric {
		return NumberValue(c.Number)
	}
	return TextValue(c.Raw)
}

// RowTexts 行内所有单元格的原始文本
func RowTexts(row []Cell) []string {
	out := make([]string, len(row))
	for i, c := range row {
		out[i] = c.Raw
	}
	return out
}
