package model

import (
	"encoding/json"
	"strconv"
)

// 报表列名（固定字面量，与源表头逐字一致）
const (
	HeaderFullName       = "Full name"
	HeaderHardwareTarget = "ASR/Hrs Target"
	HeaderHardwareActual = "ASR/Hrs"
	HeaderHardwareFill   = "ASR/Hrs Fill"
	HeaderServicesTarget = "ASR Services/Hrs Target"
	HeaderServicesActual = "ASR_Services/Hrs"
	HeaderServicesFill   = "ASR Services/Hrs Fill"
)

// RequiredHeaders 必需表头（有序）
var RequiredHeaders = []string{
	HeaderFullName,
	HeaderHardwareTarget,
	HeaderHardwareActual,
	HeaderHardwareFill,
	HeaderServicesTarget,
	HeaderServicesActual,
	HeaderServicesFill,
}

// ValueKind 单元格取值类型
type ValueKind string

const (
	ValueText   ValueKind = "text"
	ValueNumber ValueKind = "number"
)

// MetricValue 指标值：数值或原样保留的文本
type MetricValue struct {
	Kind   ValueKind
	Number float64
	Text   string
}

// NumberValue 构造数值
func NumberValue(v float64) MetricValue {
	return MetricValue{Kind: ValueNumber, Number: v}
}

// TextValue 构造文本值
func TextValue(s string) MetricValue {
	return MetricValue{Kind: ValueText, Text: s}
}

// IsNumber 是否为数值
func (v MetricValue) IsNumber() bool {
	return v.Kind == ValueNumber
}

// String 展示用文本
func (v MetricValue) String() string {
	if v.IsNumber() {
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	}
	return v.Text
}

// MarshalJSON 数值输出为 JSON number，其余输出为 JSON string
func (v MetricValue) MarshalJSON() ([]byte, error) {
	if v.IsNumber() {
		return json.Marshal(v.Number)
	}
	return json.Marshal(v.Text)
}

// UnmarshalJSON 接受 number 或 string
func (v *MetricValue) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*v = NumberValue(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*v = TextValue(s)
	return nil
}

// EmployeeMetrics 员工绩效指标（每个有效数据行一条）
type EmployeeMetrics struct {
	FullName       string      `json:"Full name"`
	HardwareTarget MetricValue `json:"ASR/Hrs Target"`
	HardwareActual MetricValue `json:"ASR/Hrs"`
	HardwareFill   MetricValue `json:"ASR/Hrs Fill"`
	ServicesTarget MetricValue `json:"ASR Services/Hrs Target"`
	ServicesActual MetricValue `json:"ASR_Services/Hrs"`
	ServicesFill   MetricValue `json:"ASR Services/Hrs Fill"`
}

// Value 按表头名取值，未知表头返回 false
func (e EmployeeMetrics) Value(header string) (MetricValue, bool) {
	switch header {
	case HeaderFullName:
		return TextValue(e.FullName), true
	case HeaderHardwareTarget:
		return e.HardwareTarget, true
	case HeaderHardwareActual:
		return e.HardwareActual, true
	case HeaderHardwareFill:
		return e.HardwareFill, true
	case HeaderServicesTarget:
		return e.ServicesTarget, true
	case HeaderServicesActual:
		return e.ServicesActual, true
	case HeaderServicesFill:
		return e.ServicesFill, true
	}
	return MetricValue{}, false
}

// Set 按表头名赋值
func (e *EmployeeMetrics) Set(header string, v MetricValue) bool {
	switch header {
	case HeaderFullName:
		e.FullName = v.String()
	case HeaderHardwareTarget:
		e.HardwareTarget = v
	case HeaderHardwareActual:
		e.HardwareActual = v
	case HeaderHardwareFill:
		e.HardwareFill = v
	case HeaderServicesTarget:
		e.ServicesTarget = v
	case HeaderServicesActual:
		e.ServicesActual = v
	case HeaderServicesFill:
		e.ServicesFill = v
	default:
		return false
	}
	return true
}
