package parser

import (
	"regexp"
	"strings"
	"time"

	"feedbacktool/internal/i18n"
	"feedbacktool/internal/model"
)

var (
	yearPattern      = regexp.MustCompile(`\d{4}`)
	dateRangePattern = regexp.MustCompile(`\d{1,2}\.\s*\d{1,2}\.\s*\d{4}`)
)

// ExtractPeriod 从报表前若干行中识别统计期间
//
// 逐行、逐列扫描，首个命中即返回：
//  1. 单元格（小写）包含月份名称：返回 "<月份> <年份>"，无年份时仅返回月份
//  2. 单元格包含 D.M.YYYY 形式的日期：原样返回匹配片段
//
// 均未命中时返回上一个自然月（按语言格式化）。
func ExtractPeriod(grid [][]model.Cell, loc *i18n.Locale, now time.Time) string {
	limit := len(grid)
	if limit > PeriodScanRows {
		limit = PeriodScanRows
	}

	for i := 0; i < limit; i++ {
		for _, cell := range grid[i] {
			text := strings.TrimSpace(cell.Raw)
			if text == "" {
				continue
			}

			lower := strings.ToLower(text)
			for _, month := range loc.Months {
				if strings.Contains(lower, month) {
					if year := yearPattern.FindString(text); year != "" {
						return month + " " + year
					}
					return month
				}
			}

			if m := dateRangePattern.FindString(text); m != "" {
				return m
			}
		}
	}

	return PreviousMonthLabel(loc, now)
}

// PreviousMonthLabel 上一个自然月的展示文本（上传文件前的默认期间）
func PreviousMonthLabel(loc *i18n.Locale, now time.Time) string {
	prev := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -1, 0)
	return loc.FormatPeriod(prev.Month(), prev.Year())
}
