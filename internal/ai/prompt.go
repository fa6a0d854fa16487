package ai

import (
	"fmt"
	"strings"

	"feedbacktool/internal/model"
)

var languageNames = map[string]string{
	"cs": "Czech",
	"sk": "Slovak",
	"hu": "Hungarian",
}

// LanguageName 语言代码对应的提示词语言名
func LanguageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return "Czech"
}

const systemInstruction = `You are an experienced team lead in a retail sales organisation.
You write constructive, specific performance feedback for individual sales associates
using the Nonviolent Communication (NVC) model: observation, feelings, needs, request.
Write plain text only. Do not use Markdown, asterisks or headings with # characters.`

// BuildPrompt 构造单个员工的用户提示词
func BuildPrompt(req Request) string {
	e := req.Employee
	var b strings.Builder

	fmt.Fprintf(&b, "Write a performance review for %s for the period %s.\n", e.FullName, req.Period)
	fmt.Fprintf(&b, "Write the whole review in %s.\n\n", LanguageName(req.Locale))

	b.WriteString("Metrics from the performance report:\n")
	writeMetric(&b, "Products (hardware) – target ASR/Hrs", e.HardwareTarget, "")
	writeMetric(&b, "Products (hardware) – actual ASR/Hrs", e.HardwareActual, "")
	writeMetric(&b, "Products (hardware) – fill", e.HardwareFill, "%")
	writeMetric(&b, "Services – target ASR/Hrs", e.ServicesTarget, "")
	writeMetric(&b, "Services – actual ASR/Hrs", e.ServicesActual, "")
	writeMetric(&b, "Services – fill", e.ServicesFill, "%")

	if notes := strings.TrimSpace(req.Notes); notes != "" {
		b.WriteString("\nNotes from the team lead:\n")
		b.WriteString(notes)
		b.WriteString("\n")
	}
	if req.HasAudio() {
		b.WriteString("\nA voice memo from the team lead is attached. Use what is said in it as additional context.\n")
	}

	b.WriteString(`
Structure the review as:
1. A short overall comment on the period.
2. NVC feedback: observation based on the numbers, feelings, needs, a concrete request.
3. Praise: what went well.
4. Development: what to improve.
5. Goals for the next period as a short list, one goal per line starting with "- ".
`)
	return b.String()
}

func writeMetric(b *strings.Builder, label string, v model.MetricValue, unit string) {
	s := v.String()
	if s == "" {
		s = "n/a"
	} else if v.IsNumber() {
		s += unit
	}
	fmt.Fprintf(b, "- %s: %s\n", label, s)
}
