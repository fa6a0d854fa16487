// Package document 富文本草稿的文档模型：段落由带样式的文本片段组成。
//
// 编辑界面与导出器共用同一模型，所有修改都通过 Command 完成。
package document

import "strings"

// Style 文本样式
type Style struct {
	Bold      bool   `json:"bold,omitempty"`
	Italic    bool   `json:"italic,omitempty"`
	Underline bool   `json:"underline,omitempty"`
	Color     string `json:"color,omitempty"`
	Highlight string `json:"highlight,omitempty"`
}

// IsPlain 是否无任何样式
func (s Style) IsPlain() bool {
	return s == Style{}
}

// Run 同一样式的连续文本
type Run struct {
	Text  string `json:"text"`
	Style Style  `json:"style"`
}

// Paragraph 段落
type Paragraph struct {
	Runs []Run `json:"runs"`
	List bool  `json:"list,omitempty"`
}

// Text 段落纯文本
func (p Paragraph) Text() string {
	var b strings.Builder
	for _, r := range p.Runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

// Document 文档
type Document struct {
	Paragraphs []Paragraph `json:"paragraphs"`
}

// IsEmpty 文档是否没有任何可见文本
func (d *Document) IsEmpty() bool {
	return strings.TrimSpace(d.PlainText()) == ""
}

// PlainText 纯文本，段落之间以换行分隔
func (d *Document) PlainText() string {
	parts := make([]string, len(d.Paragraphs))
	for i, p := range d.Paragraphs {
		parts[i] = p.Text()
	}
	return strings.Join(parts, "\n")
}

// Fragments 去除样式后的非空段落文本（用于 DOCX）
func (d *Document) Fragments() []string {
	var out []string
	for _, p := range d.Paragraphs {
		if t := strings.TrimSpace(p.Text()); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// FromText 按换行拆分纯文本为段落
func FromText(text string) Document {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	doc := Document{Paragraphs: make([]Paragraph, 0, len(lines))}
	for _, line := range lines {
		doc.Paragraphs = append(doc.Paragraphs, newParagraph(line, Style{}))
	}
	return doc
}

func newParagraph(text string, style Style) Paragraph {
	if text == "" {
		return Paragraph{}
	}
	return Paragraph{Runs: []Run{{Text: text, Style: style}}}
}

// normalize 合并相邻同样式片段并去掉空片段
func (p *Paragraph) normalize() {
	out := p.Runs[:0]
	for _, r := range p.Runs {
		if r.Text == "" {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Style == r.Style {
			out[n-1].Text += r.Text
			continue
		}
		out = append(out, r)
	}
	p.Runs = out
}

// Clone 深拷贝
func (d *Document) Clone() Document {
	out := Document{Paragraphs: make([]Paragraph, len(d.Paragraphs))}
	for i, p := range d.Paragraphs {
		runs := make([]Run, len(p.Runs))
		copy(runs, p.Runs)
		out.Paragraphs[i] = Paragraph{Runs: runs, List: p.List}
	}
	return out
}
