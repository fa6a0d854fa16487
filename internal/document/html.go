package document

import (
	"html"
	"io"
	"regexp"
	"strings"

	xhtml "golang.org/x/net/html"
)

var (
	whitespace   = regexp.MustCompile(`\s+`)
	colorPattern = regexp.MustCompile(`^(#[0-9a-fA-F]{3,8}|rgba?\(\s*\d{1,3}\s*,\s*\d{1,3}\s*,\s*\d{1,3}\s*(,\s*[0-9.]+\s*)?\)|[a-zA-Z]{3,20})$`)
)

// SanitizeColor 仅接受 #hex、rgb()/rgba() 与颜色名，其余返回空串
func SanitizeColor(v string) string {
	v = strings.TrimSpace(v)
	if !colorPattern.MatchString(v) {
		return ""
	}
	return strings.ToLower(v)
}

type styleFrame struct {
	tag    string
	mutate func(*Style)
	style  Style
}

type htmlBuilder struct {
	doc     Document
	current Paragraph
	stack   []styleFrame
}

func (b *htmlBuilder) style() Style {
	if n := len(b.stack); n > 0 {
		return b.stack[n-1].style
	}
	return Style{}
}

func (b *htmlBuilder) push(tag string, mutate func(*Style)) {
	s := b.style()
	mutate(&s)
	b.stack = append(b.stack, styleFrame{tag: tag, mutate: mutate, style: s})
}

// pop 移除最近一个同名标签，错位嵌套时其上各层样式重新计算
func (b *htmlBuilder) pop(tag string) {
	for i := len(b.stack) - 1; i >= 0; i-- {
		if b.stack[i].tag != tag {
			continue
		}
		b.stack = append(b.stack[:i], b.stack[i+1:]...)
		var s Style
		if i > 0 {
			s = b.stack[i-1].style
		}
		for j := i; j < len(b.stack); j++ {
			b.stack[j].mutate(&s)
			b.stack[j].style = s
		}
		return
	}
}

// flush 结束当前段落；force 为 true 时空段落也保留（<br> 产生的空行）
func (b *htmlBuilder) flush(force bool) {
	b.current.normalize()
	if len(b.current.Runs) > 0 || force {
		b.doc.Paragraphs = append(b.doc.Paragraphs, b.current)
	}
	b.current = Paragraph{}
}

func (b *htmlBuilder) text(raw string) {
	t := whitespace.ReplaceAllString(raw, " ")
	if len(b.current.Runs) == 0 {
		t = strings.TrimLeft(t, " ")
	}
	if t == "" {
		return
	}
	b.current.Runs = append(b.current.Runs, Run{Text: t, Style: b.style()})
}

func (b *htmlBuilder) startTag(name string, attrs map[string]string) {
	switch name {
	case "br":
		b.flush(true)
	case "p", "div", "ul", "ol":
		b.flush(false)
	case "li":
		b.flush(false)
		b.current.List = true
	case "b", "strong":
		b.push(name, func(s *Style) { s.Bold = true })
	case "i", "em":
		b.push(name, func(s *Style) { s.Italic = true })
	case "u":
		b.push(name, func(s *Style) { s.Underline = true })
	case "mark":
		b.push(name, func(s *Style) { s.Highlight = "yellow" })
	case "font":
		color := SanitizeColor(attrs["color"])
		b.push(name, func(s *Style) {
			if color != "" {
				s.Color = color
			}
		})
	case "span":
		decl := parseInlineStyle(attrs["style"])
		b.push(name, func(s *Style) {
			if c := SanitizeColor(decl["color"]); c != "" {
				s.Color = c
			}
			if c := SanitizeColor(decl["background-color"]); c != "" {
				s.Highlight = c
			}
			if w := decl["font-weight"]; w == "bold" || w == "700" {
				s.Bold = true
			}
			if decl["font-style"] == "italic" {
				s.Italic = true
			}
			if strings.Contains(decl["text-decoration"], "underline") {
				s.Underline = true
			}
		})
	}
}

func (b *htmlBuilder) endTag(name string) {
	switch name {
	case "p", "div", "li", "ul", "ol":
		b.flush(false)
	case "b", "strong", "i", "em", "u", "mark", "font", "span":
		b.pop(name)
	}
}

// parseInlineStyle 解析 style 属性为小写的声明表
func parseInlineStyle(v string) map[string]string {
	out := make(map[string]string)
	for _, decl := range strings.Split(v, ";") {
		k, val, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		out[strings.ToLower(strings.TrimSpace(k))] = strings.ToLower(strings.TrimSpace(val))
	}
	return out
}

// ParseHTML 将编辑器 HTML 解析为文档
//
// 识别 br/p/div/ul/ol/li 作为段落边界，b/strong/i/em/u/mark/font/span 作为样式；
// 其余标签丢弃，仅保留文本。
func ParseHTML(src string) Document {
	b := &htmlBuilder{}
	z := xhtml.NewTokenizer(strings.NewReader(src))

	for {
		tt := z.Next()
		switch tt {
		case xhtml.ErrorToken:
			if z.Err() == io.EOF {
				b.flush(false)
			}
			b.doc.trimTrailingEmpty()
			return b.doc
		case xhtml.TextToken:
			b.text(string(z.Text()))
		case xhtml.StartTagToken, xhtml.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			attrs := make(map[string]string)
			for hasAttr {
				var k, v []byte
				k, v, hasAttr = z.TagAttr()
				attrs[string(k)] = string(v)
			}
			b.startTag(string(name), attrs)
			if tt == xhtml.SelfClosingTagToken {
				b.endTag(string(name))
			}
		case xhtml.EndTagToken:
			name, _ := z.TagName()
			b.endTag(string(name))
		}
	}
}

func (d *Document) trimTrailingEmpty() {
	for n := len(d.Paragraphs); n > 0 && len(d.Paragraphs[n-1].Runs) == 0; n-- {
		d.Paragraphs = d.Paragraphs[:n-1]
	}
}

// HTML 渲染为编辑器 HTML：普通段落以 <br> 分隔，列表段落放入 <ul>
func (d *Document) HTML() string {
	var sb strings.Builder
	inList := false
	prevText := false

	for _, p := range d.Paragraphs {
		if p.List {
			if !inList {
				sb.WriteString("<ul>")
				inList = true
			}
			sb.WriteString("<li>")
			writeRuns(&sb, p.Runs)
			sb.WriteString("</li>")
			prevText = false
			continue
		}
		if inList {
			sb.WriteString("</ul>")
			inList = false
		}
		if prevText {
			sb.WriteString("<br>")
		}
		writeRuns(&sb, p.Runs)
		prevText = true
	}
	if inList {
		sb.WriteString("</ul>")
	}
	return sb.String()
}

func writeRuns(sb *strings.Builder, runs []Run) {
	for _, r := range runs {
		sb.WriteString(renderRun(r))
	}
}

func renderRun(r Run) string {
	out := html.EscapeString(r.Text)
	s := r.Style
	if s.Underline {
		out = "<u>" + out + "</u>"
	}
	if s.Italic {
		out = "<i>" + out + "</i>"
	}
	if s.Bold {
		out = "<b>" + out + "</b>"
	}
	var decl []string
	if s.Color != "" {
		decl = append(decl, "color: "+s.Color)
	}
	if s.Highlight != "" {
		decl = append(decl, "background-color: "+s.Highlight)
	}
	if len(decl) > 0 {
		out = `<span style="` + strings.Join(decl, "; ") + `">` + out + "</span>"
	}
	return out
}
