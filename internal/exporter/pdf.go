package exporter

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"

	"feedbacktool/internal/document"
)

const (
	pdfMargin     = 20.0
	pdfLineHeight = 6.0
	pdfBodySize   = 11.0
	pdfUTF8Family = "feedback"
	pdfCoreFamily = "Helvetica"
)

type rgb struct{ r, g, b int }

var (
	pdfTitleColor  = rgb{0x16, 0x65, 0x34}
	pdfPeriodColor = rgb{0x6b, 0x72, 0x80}
	pdfRuleColor   = rgb{0xe5, 0xe7, 0xeb}
	pdfBodyColor   = rgb{0x11, 0x18, 0x27}
)

var namedColors = map[string]rgb{
	"black":  {0, 0, 0},
	"white":  {255, 255, 255},
	"red":    {255, 0, 0},
	"green":  {0, 128, 0},
	"blue":   {0, 0, 255},
	"yellow": {255, 255, 0},
	"orange": {255, 165, 0},
	"purple": {128, 0, 128},
	"gray":   {128, 128, 128},
	"grey":   {128, 128, 128},
	"navy":   {0, 0, 128},
	"maroon": {128, 0, 0},
	"teal":   {0, 128, 128},
}

// parseColor 解析 SanitizeColor 接受的颜色写法
func parseColor(v string) (rgb, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	if c, ok := namedColors[v]; ok {
		return c, true
	}
	if strings.HasPrefix(v, "#") {
		hex := v[1:]
		if len(hex) == 3 {
			hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
		}
		if len(hex) != 6 {
			return rgb{}, false
		}
		n, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return rgb{}, false
		}
		return rgb{int(n >> 16 & 0xff), int(n >> 8 & 0xff), int(n & 0xff)}, true
	}
	if open := strings.IndexByte(v, '('); open > 0 && strings.HasSuffix(v, ")") {
		parts := strings.Split(v[open+1:len(v)-1], ",")
		if len(parts) < 3 {
			return rgb{}, false
		}
		var c [3]int
		for i := 0; i < 3; i++ {
			n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
			if err != nil {
				return rgb{}, false
			}
			c[i] = max(0, min(n, 255))
		}
		return rgb{c[0], c[1], c[2]}, true
	}
	return rgb{}, false
}

// toWinAnsi 将文本转换为内置字体使用的 cp1252 编码；
// 无法编码的字符先去掉附加符号再尝试（č → c），仍失败则替换为 "?"
func toWinAnsi(s string) string {
	var b strings.Builder
	for _, r := range s {
		if c, ok := charmap.Windows1252.EncodeRune(r); ok {
			b.WriteByte(c)
			continue
		}
		folded := false
		for _, base := range norm.NFD.String(string(r)) {
			if c, ok := charmap.Windows1252.EncodeRune(base); ok && base < 0x300 {
				b.WriteByte(c)
				folded = true
				break
			}
		}
		if !folded {
			b.WriteByte('?')
		}
	}
	return b.String()
}

type pdfWriter struct {
	pdf    *fpdf.Fpdf
	family string
	text   func(string) string
}

func newPDFWriter(fontPath string) (*pdfWriter, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)

	pw := &pdfWriter{pdf: pdf, family: pdfCoreFamily, text: toWinAnsi}
	if fontPath != "" {
		ttf, err := os.ReadFile(fontPath)
		if err != nil {
			return nil, fmt.Errorf("read pdf font: %w", err)
		}
		// 同一字体文件注册全部样式，粗体/斜体由字体本身决定
		for _, style := range []string{"", "B", "I", "BI"} {
			pdf.AddUTF8FontFromBytes(pdfUTF8Family, style, ttf)
		}
		pw.family = pdfUTF8Family
		pw.text = func(s string) string { return s }
	}
	return pw, nil
}

func (pw *pdfWriter) setColor(c rgb) {
	pw.pdf.SetTextColor(c.r, c.g, c.b)
}

// WritePDF 按打印模板排版 A4 PDF：标题、带分隔线的期间行、保留格式的正文
func WritePDF(w io.Writer, in Input, fontPath string) error {
	pw, err := newPDFWriter(fontPath)
	if err != nil {
		return err
	}
	pdf := pw.pdf
	pdf.SetTitle(in.Title(), pw.family == pdfUTF8Family)
	pdf.AddPage()

	pdf.SetFont(pw.family, "B", 18)
	pw.setColor(pdfTitleColor)
	pdf.MultiCell(0, 9, pw.text(in.Title()), "", "L", false)
	pdf.Ln(1)

	pdf.SetFont(pw.family, "B", 10.5)
	pw.setColor(pdfPeriodColor)
	pdf.SetDrawColor(pdfRuleColor.r, pdfRuleColor.g, pdfRuleColor.b)
	pdf.MultiCell(0, 7, pw.text(in.PeriodLine()), "B", "L", false)
	pdf.Ln(8)

	for _, p := range in.Document.Paragraphs {
		pw.paragraph(p)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("layout pdf: %w", err)
	}
	return pdf.Output(w)
}

func (pw *pdfWriter) paragraph(p document.Paragraph) {
	pdf := pw.pdf
	if p.List {
		pdf.SetFont(pw.family, "", pdfBodySize)
		pw.setColor(pdfBodyColor)
		pdf.SetX(pdfMargin + 4)
		pdf.Write(pdfLineHeight, pw.text("• "))
	}
	for _, r := range p.Runs {
		style := ""
		if r.Style.Bold {
			style += "B"
		}
		if r.Style.Italic {
			style += "I"
		}
		if r.Style.Underline {
			style += "U"
		}
		pdf.SetFont(pw.family, style, pdfBodySize)
		color := pdfBodyColor
		if c, ok := parseColor(r.Style.Color); ok {
			color = c
		}
		pw.setColor(color)
		pdf.Write(pdfLineHeight, pw.text(r.Text))
	}
	pdf.Ln(pdfLineHeight)
}
