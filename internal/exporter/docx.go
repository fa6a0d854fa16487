package exporter

import (
	"fmt"
	"io"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"
	"github.com/gomutex/godocx/wml/ctypes"
)

// 字号单位为磅，间距单位为 twip
const (
	docxTitleSize   = 16
	docxPeriodSize  = 12
	docxHeadSpacing = 400
	docxBodySpacing = 200
)

// WriteDOCX 写出 WordprocessingML 文档
//
// 结构：粗体标题、斜体期间行、每个非空段落一个纯文本段落。
func WriteDOCX(w io.Writer, in Input) error {
	doc, err := godocx.NewDocument()
	if err != nil {
		return fmt.Errorf("new document: %w", err)
	}

	title := doc.AddEmptyParagraph()
	title.AddText(in.Title()).Bold(true).Size(docxTitleSize)
	spaceAfter(title, docxHeadSpacing)

	period := doc.AddEmptyParagraph()
	period.AddText(in.PeriodLine()).Italic(true).Size(docxPeriodSize)
	spaceAfter(period, docxHeadSpacing)

	for _, frag := range in.Document.Fragments() {
		spaceAfter(doc.AddParagraph(frag), docxBodySpacing)
	}

	if err := doc.Write(w); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

func spaceAfter(p *docx.Paragraph, twips uint64) {
	ct := p.GetCT()
	if ct.Property == nil {
		ct.Property = ctypes.DefaultParaProperty()
	}
	ct.Property.Spacing = &ctypes.Spacing{After: &twips}
}
