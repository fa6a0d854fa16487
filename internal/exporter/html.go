package exporter

import (
	"html/template"
	"io"
)

var printTemplate = template.Must(template.New("feedback").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body style="margin: 0; background-color: #ffffff;">
<div style="width: 750px; padding: 40px; font-family: Arial, sans-serif;">
  <div style="color: #1f2937;">
    <h1 style="color: #166534; margin-bottom: 5px; font-size: 24px;">{{.Title}}</h1>
    <p style="color: #6b7280; font-weight: bold; margin-bottom: 30px; font-size: 14px; border-bottom: 1px solid #e5e7eb; padding-bottom: 10px;">{{.PeriodLine}}</p>
    <div style="line-height: 1.6; font-size: 14px; color: #111827;">{{.Body}}</div>
  </div>
</div>
</body>
</html>
`))

type printView struct {
	Lang       string
	Title      string
	PeriodLine string
	Body       template.HTML
}

// WriteHTML 写出可打印的 HTML 视图（保留草稿中的格式）
func WriteHTML(w io.Writer, in Input) error {
	lang := in.Language
	if lang == "" {
		lang = "cs"
	}
	// Document.HTML 只输出转义后的文本与白名单标签
	return printTemplate.Execute(w, printView{
		Lang:       lang,
		Title:      in.Title(),
		PeriodLine: in.PeriodLine(),
		Body:       template.HTML(in.Document.HTML()),
	})
}
