package exporter

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"feedbacktool/internal/document"
)

func sampleInput() Input {
	return Input{
		EmployeeName: "Jana Nováková",
		Period:       "září 2025",
		TitlePrefix:  "Zpětná vazba",
		PeriodLabel:  "Období",
		Language:     "cs-CZ",
		Document:     document.ParseHTML("Ahoj <b>Jano</b>,<br><br>děkuji za &lt;práci&gt;.<ul><li>cíl 1</li><li>cíl 2</li></ul>Hodně štěstí"),
	}
}

func readZipPart(t *testing.T, data []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", name, err)
		}
		defer rc.Close()
		b, _ := io.ReadAll(rc)
		return string(b)
	}
	t.Fatalf("part %s not found", name)
	return ""
}

func TestWriteDOCX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteDOCX(&buf, sampleInput()); err != nil {
		t.Fatalf("WriteDOCX: %v", err)
	}

	readZipPart(t, buf.Bytes(), "[Content_Types].xml")
	doc := readZipPart(t, buf.Bytes(), "word/document.xml")

	paras := docxParagraphs(doc)
	if len(paras) != 7 {
		t.Fatalf("expected 7 paragraphs, got %d:\n%s", len(paras), doc)
	}

	title := paras[0]
	if !strings.Contains(title, ">Zpětná vazba: Jana Nováková</w:t>") {
		t.Fatalf("title paragraph missing: %s", title)
	}
	if !strings.Contains(title, "<w:b") || !strings.Contains(title, `w:val="32"`) || !strings.Contains(title, `w:after="400"`) {
		t.Fatalf("title should be bold 16pt with 400 twips after: %s", title)
	}
	period := paras[1]
	if !strings.Contains(period, ">Období: září 2025</w:t>") {
		t.Fatalf("period paragraph missing: %s", period)
	}
	if !strings.Contains(period, "<w:i") || !strings.Contains(period, `w:val="24"`) || !strings.Contains(period, `w:after="400"`) {
		t.Fatalf("period should be italic 12pt with 400 twips after: %s", period)
	}

	// 正文：每个非空段落一个纯文本段落，去除格式
	for i, frag := range []string{"Ahoj Jano,", "děkuji za &lt;práci&gt;.", "cíl 1", "cíl 2", "Hodně štěstí"} {
		p := paras[i+2]
		if !strings.Contains(p, ">"+frag+"</w:t>") {
			t.Fatalf("fragment %q missing: %s", frag, p)
		}
		if strings.Contains(p, "<w:b") || strings.Contains(p, "<w:i") {
			t.Fatalf("fragment %q should be plain: %s", frag, p)
		}
		if !strings.Contains(p, `w:after="200"`) {
			t.Fatalf("fragment %q should have 200 twips after: %s", frag, p)
		}
	}
}

func TestWriteDOCX_Deterministic(t *testing.T) {
	render := func() []byte {
		var buf bytes.Buffer
		if err := WriteDOCX(&buf, sampleInput()); err != nil {
			t.Fatalf("WriteDOCX: %v", err)
		}
		return buf.Bytes()
	}
	first, second := render(), render()
	for _, part := range []string{"word/document.xml", "docProps/core.xml"} {
		if a, b := readZipPart(t, first, part), readZipPart(t, second, part); a != b {
			t.Fatalf("%s differs between renders:\n%s\n---\n%s", part, a, b)
		}
	}
}

// docxParagraphs 按顺序切出 body 中的 <w:p> 元素
func docxParagraphs(doc string) []string {
	var out []string
	for {
		i := strings.Index(doc, "<w:p>")
		if j := strings.Index(doc, "<w:p "); j >= 0 && (i < 0 || j < i) {
			i = j
		}
		if i < 0 {
			return out
		}
		doc = doc[i:]
		end := strings.Index(doc, "</w:p>")
		if end < 0 {
			return out
		}
		out = append(out, doc[:end+len("</w:p>")])
		doc = doc[end+len("</w:p>"):]
	}
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHTML(&buf, sampleInput()); err != nil {
		t.Fatalf("WriteHTML: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`<html lang="cs-CZ">`,
		`<h1 style="color: #166534; margin-bottom: 5px; font-size: 24px;">Zpětná vazba: Jana Nováková</h1>`,
		`Období: září 2025</p>`,
		`Ahoj <b>Jano</b>,<br><br>děkuji za &lt;práci&gt;.<ul><li>cíl 1</li><li>cíl 2</li></ul>Hodně štěstí`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("html missing %q:\n%s", want, out)
		}
	}
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePDF(&buf, sampleInput(), ""); err != nil {
		t.Fatalf("WritePDF: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("output is not a PDF")
	}
}

func TestWritePDF_MissingFont(t *testing.T) {
	var buf bytes.Buffer
	err := WritePDF(&buf, sampleInput(), filepath.Join(t.TempDir(), "missing.ttf"))
	if err == nil {
		t.Fatalf("expected error for missing font")
	}
}

func TestExport_FailureWritesNothing(t *testing.T) {
	e := NewExporter(Options{PDFFontPath: filepath.Join(t.TempDir(), "missing.ttf")})
	var buf bytes.Buffer
	var events []ProgressEvent
	_, err := e.Export(&buf, FormatPDF, sampleInput(), func(p ProgressEvent) { events = append(events, p) })
	if !errors.Is(err, ErrExportFailed) {
		t.Fatalf("expected ErrExportFailed, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("partial output written: %d bytes", buf.Len())
	}
	if len(events) != 1 || events[0].Stage != StagePrepare {
		t.Fatalf("unexpected progress: %+v", events)
	}
}

func TestExport_Progress(t *testing.T) {
	e := NewExporter(Options{})
	var buf bytes.Buffer
	var percents []int
	n, err := e.Export(&buf, FormatDOCX, sampleInput(), DedupeProgress(func(p ProgressEvent) {
		percents = append(percents, p.Percent)
	}))
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if n != int64(buf.Len()) || n == 0 {
		t.Fatalf("n = %d, len = %d", n, buf.Len())
	}
	if len(percents) != 3 || percents[2] != 100 {
		t.Fatalf("unexpected progress: %v", percents)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"docx": FormatDOCX, " PDF ": FormatPDF, "html": FormatHTML} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("xlsx"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
	if FormatPDF.ContentType() != "application/pdf" {
		t.Fatalf("unexpected content type")
	}
}

func TestFileName(t *testing.T) {
	got := FileName("Zpetna_vazba", "Jana Nováková", "září 2025", "docx")
	if got != "Zpetna_vazba_Jana Nováková_září 2025.docx" {
		t.Fatalf("FileName = %q", got)
	}
	got = FileName("Zpetna_vazba", "a/b\\c", "1. 9. 2025 - 30.9.2025\n", "pdf")
	if got != "Zpetna_vazba_a_b_c_1. 9. 2025 - 30.9.2025.pdf" {
		t.Fatalf("FileName = %q", got)
	}
	got = FileName("p", "x\ty", "q", "html")
	if got != "p_x_y_q.html" {
		t.Fatalf("FileName = %q", got)
	}
}

func TestContentDisposition(t *testing.T) {
	got := ContentDisposition("Zpetna_vazba_Jana_září 2025.pdf")
	if !strings.HasPrefix(got, `attachment; filename="Zpetna_vazba_Jana_z___ 2025.pdf"; `) {
		t.Fatalf("ascii fallback mismatch: %s", got)
	}
	if !strings.HasSuffix(got, `filename*=UTF-8''Zpetna_vazba_Jana_z%C3%A1%C5%99%C3%AD%202025.pdf`) {
		t.Fatalf("rfc5987 mismatch: %s", got)
	}
}

func TestParseColor(t *testing.T) {
	cases := map[string]rgb{
		"#00aa00":          {0, 0xaa, 0},
		"#f00":             {255, 0, 0},
		"rgb(1, 2, 3)":     {1, 2, 3},
		"rgba(1,2,300,.5)": {1, 2, 255},
		"Green":            {0, 128, 0},
	}
	for in, want := range cases {
		got, ok := parseColor(in)
		if !ok || got != want {
			t.Fatalf("parseColor(%q) = %v, %v", in, got, ok)
		}
	}
	if _, ok := parseColor("papayawhip"); ok {
		t.Fatalf("unknown name should not parse")
	}
}

func TestToWinAnsi(t *testing.T) {
	if got := toWinAnsi("Šťastný čas"); got != "\x8atastn\xfd cas" {
		t.Fatalf("toWinAnsi = %q", got)
	}
	if got := toWinAnsi("• 中"); got != "\x95 ?" {
		t.Fatalf("toWinAnsi = %q", got)
	}
}
