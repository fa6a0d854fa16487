package review

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"feedbacktool/internal/ai"
	"feedbacktool/internal/document"
	"feedbacktool/internal/exporter"
	"feedbacktool/internal/i18n"
	"feedbacktool/internal/parser"
	"feedbacktool/internal/store"
)

var testNow = time.Date(2025, time.October, 16, 9, 0, 0, 0, time.UTC)

var fullHeader = []interface{}{
	"Full name",
	"ASR/Hrs Target",
	"ASR/Hrs",
	"ASR/Hrs Fill",
	"ASR Services/Hrs Target",
	"ASR_Services/Hrs",
	"ASR Services/Hrs Fill",
}

func buildReport(t *testing.T, sheet string, rows ...[]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		t.Fatalf("SetSheetName failed: %v", err)
	}
	for i, row := range rows {
		axis, _ := excelize.CoordinatesToCellName(1, i+1)
		r := row
		if err := f.SetSheetRow(sheet, axis, &r); err != nil {
			t.Fatalf("SetSheetRow failed: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer failed: %v", err)
	}
	return buf.Bytes()
}

func validReport(t *testing.T) []byte {
	return buildReport(t, parser.ReportSheetName,
		[]interface{}{"Report za březen 2025"},
		fullHeader,
		[]interface{}{"Jana Nováková", 40, 38.2, 0.96, 20, 19, 0.95},
		[]interface{}{"Eva Malá", 35, 30, 0.857, 18, 12, 0.667},
		[]interface{}{"Petr Novotný", 30, 31, 1.03, 15, 15, 1},
	)
}

type fakeAudit struct {
	mu          sync.Mutex
	lastLocale  string
	imports     []store.ImportOutcome
	generations []store.GenerationLog
	exports     []store.ExportLog
}

func (f *fakeAudit) CreateImportLog(sessionID, filename string, fileSize int64, fileHash string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.imports = append(f.imports, store.ImportOutcome{Status: store.StatusProcessing})
	return int64(len(f.imports)), nil
}

func (f *fakeAudit) UpdateImportLog(id int64, out store.ImportOutcome) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.imports[id-1] = out
	return nil
}

func (f *fakeAudit) CreateGenerationLog(l store.GenerationLog) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generations = append(f.generations, l)
	return int64(len(f.generations)), nil
}

func (f *fakeAudit) CreateExportLog(l store.ExportLog) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exports = append(f.exports, l)
	return int64(len(f.exports)), nil
}

func (f *fakeAudit) LastLocale() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastLocale, nil
}

func (f *fakeAudit) SetLastLocale(code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLocale = code
	return nil
}

func newTestService(t *testing.T, gen ai.Generator) (*Service, *fakeAudit) {
	t.Helper()
	catalog, err := i18n.LoadCatalog("cs")
	if err != nil {
		t.Fatalf("LoadCatalog failed: %v", err)
	}
	audit := &fakeAudit{}
	svc := NewService(Options{
		Sessions:      NewMemoryStore(time.Hour),
		Locales:       catalog,
		Generator:     gen,
		Audit:         audit,
		MaxAudioBytes: 8,
		Now:           func() time.Time { return testNow },
	})
	return svc, audit
}

func echoGenerator(text string) ai.Generator {
	return ai.GeneratorFunc(func(ctx context.Context, req ai.Request) (string, error) {
		return text, nil
	})
}

func TestCreateSession_LocaleResolution(t *testing.T) {
	svc, audit := newTestService(t, echoGenerator("x"))

	snap, err := svc.CreateSession("sk", "")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if snap.Locale != "sk" || snap.Period != "september 2025" || snap.SelectedIndex != nil {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	snap, _ = svc.CreateSession("", "hu-HU,hu;q=0.9,en;q=0.5")
	if snap.Locale != "hu" || snap.Period != "2025. szeptember" {
		t.Fatalf("accept-language not used: %+v", snap)
	}

	audit.lastLocale = "sk"
	snap, _ = svc.CreateSession("", "hu-HU")
	if snap.Locale != "sk" {
		t.Fatalf("last locale not preferred: %+v", snap)
	}

	if _, err := svc.CreateSession("de", ""); !errors.Is(err, i18n.ErrUnknownLocale) {
		t.Fatalf("expected ErrUnknownLocale, got %v", err)
	}
	if svc.SessionCount() != 3 {
		t.Fatalf("session count = %d", svc.SessionCount())
	}
}

func TestSetLocale_RederivesDefaultPeriodOnly(t *testing.T) {
	svc, audit := newTestService(t, echoGenerator("x"))
	snap, _ := svc.CreateSession("cs", "")
	if snap.Period != "září 2025" {
		t.Fatalf("period = %q", snap.Period)
	}

	snap, err := svc.SetLocale(snap.ID, "hu")
	if err != nil {
		t.Fatalf("SetLocale failed: %v", err)
	}
	if snap.Period != "2025. szeptember" || audit.lastLocale != "hu" {
		t.Fatalf("unexpected after locale change: %+v, last=%q", snap, audit.lastLocale)
	}

	if _, err := svc.SetLocale(snap.ID, "cs"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.LoadReport(snap.ID, "report.xlsx", validReport(t)); err != nil {
		t.Fatalf("LoadReport failed: %v", err)
	}
	snap, _ = svc.SetLocale(snap.ID, "sk")
	if snap.Period != "březen 2025" {
		t.Fatalf("period from report overwritten: %q", snap.Period)
	}
}

func TestLoadReport_Success(t *testing.T) {
	svc, audit := newTestService(t, echoGenerator("x"))
	snap, _ := svc.CreateSession("cs", "")

	out, err := svc.LoadReport(snap.ID, "report.xlsx", validReport(t))
	if err != nil {
		t.Fatalf("LoadReport failed: %v", err)
	}
	if out.Period != "březen 2025" || len(out.Employees) != 3 || out.HeaderRow != 2 {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if got := out.Employees[0].HardwareFill.String(); got != "96" {
		t.Fatalf("fill = %q", got)
	}

	snap, _ = svc.Session(snap.ID)
	if snap.EmployeeCount != 3 || snap.FileName != "report.xlsx" || snap.ValidationError != nil {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if len(audit.imports) != 1 || audit.imports[0].Status != store.StatusSuccess || audit.imports[0].EmployeeRows != 3 {
		t.Fatalf("unexpected audit: %+v", audit.imports)
	}
}

func TestLoadReport_ValidationErrorKeepsPeriod(t *testing.T) {
	svc, audit := newTestService(t, echoGenerator("x"))
	snap, _ := svc.CreateSession("cs", "")
	_, _ = svc.LoadReport(snap.ID, "report.xlsx", validReport(t))
	if _, err := svc.Select(snap.ID, 0); err != nil {
		t.Fatal(err)
	}

	bad := buildReport(t, parser.ReportSheetName,
		[]interface{}{"Období duben 2025"},
		[]interface{}{"Full name", "ASR/Hrs"},
		[]interface{}{"Jana Nováková", 10},
	)
	out, err := svc.LoadReport(snap.ID, "bad.xlsx", bad)
	ve, ok := parser.IsValidationError(err)
	if !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(ve.Missing) != 5 {
		t.Fatalf("missing = %v", ve.Missing)
	}
	if out == nil || out.Period != "duben 2025" || len(out.Employees) != 0 {
		t.Fatalf("unexpected outcome: %+v", out)
	}

	snap, _ = svc.Session(snap.ID)
	if snap.EmployeeCount != 0 || snap.ValidationError == nil || snap.SelectedIndex != nil || snap.Period != "duben 2025" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if audit.imports[1].Status != store.StatusFailed || audit.imports[1].ErrorCode != "missing_headers" {
		t.Fatalf("unexpected audit: %+v", audit.imports[1])
	}
}

func TestLoadReport_UnusableFileLeavesState(t *testing.T) {
	svc, _ := newTestService(t, echoGenerator("x"))
	snap, _ := svc.CreateSession("cs", "")
	_, _ = svc.LoadReport(snap.ID, "report.xlsx", validReport(t))

	other := buildReport(t, "Summary", fullHeader)
	if _, err := svc.LoadReport(snap.ID, "other.xlsx", other); !errors.Is(err, parser.ErrSheetNotFound) {
		t.Fatalf("expected ErrSheetNotFound, got %v", err)
	}
	if _, err := svc.LoadReport(snap.ID, "junk.xlsx", []byte("not a zip")); !errors.Is(err, parser.ErrUnreadableFile) {
		t.Fatalf("expected ErrUnreadableFile, got %v", err)
	}

	snap, _ = svc.Session(snap.ID)
	if snap.EmployeeCount != 3 || snap.Period != "březen 2025" || snap.FileName != "report.xlsx" {
		t.Fatalf("state changed: %+v", snap)
	}
}

func TestEmployees_Filter(t *testing.T) {
	svc, _ := newTestService(t, echoGenerator("x"))
	snap, _ := svc.CreateSession("cs", "")
	_, _ = svc.LoadReport(snap.ID, "report.xlsx", validReport(t))

	got, err := svc.Employees(snap.ID, "NOV")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Index != 0 || got[1].Index != 2 || got[1].Employee.FullName != "Petr Novotný" {
		t.Fatalf("unexpected filter result: %+v", got)
	}

	all, _ := svc.Employees(snap.ID, "")
	if len(all) != 3 {
		t.Fatalf("empty query should return all, got %d", len(all))
	}
	if _, err := svc.Select(snap.ID, 3); !errors.Is(err, ErrEmployeeOutOfRange) {
		t.Fatalf("expected ErrEmployeeOutOfRange, got %v", err)
	}
}

func TestGenerate_BuildsRequestAndDraft(t *testing.T) {
	var got ai.Request
	gen := ai.GeneratorFunc(func(ctx context.Context, req ai.Request) (string, error) {
		got = req
		return "Ahoj Jano,\nskvělá práce.\r\nDíky", nil
	})
	svc, audit := newTestService(t, gen)
	snap, _ := svc.CreateSession("cs", "")
	_, _ = svc.LoadReport(snap.ID, "report.xlsx", validReport(t))
	_, _ = svc.Select(snap.ID, 0)
	_ = svc.SetNotes(snap.ID, "Pozitivní přístup")
	if err := svc.SetAudio(snap.ID, []byte("RIFFdata"), ""); err != nil {
		t.Fatalf("SetAudio failed: %v", err)
	}

	draft, err := svc.Generate(context.Background(), snap.ID)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if draft.HTML != "Ahoj Jano,<br>skvělá práce.<br>Díky" || draft.Empty {
		t.Fatalf("unexpected draft: %+v", draft)
	}
	if got.Employee.FullName != "Jana Nováková" || got.Notes != "Pozitivní přístup" || got.Period != "březen 2025" || got.Locale != "cs" {
		t.Fatalf("unexpected request: %+v", got)
	}
	if got.AudioBase64 != base64.StdEncoding.EncodeToString([]byte("RIFFdata")) || got.AudioMIME != "audio/webm" {
		t.Fatalf("unexpected audio: %q %q", got.AudioBase64, got.AudioMIME)
	}
	if len(audit.generations) != 1 || audit.generations[0].Status != store.StatusSuccess || !audit.generations[0].HasAudio {
		t.Fatalf("unexpected audit: %+v", audit.generations)
	}

	_ = svc.ClearAudio(snap.ID)
	if _, err := svc.Generate(context.Background(), snap.ID); err != nil {
		t.Fatal(err)
	}
	if got.HasAudio() {
		t.Fatalf("audio sent after ClearAudio")
	}
}

func TestGenerate_NoSelection(t *testing.T) {
	svc, _ := newTestService(t, echoGenerator("x"))
	snap, _ := svc.CreateSession("cs", "")
	if _, err := svc.Generate(context.Background(), snap.ID); !errors.Is(err, ErrNoEmployeeSelected) {
		t.Fatalf("expected ErrNoEmployeeSelected, got %v", err)
	}
}

func TestGenerate_SingleFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	gen := ai.GeneratorFunc(func(ctx context.Context, req ai.Request) (string, error) {
		close(started)
		<-release
		return "hotovo", nil
	})
	svc, _ := newTestService(t, gen)
	snap, _ := svc.CreateSession("cs", "")
	_, _ = svc.LoadReport(snap.ID, "report.xlsx", validReport(t))
	_, _ = svc.Select(snap.ID, 1)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Generate(context.Background(), snap.ID)
		done <- err
	}()
	<-started

	if _, err := svc.Generate(context.Background(), snap.ID); !errors.Is(err, ErrGenerationInProgress) {
		t.Fatalf("expected ErrGenerationInProgress, got %v", err)
	}
	if _, err := svc.ReplaceDraft(snap.ID, "x"); !errors.Is(err, ErrGenerationInProgress) {
		t.Fatalf("expected ErrGenerationInProgress for edit, got %v", err)
	}
	if s, _ := svc.Session(snap.ID); !s.Generating {
		t.Fatalf("snapshot should report generating")
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first generation failed: %v", err)
	}
	d, _ := svc.Draft(snap.ID)
	if d.Text != "hotovo" {
		t.Fatalf("draft = %q", d.Text)
	}
}

func TestGenerate_SelectionLockedWhileRunning(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	gen := ai.GeneratorFunc(func(ctx context.Context, req ai.Request) (string, error) {
		close(started)
		<-release
		return "feedback for " + req.Employee.FullName, nil
	})
	svc, _ := newTestService(t, gen)
	snap, _ := svc.CreateSession("cs", "")
	_, _ = svc.LoadReport(snap.ID, "report.xlsx", validReport(t))
	before, _ := svc.Select(snap.ID, 0)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Generate(context.Background(), snap.ID)
		done <- err
	}()
	<-started

	if _, err := svc.Select(snap.ID, 1); !errors.Is(err, ErrGenerationInProgress) {
		t.Fatalf("expected ErrGenerationInProgress for select, got %v", err)
	}
	if _, err := svc.LoadReport(snap.ID, "other.xlsx", validReport(t)); !errors.Is(err, ErrGenerationInProgress) {
		t.Fatalf("expected ErrGenerationInProgress for load, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("generation failed: %v", err)
	}

	after, _ := svc.Session(snap.ID)
	if after.SelectedEmployee == nil || after.SelectedEmployee.FullName != before.SelectedEmployee.FullName {
		t.Fatalf("selection changed during generation: %+v", after.SelectedEmployee)
	}
	if after.FileName != "report.xlsx" {
		t.Fatalf("report replaced during generation: %q", after.FileName)
	}
	d, _ := svc.Draft(snap.ID)
	if d.Text != "feedback for "+before.SelectedEmployee.FullName {
		t.Fatalf("draft = %q", d.Text)
	}
	res, err := svc.Export(snap.ID, exporter.FormatHTML, nil)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !strings.Contains(res.FileName, before.SelectedEmployee.FullName) {
		t.Fatalf("export named %q, want employee %q", res.FileName, before.SelectedEmployee.FullName)
	}

	// 生成结束后可以切换
	if _, err := svc.Select(snap.ID, 1); err != nil {
		t.Fatalf("Select after generation: %v", err)
	}
}

func TestGenerate_FailureLeavesDraftEmpty(t *testing.T) {
	boom := errors.New("quota exceeded")
	calls := 0
	gen := ai.GeneratorFunc(func(ctx context.Context, req ai.Request) (string, error) {
		calls++
		return "", boom
	})
	svc, audit := newTestService(t, gen)
	snap, _ := svc.CreateSession("cs", "")
	_, _ = svc.LoadReport(snap.ID, "report.xlsx", validReport(t))
	_, _ = svc.Select(snap.ID, 0)
	_, _ = svc.ReplaceDraft(snap.ID, "starý text")

	_, err := svc.Generate(context.Background(), snap.ID)
	if !errors.Is(err, ErrGenerationFailed) || !errors.Is(err, boom) {
		t.Fatalf("expected wrapped generation failure, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("generator called %d times", calls)
	}
	d, _ := svc.Draft(snap.ID)
	if !d.Empty {
		t.Fatalf("draft should be empty after failure: %+v", d)
	}
	if audit.generations[0].Status != store.StatusFailed || audit.generations[0].ErrorMessage != "quota exceeded" {
		t.Fatalf("unexpected audit: %+v", audit.generations)
	}
}

func TestDraftEditing(t *testing.T) {
	svc, _ := newTestService(t, echoGenerator("x"))
	snap, _ := svc.CreateSession("cs", "")

	d, err := svc.ReplaceDraft(snap.ID, "Ahoj světe")
	if err != nil {
		t.Fatal(err)
	}
	if d.Text != "Ahoj světe" {
		t.Fatalf("text = %q", d.Text)
	}

	d, err = svc.ApplyCommand(snap.ID, document.Command{Name: document.CommandBold, Start: 0, End: 4})
	if err != nil {
		t.Fatalf("ApplyCommand failed: %v", err)
	}
	if d.HTML != "<b>Ahoj</b> světe" {
		t.Fatalf("html = %q", d.HTML)
	}

	if _, err := svc.ApplyCommand(snap.ID, document.Command{Name: "strike", Start: 0, End: 1}); !errors.Is(err, document.ErrInvalidCommand) {
		t.Fatalf("expected ErrInvalidCommand, got %v", err)
	}
	d, _ = svc.Draft(snap.ID)
	if d.HTML != "<b>Ahoj</b> světe" {
		t.Fatalf("draft changed by failed command: %q", d.HTML)
	}
}

func TestExport(t *testing.T) {
	svc, audit := newTestService(t, echoGenerator("Ahoj Jano,\nskvělá práce."))
	snap, _ := svc.CreateSession("cs", "")
	_, _ = svc.LoadReport(snap.ID, "report.xlsx", validReport(t))

	if _, err := svc.Export(snap.ID, exporter.FormatDOCX, nil); !errors.Is(err, ErrNoEmployeeSelected) {
		t.Fatalf("expected ErrNoEmployeeSelected, got %v", err)
	}
	_, _ = svc.Select(snap.ID, 0)
	if _, err := svc.Export(snap.ID, exporter.FormatDOCX, nil); !errors.Is(err, ErrNoDraft) {
		t.Fatalf("expected ErrNoDraft, got %v", err)
	}

	if _, err := svc.Generate(context.Background(), snap.ID); err != nil {
		t.Fatal(err)
	}
	res, err := svc.Export(snap.ID, exporter.FormatDOCX, nil)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if res.FileName != "Zpetna_vazba_Jana Nováková_březen 2025.docx" {
		t.Fatalf("filename = %q", res.FileName)
	}
	if !bytes.HasPrefix(res.Data, []byte("PK")) {
		t.Fatalf("docx is not a zip package")
	}
	if len(audit.exports) != 1 || audit.exports[0].FileSize != int64(len(res.Data)) {
		t.Fatalf("unexpected audit: %+v", audit.exports)
	}

	_, _ = svc.SetLocale(snap.ID, "hu")
	res, err = svc.Export(snap.ID, exporter.FormatPDF, nil)
	if err != nil {
		t.Fatalf("Export pdf failed: %v", err)
	}
	if res.FileName != "Visszajelzes_Jana Nováková_březen 2025.pdf" || res.ContentType != "application/pdf" {
		t.Fatalf("unexpected result: %s %s", res.FileName, res.ContentType)
	}
}

func TestSetAudio_Limits(t *testing.T) {
	svc, _ := newTestService(t, echoGenerator("x"))
	snap, _ := svc.CreateSession("cs", "")

	if err := svc.SetAudio(snap.ID, nil, "audio/webm"); !errors.Is(err, ErrEmptyAudio) {
		t.Fatalf("expected ErrEmptyAudio, got %v", err)
	}
	if err := svc.SetAudio(snap.ID, make([]byte, 9), "audio/webm"); !errors.Is(err, ErrAudioTooLarge) {
		t.Fatalf("expected ErrAudioTooLarge, got %v", err)
	}
	if err := svc.SetAudio(snap.ID, []byte{1, 2}, "audio/ogg"); err != nil {
		t.Fatal(err)
	}
	s, _ := svc.Session(snap.ID)
	if !s.HasAudio || s.AudioMIME != "audio/ogg" || s.AudioBytes != 2 {
		t.Fatalf("unexpected snapshot: %+v", s)
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	catalog, _ := i18n.LoadCatalog("cs")
	ms := NewMemoryStore(time.Hour)
	now := testNow
	ms.SetClock(func() time.Time { return now })

	a := ms.Create(catalog.Default(), "září 2025")
	b := ms.Create(catalog.Default(), "září 2025")

	now = now.Add(50 * time.Minute)
	if _, err := ms.Get(a.ID); err != nil {
		t.Fatalf("session expired too early: %v", err)
	}

	now = now.Add(30 * time.Minute)
	b.generating.Store(true)
	if n := ms.PurgeExpired(); n != 0 {
		t.Fatalf("purged %d sessions, want 0", n)
	}
	b.generating.Store(false)

	now = now.Add(2 * time.Hour)
	if _, err := ms.Get(a.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if n := ms.PurgeExpired(); n != 1 {
		t.Fatalf("purged %d sessions, want 1", n)
	}
	if ms.Count() != 0 {
		t.Fatalf("count = %d", ms.Count())
	}
}
