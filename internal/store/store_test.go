package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "data", "feedback.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_NewFailsWhenDirIsFile(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "data")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	s, err := New(filepath.Join(blocker, "feedback.db"))
	if err == nil {
		_ = s.Close()
		t.Fatalf("expected error when parent is a file")
	}
	if !strings.Contains(err.Error(), "audit dir") {
		t.Fatalf("unexpected error: %v", err)
	}

	var nilStore *Store
	if err := nilStore.Close(); err != nil {
		t.Fatalf("Close on nil store: %v", err)
	}
}

func TestStore_SchemaIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedback.db")
	s1, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s1.SetLastLocale("sk"); err != nil {
		t.Fatalf("SetLastLocale: %v", err)
	}
	_ = s1.Close()

	s2, err := New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	got, err := s2.LastLocale()
	if err != nil || got != "sk" {
		t.Fatalf("LastLocale = %q, %v", got, err)
	}
}

func TestStore_LastLocale(t *testing.T) {
	s := newTestStore(t)

	got, err := s.LastLocale()
	if err != nil || got != "" {
		t.Fatalf("empty store LastLocale = %q, %v", got, err)
	}
	if err := s.SetLastLocale("hu"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetLastLocale("cs"); err != nil {
		t.Fatal(err)
	}
	got, _ = s.LastLocale()
	if got != "cs" {
		t.Fatalf("LastLocale = %q", got)
	}
}

func TestStore_ImportLog(t *testing.T) {
	s := newTestStore(t)

	id, err := s.CreateImportLog("sess-1", "report.xlsx", 2048, "abc")
	if err != nil {
		t.Fatalf("CreateImportLog: %v", err)
	}
	if err := s.UpdateImportLog(id, ImportOutcome{
		SheetName:    "User Performance",
		HeaderRow:    3,
		Period:       "září 2025",
		EmployeeRows: 12,
		Status:       StatusSuccess,
	}); err != nil {
		t.Fatalf("UpdateImportLog: %v", err)
	}

	failedID, _ := s.CreateImportLog("sess-1", "broken.xlsx", 10, "def")
	_ = s.UpdateImportLog(failedID, ImportOutcome{Status: StatusFailed, ErrorCode: "MISSING_HEADERS", ErrorMessage: "missing"})

	logs, err := s.ListImportLogs(10)
	if err != nil {
		t.Fatalf("ListImportLogs: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 logs, got %d", len(logs))
	}
	if logs[0].ID != failedID || logs[0].Status != StatusFailed || logs[0].ErrorCode != "MISSING_HEADERS" {
		t.Fatalf("unexpected newest log: %+v", logs[0])
	}
	ok := logs[1]
	if ok.Period != "září 2025" || ok.EmployeeRows != 12 || ok.HeaderRow != 3 || ok.CompletedAt == nil {
		t.Fatalf("unexpected log: %+v", ok)
	}

	limited, _ := s.ListImportLogs(1)
	if len(limited) != 1 {
		t.Fatalf("limit not applied: %d", len(limited))
	}
}

func TestStore_GenerationAndExportLogs(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.CreateGenerationLog(GenerationLog{
		SessionID: "a", Employee: "Jana", Locale: "cs", Period: "září 2025",
		HasAudio: true, Duration: 1500 * time.Millisecond, Status: StatusSuccess,
	}); err != nil {
		t.Fatalf("CreateGenerationLog: %v", err)
	}
	_, _ = s.CreateGenerationLog(GenerationLog{SessionID: "b", Employee: "Petr", Locale: "sk", Period: "x", Status: StatusFailed})

	gens, err := s.ListGenerationLogs("a")
	if err != nil {
		t.Fatalf("ListGenerationLogs: %v", err)
	}
	if len(gens) != 1 || !gens[0].HasAudio || gens[0].Duration != 1500*time.Millisecond {
		t.Fatalf("unexpected generation logs: %+v", gens)
	}

	if _, err := s.CreateExportLog(ExportLog{
		SessionID: "a", Employee: "Jana", Format: "docx", Filename: "Zpetna_vazba_Jana_září 2025.docx",
		FileSize: 4096, Status: StatusSuccess,
	}); err != nil {
		t.Fatalf("CreateExportLog: %v", err)
	}
	exports, err := s.ListExportLogs("a")
	if err != nil {
		t.Fatalf("ListExportLogs: %v", err)
	}
	if len(exports) != 1 || exports[0].Format != "docx" || exports[0].FileSize != 4096 {
		t.Fatalf("unexpected export logs: %+v", exports)
	}
}
