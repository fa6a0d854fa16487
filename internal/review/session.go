package review

import (
	"sync"
	"sync/atomic"
	"time"

	"feedbacktool/internal/document"
	"feedbacktool/internal/i18n"
	"feedbacktool/internal/model"
)

// Session 单个浏览器标签页的审阅状态
type Session struct {
	ID        string
	CreatedAt time.Time

	mu         sync.Mutex
	lastAccess time.Time
	locale     *i18n.Locale
	fileName   string
	fromFile   bool // period 是否来自上传的报表
	employees  []model.EmployeeMetrics
	period     string
	validation *model.ValidationError
	selected   int
	notes      string
	audio      []byte
	audioMIME  string
	draft      document.Document

	generating atomic.Bool
}

// Snapshot 会话状态快照
type Snapshot struct {
	ID               string                 `json:"id"`
	Locale           string                 `json:"locale"`
	FileName         string                 `json:"fileName,omitempty"`
	Period           string                 `json:"period"`
	EmployeeCount    int                    `json:"employeeCount"`
	ValidationError  *model.ValidationError `json:"validationError,omitempty"`
	SelectedIndex    *int                   `json:"selectedIndex"`
	SelectedEmployee *model.EmployeeMetrics `json:"selectedEmployee,omitempty"`
	Notes            string                 `json:"notes"`
	HasAudio         bool                   `json:"hasAudio"`
	AudioMIME        string                 `json:"audioMime,omitempty"`
	AudioBytes       int                    `json:"audioBytes"`
	Generating       bool                   `json:"generating"`
	HasDraft         bool                   `json:"hasDraft"`
	CreatedAt        time.Time              `json:"createdAt"`
	LastAccess       time.Time              `json:"lastAccess"`
}

// snapshotLocked 调用方需持有 s.mu
func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:              s.ID,
		Locale:          s.locale.Code,
		FileName:        s.fileName,
		Period:          s.period,
		EmployeeCount:   len(s.employees),
		ValidationError: s.validation,
		Notes:           s.notes,
		HasAudio:        len(s.audio) > 0,
		AudioMIME:       s.audioMIME,
		AudioBytes:      len(s.audio),
		Generating:      s.generating.Load(),
		HasDraft:        !s.draft.IsEmpty(),
		CreatedAt:       s.CreatedAt,
		LastAccess:      s.lastAccess,
	}
	if s.selected >= 0 && s.selected < len(s.employees) {
		idx := s.selected
		emp := s.employees[idx]
		snap.SelectedIndex = &idx
		snap.SelectedEmployee = &emp
	}
	return snap
}

// clearReportLocked 清空报表相关状态
func (s *Session) clearReportLocked() {
	s.employees = nil
	s.validation = nil
	s.selected = -1
	s.draft = document.Document{}
}
