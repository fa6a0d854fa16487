// Package review 编排一次审阅会话：加载报表、选择员工、生成并编辑反馈、导出文档。
package review

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"feedbacktool/internal/ai"
	"feedbacktool/internal/document"
	"feedbacktool/internal/exporter"
	"feedbacktool/internal/i18n"
	"feedbacktool/internal/metrics"
	"feedbacktool/internal/model"
	"feedbacktool/internal/parser"
	"feedbacktool/internal/store"
)

var (
	ErrGenerationInProgress = errors.New("generation already in progress")
	ErrGenerationFailed     = errors.New("generation failed")
	ErrNoEmployeeSelected   = errors.New("no employee selected")
	ErrEmployeeOutOfRange   = errors.New("employee index out of range")
	ErrNoDraft              = errors.New("no draft")
	ErrEmptyAudio           = errors.New("audio recording is empty")
	ErrAudioTooLarge        = errors.New("audio recording too large")
)

const defaultAudioMIME = "audio/webm"

// AuditLog 审计记录（SQLite 实现见 store.Store）
type AuditLog interface {
	CreateImportLog(sessionID, filename string, fileSize int64, fileHash string) (int64, error)
	UpdateImportLog(id int64, out store.ImportOutcome) error
	CreateGenerationLog(l store.GenerationLog) (int64, error)
	CreateExportLog(l store.ExportLog) (int64, error)
	LastLocale() (string, error)
	SetLastLocale(code string) error
}

// Options 服务依赖
type Options struct {
	Sessions      *MemoryStore
	Locales       i18n.Localizer
	Generator     ai.Generator
	Exporter      *exporter.Exporter
	Audit         AuditLog         // 可为 nil
	Metrics       *metrics.Manager // 可为 nil
	MaxAudioBytes int64
	Timeout       time.Duration // 单次生成超时，<= 0 表示仅受 ctx 约束
	Now           func() time.Time
}

// Service 审阅编排服务
type Service struct {
	sessions      *MemoryStore
	locales       i18n.Localizer
	generator     ai.Generator
	exporter      *exporter.Exporter
	audit         AuditLog
	metrics       *metrics.Manager
	maxAudioBytes int64
	timeout       time.Duration
	now           func() time.Time
	logger        *zap.Logger
}

// NewService 创建服务
func NewService(opts Options) *Service {
	s := &Service{
		sessions:      opts.Sessions,
		locales:       opts.Locales,
		generator:     opts.Generator,
		exporter:      opts.Exporter,
		audit:         opts.Audit,
		metrics:       opts.Metrics,
		maxAudioBytes: opts.MaxAudioBytes,
		timeout:       opts.Timeout,
		now:           opts.Now,
		logger:        zap.L().Named("review.service"),
	}
	if s.sessions == nil {
		s.sessions = NewMemoryStore(0)
	}
	if s.exporter == nil {
		s.exporter = exporter.NewExporter(exporter.Options{})
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// SessionCount 当前会话数
func (s *Service) SessionCount() int {
	return s.sessions.Count()
}

// PurgeExpired 清理过期会话
func (s *Service) PurgeExpired() int {
	n := s.sessions.PurgeExpired()
	s.metrics.SetActiveSessions(s.sessions.Count())
	return n
}

// resolveLocale 语言优先级：显式代码 > 上次使用 > Accept-Language > 默认
func (s *Service) resolveLocale(code, acceptLanguage string) (*i18n.Locale, error) {
	if code != "" {
		return s.locales.Locale(code)
	}
	if s.audit != nil {
		if last, err := s.audit.LastLocale(); err == nil && last != "" {
			if loc, err := s.locales.Locale(last); err == nil {
				return loc, nil
			}
		}
	}
	if acceptLanguage != "" {
		return s.locales.Match(acceptLanguage), nil
	}
	return s.locales.Default(), nil
}

// CreateSession 创建会话，期间默认为上一个自然月
func (s *Service) CreateSession(code, acceptLanguage string) (Snapshot, error) {
	loc, err := s.resolveLocale(code, acceptLanguage)
	if err != nil {
		return Snapshot{}, err
	}
	sess := s.sessions.Create(loc, parser.PreviousMonthLabel(loc, s.now()))
	s.metrics.SetActiveSessions(s.sessions.Count())
	s.logger.Info("session created", zap.String("session", sess.ID), zap.String("locale", loc.Code))

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.snapshotLocked(), nil
}

// Session 会话快照
func (s *Service) Session(id string) (Snapshot, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return Snapshot{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.snapshotLocked(), nil
}

// DeleteSession 删除会话
func (s *Service) DeleteSession(id string) error {
	if !s.sessions.Delete(id) {
		return ErrSessionNotFound
	}
	s.metrics.SetActiveSessions(s.sessions.Count())
	return nil
}

// SetLocale 切换语言；尚未上传报表时按新语言重新生成默认期间
func (s *Service) SetLocale(id, code string) (Snapshot, error) {
	loc, err := s.locales.Locale(code)
	if err != nil {
		return Snapshot{}, err
	}
	sess, err := s.sessions.Get(id)
	if err != nil {
		return Snapshot{}, err
	}

	sess.mu.Lock()
	sess.locale = loc
	if !sess.fromFile {
		sess.period = parser.PreviousMonthLabel(loc, s.now())
	}
	snap := sess.snapshotLocked()
	sess.mu.Unlock()

	if s.audit != nil {
		if err := s.audit.SetLastLocale(loc.Code); err != nil {
			s.logger.Warn("persist locale failed", zap.Error(err))
		}
	}
	return snap, nil
}

// LoadOutcome 报表加载结果
type LoadOutcome struct {
	Period    string                  `json:"period"`
	SheetName string                  `json:"sheetName,omitempty"`
	HeaderRow int                     `json:"headerRow,omitempty"`
	Employees []model.EmployeeMetrics `json:"employees"`
}

// LoadReport 加载绩效报表
//
// 成功时替换记录与期间并清空选择和草稿；表头校验失败时清空记录并保存错误，
// 期间仍更新为报表中识别到的值；工作表缺失、空文件、无法解析时会话状态不变。
// 生成进行中时拒绝加载。
func (s *Service) LoadReport(id, filename string, data []byte) (*LoadOutcome, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}

	if sess.generating.Load() {
		return nil, ErrGenerationInProgress
	}

	sum := sha256.Sum256(data)
	logID := s.startImportLog(id, filename, int64(len(data)), hex.EncodeToString(sum[:]))

	sess.mu.Lock()
	if sess.generating.Load() {
		sess.mu.Unlock()
		s.finishImportLog(logID, store.ImportOutcome{Status: store.StatusFailed, ErrorMessage: ErrGenerationInProgress.Error()})
		return nil, ErrGenerationInProgress
	}
	loader := parser.NewLoader(sess.locale)
	loader.SetClock(s.now)
	res, loadErr := loader.Load(data)

	var outcome store.ImportOutcome
	switch {
	case loadErr == nil:
		sess.clearReportLocked()
		sess.fileName = filename
		sess.fromFile = true
		sess.period = res.Period
		sess.employees = res.Employees
		outcome = store.ImportOutcome{
			SheetName:    res.SheetName,
			HeaderRow:    res.HeaderRow,
			Period:       res.Period,
			EmployeeRows: len(res.Employees),
			Status:       store.StatusSuccess,
		}
	case res != nil:
		// 表头校验失败，期间已识别
		ve, _ := parser.IsValidationError(loadErr)
		sess.clearReportLocked()
		sess.fileName = filename
		sess.fromFile = true
		sess.period = res.Period
		sess.validation = ve
		outcome = store.ImportOutcome{
			SheetName:    res.SheetName,
			Period:       res.Period,
			Status:       store.StatusFailed,
			ErrorCode:    string(ve.Kind),
			ErrorMessage: loadErr.Error(),
		}
	default:
		outcome = store.ImportOutcome{Status: store.StatusFailed, ErrorMessage: loadErr.Error()}
	}
	sess.mu.Unlock()

	s.finishImportLog(logID, outcome)

	if loadErr != nil {
		result := metrics.ResultFailed
		if res != nil {
			result = metrics.ResultRejected
		}
		s.metrics.RecordUpload(result, 0)
		s.logger.Info("report rejected", zap.String("session", id), zap.String("file", filename), zap.Error(loadErr))
		if res != nil {
			return &LoadOutcome{Period: res.Period, SheetName: res.SheetName, Employees: []model.EmployeeMetrics{}}, loadErr
		}
		return nil, loadErr
	}

	s.metrics.RecordUpload(metrics.ResultSuccess, len(res.Employees))
	s.logger.Info("report loaded",
		zap.String("session", id),
		zap.String("file", filename),
		zap.Int("employees", len(res.Employees)),
		zap.String("period", res.Period),
	)
	return &LoadOutcome{
		Period:    res.Period,
		SheetName: res.SheetName,
		HeaderRow: res.HeaderRow,
		Employees: res.Employees,
	}, nil
}

func (s *Service) startImportLog(sessionID, filename string, size int64, hash string) int64 {
	if s.audit == nil {
		return 0
	}
	id, err := s.audit.CreateImportLog(sessionID, filename, size, hash)
	if err != nil {
		s.logger.Warn("create import log failed", zap.Error(err))
		return 0
	}
	return id
}

func (s *Service) finishImportLog(id int64, out store.ImportOutcome) {
	if s.audit == nil || id == 0 {
		return
	}
	if err := s.audit.UpdateImportLog(id, out); err != nil {
		s.logger.Warn("update import log failed", zap.Error(err))
	}
}

// EmployeeEntry 带原始序号的员工记录
type EmployeeEntry struct {
	Index    int                   `json:"index"`
	Employee model.EmployeeMetrics `json:"employee"`
}

// Employees 按姓名筛选（不区分大小写的子串匹配），保留报表顺序
func (s *Service) Employees(id, query string) ([]EmployeeEntry, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	q := strings.ToLower(query)
	out := make([]EmployeeEntry, 0, len(sess.employees))
	for i, e := range sess.employees {
		if strings.Contains(strings.ToLower(e.FullName), q) {
			out = append(out, EmployeeEntry{Index: i, Employee: e})
		}
	}
	return out, nil
}

// Select 选择员工并清空当前草稿，生成进行中时拒绝
func (s *Service) Select(id string, index int) (Snapshot, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return Snapshot{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	// 锁内检查：Generate 置位后才读取选择
	if sess.generating.Load() {
		return Snapshot{}, ErrGenerationInProgress
	}

	if index < 0 || index >= len(sess.employees) {
		return Snapshot{}, fmt.Errorf("%w: %d", ErrEmployeeOutOfRange, index)
	}
	sess.selected = index
	sess.draft = document.Document{}
	return sess.snapshotLocked(), nil
}

// SetNotes 更新备注
func (s *Service) SetNotes(id, notes string) error {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	sess.notes = notes
	sess.mu.Unlock()
	return nil
}

// SetAudio 保存录音（替换已有录音）
func (s *Service) SetAudio(id string, data []byte, mime string) error {
	if len(data) == 0 {
		return ErrEmptyAudio
	}
	if s.maxAudioBytes > 0 && int64(len(data)) > s.maxAudioBytes {
		return fmt.Errorf("%w: %d bytes", ErrAudioTooLarge, len(data))
	}
	sess, err := s.sessions.Get(id)
	if err != nil {
		return err
	}
	if mime == "" {
		mime = defaultAudioMIME
	}
	sess.mu.Lock()
	sess.audio = data
	sess.audioMIME = mime
	sess.mu.Unlock()
	return nil
}

// ClearAudio 删除录音
func (s *Service) ClearAudio(id string) error {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	sess.audio = nil
	sess.audioMIME = ""
	sess.mu.Unlock()
	return nil
}

// Draft 草稿视图
type Draft struct {
	HTML       string               `json:"html"`
	Text       string               `json:"text"`
	Paragraphs []document.Paragraph `json:"paragraphs"`
	Empty      bool                 `json:"empty"`
}

func newDraft(doc document.Document) Draft {
	paragraphs := doc.Paragraphs
	if paragraphs == nil {
		paragraphs = []document.Paragraph{}
	}
	return Draft{
		HTML:       doc.HTML(),
		Text:       doc.PlainText(),
		Paragraphs: paragraphs,
		Empty:      doc.IsEmpty(),
	}
}

// Generate 为当前选中的员工生成反馈草稿
//
// 每个会话同一时间只允许一次生成；调用前清空草稿，失败时草稿保持为空。
func (s *Service) Generate(ctx context.Context, id string) (Draft, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return Draft{}, err
	}
	if !sess.generating.CompareAndSwap(false, true) {
		return Draft{}, ErrGenerationInProgress
	}
	defer sess.generating.Store(false)

	sess.mu.Lock()
	if sess.selected < 0 || sess.selected >= len(sess.employees) {
		sess.mu.Unlock()
		return Draft{}, ErrNoEmployeeSelected
	}
	req := ai.Request{
		Employee: sess.employees[sess.selected],
		Notes:    sess.notes,
		Period:   sess.period,
		Locale:   sess.locale.Code,
	}
	if len(sess.audio) > 0 {
		req.AudioBase64 = base64.StdEncoding.EncodeToString(sess.audio)
		req.AudioMIME = sess.audioMIME
	}
	sess.draft = document.Document{}
	sess.mu.Unlock()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	s.metrics.GenerationStarted()
	start := time.Now()
	text, genErr := s.generator.Generate(ctx, req)
	elapsed := time.Since(start)

	entry := store.GenerationLog{
		SessionID: id,
		Employee:  req.Employee.FullName,
		Locale:    req.Locale,
		Period:    req.Period,
		HasAudio:  req.HasAudio(),
		Duration:  elapsed,
		Status:    store.StatusSuccess,
	}
	if genErr != nil {
		entry.Status = store.StatusFailed
		entry.ErrorMessage = genErr.Error()
	}
	s.recordGeneration(entry)

	if genErr != nil {
		s.metrics.RecordGeneration(metrics.ResultFailed, elapsed)
		s.logger.Warn("generation failed",
			zap.String("session", id),
			zap.String("employee", req.Employee.FullName),
			zap.Duration("elapsed", elapsed),
			zap.Error(genErr),
		)
		return Draft{}, fmt.Errorf("%w: %w", ErrGenerationFailed, genErr)
	}
	s.metrics.RecordGeneration(metrics.ResultSuccess, elapsed)

	html := strings.ReplaceAll(strings.ReplaceAll(text, "\r\n", "\n"), "\n", "<br>")
	doc := document.ParseHTML(html)

	sess.mu.Lock()
	sess.draft = doc
	sess.mu.Unlock()

	s.logger.Info("feedback generated",
		zap.String("session", id),
		zap.String("employee", req.Employee.FullName),
		zap.Bool("audio", req.HasAudio()),
		zap.Duration("elapsed", elapsed),
	)
	return newDraft(doc), nil
}

func (s *Service) recordGeneration(entry store.GenerationLog) {
	if s.audit == nil {
		return
	}
	if _, err := s.audit.CreateGenerationLog(entry); err != nil {
		s.logger.Warn("create generation log failed", zap.Error(err))
	}
}

// Draft 当前草稿
func (s *Service) Draft(id string) (Draft, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return Draft{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return newDraft(sess.draft), nil
}

// ReplaceDraft 以编辑器 HTML 整体替换草稿
func (s *Service) ReplaceDraft(id, html string) (Draft, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return Draft{}, err
	}
	if sess.generating.Load() {
		return Draft{}, ErrGenerationInProgress
	}
	doc := document.ParseHTML(html)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.draft = doc
	return newDraft(doc), nil
}

// ApplyCommand 对草稿执行编辑命令，失败时草稿不变
func (s *Service) ApplyCommand(id string, cmd document.Command) (Draft, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return Draft{}, err
	}
	if sess.generating.Load() {
		return Draft{}, ErrGenerationInProgress
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	doc := sess.draft.Clone()
	if err := doc.Apply(cmd); err != nil {
		return Draft{}, err
	}
	sess.draft = doc
	return newDraft(doc), nil
}

// ExportResult 导出结果
type ExportResult struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Export 导出当前草稿
func (s *Service) Export(id string, format exporter.Format, progress func(exporter.ProgressEvent)) (*ExportResult, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	if sess.selected < 0 || sess.selected >= len(sess.employees) {
		sess.mu.Unlock()
		return nil, ErrNoEmployeeSelected
	}
	if sess.draft.IsEmpty() {
		sess.mu.Unlock()
		return nil, ErrNoDraft
	}
	loc := sess.locale
	name := sess.employees[sess.selected].FullName
	in := exporter.Input{
		EmployeeName: name,
		Period:       sess.period,
		TitlePrefix:  loc.T("exportTitle"),
		PeriodLabel:  loc.T("periodLabel"),
		Language:     loc.Tag,
		Document:     sess.draft.Clone(),
	}
	sess.mu.Unlock()

	filename := exporter.FileName(loc.T("filePrefix"), name, in.Period, format.Extension())

	var buf bytes.Buffer
	size, expErr := s.exporter.Export(&buf, format, in, progress)

	entry := store.ExportLog{
		SessionID: id,
		Employee:  name,
		Format:    string(format),
		Filename:  filename,
		FileSize:  size,
		Status:    store.StatusSuccess,
	}
	result := metrics.ResultSuccess
	if expErr != nil {
		entry.Status = store.StatusFailed
		entry.ErrorMessage = expErr.Error()
		result = metrics.ResultFailed
	}
	if s.audit != nil {
		if _, err := s.audit.CreateExportLog(entry); err != nil {
			s.logger.Warn("create export log failed", zap.Error(err))
		}
	}
	s.metrics.RecordExport(string(format), result, size)

	if expErr != nil {
		s.logger.Error("export failed", zap.String("session", id), zap.String("format", string(format)), zap.Error(expErr))
		return nil, expErr
	}
	return &ExportResult{
		FileName:    filename,
		ContentType: format.ContentType(),
		Data:        buf.Bytes(),
	}, nil
}
