package store

import (
	"fmt"
	"time"
)

// GenerationLog 反馈生成记录
type GenerationLog struct {
	ID           int64         `json:"id"`
	SessionID    string        `json:"sessionId"`
	Employee     string        `json:"employee"`
	Locale       string        `json:"locale"`
	Period       string        `json:"period"`
	HasAudio     bool          `json:"hasAudio"`
	Duration     time.Duration `json:"durationMs"`
	Status       string        `json:"status"`
	ErrorMessage string        `json:"errorMessage,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// ExportLog 导出记录
type ExportLog struct {
	ID           int64     `json:"id"`
	SessionID    string    `json:"sessionId"`
	Employee     string    `json:"employee"`
	Format       string    `json:"format"`
	Filename     string    `json:"filename"`
	FileSize     int64     `json:"fileSize"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// CreateGenerationLog 写入生成记录
func (s *Store) CreateGenerationLog(l GenerationLog) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO generation_logs (session_id, employee, locale, period, has_audio, duration_ms, status, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, l.SessionID, l.Employee, l.Locale, l.Period, l.HasAudio, l.Duration.Milliseconds(), l.Status, l.ErrorMessage)
	if err != nil {
		return 0, fmt.Errorf("failed to create generation log: %w", err)
	}
	return res.LastInsertId()
}

// ListGenerationLogs 列出会话的生成记录（按时间倒序）
func (s *Store) ListGenerationLogs(sessionID string) ([]GenerationLog, error) {
	rows, err := s.db.Query(`
		SELECT id, session_id, employee, locale, period, has_audio, duration_ms, status, error_message, created_at
		FROM generation_logs
		WHERE session_id = ?
		ORDER BY id DESC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query generation logs failed: %w", err)
	}
	defer rows.Close()

	var out []GenerationLog
	for rows.Next() {
		var it GenerationLog
		var ms int64
		if err := rows.Scan(&it.ID, &it.SessionID, &it.Employee, &it.Locale, &it.Period, &it.HasAudio,
			&ms, &it.Status, &it.ErrorMessage, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan generation log failed: %w", err)
		}
		it.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, it)
	}
	return out, rows.Err()
}

// CreateExportLog 写入导出记录
func (s *Store) CreateExportLog(l ExportLog) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO export_logs (session_id, employee, format, filename, file_size, status, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, l.SessionID, l.Employee, l.Format, l.Filename, l.FileSize, l.Status, l.ErrorMessage)
	if err != nil {
		return 0, fmt.Errorf("failed to create export log: %w", err)
	}
	return res.LastInsertId()
}

// ListExportLogs 列出会话的导出记录（按时间倒序）
func (s *Store) ListExportLogs(sessionID string) ([]ExportLog, error) {
	rows, err := s.db.Query(`
		SELECT id, session_id, employee, format, filename, file_size, status, error_message, created_at
		FROM export_logs
		WHERE session_id = ?
		ORDER BY id DESC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query export logs failed: %w", err)
	}
	defer rows.Close()

	var out []ExportLog
	for rows.Next() {
		var it ExportLog
		if err := rows.Scan(&it.ID, &it.SessionID, &it.Employee, &it.Format, &it.Filename, &it.FileSize,
			&it.Status, &it.ErrorMessage, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan export log failed: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
