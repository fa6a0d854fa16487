package store

import (
	"fmt"
	"time"
)

// 审计状态
const (
	StatusProcessing = "processing"
	StatusSuccess    = "success"
	StatusFailed     = "failed"
)

// ImportLog 报表上传记录
type ImportLog struct {
	ID           int64      `json:"id"`
	SessionID    string     `json:"sessionId"`
	Filename     string     `json:"filename"`
	FileSize     int64      `json:"fileSize"`
	FileHash     string     `json:"fileHash"`
	SheetName    string     `json:"sheetName"`
	HeaderRow    int        `json:"headerRow"`
	Period       string     `json:"period"`
	EmployeeRows int        `json:"employeeRows"`
	Status       string     `json:"status"`
	ErrorCode    string     `json:"errorCode,omitempty"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

// ImportOutcome 上传处理结果
type ImportOutcome struct {
	SheetName    string
	HeaderRow    int
	Period       string
	EmployeeRows int
	Status       string
	ErrorCode    string
	ErrorMessage string
}

// CreateImportLog 创建导入日志，返回 import_log_id
func (s *Store) CreateImportLog(sessionID, filename string, fileSize int64, fileHash string) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO import_logs (session_id, filename, file_size, file_hash, status)
		VALUES (?, ?, ?, ?, ?)
	`, sessionID, filename, fileSize, fileHash, StatusProcessing)
	if err != nil {
		return 0, fmt.Errorf("failed to create import log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get import log id: %w", err)
	}
	return id, nil
}

// UpdateImportLog 完成导入日志更新
func (s *Store) UpdateImportLog(id int64, out ImportOutcome) error {
	_, err := s.db.Exec(`
		UPDATE import_logs SET
			sheet_name = ?,
			header_row = ?,
			period = ?,
			employee_rows = ?,
			status = ?,
			error_code = ?,
			error_message = ?,
			completed_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, out.SheetName, out.HeaderRow, out.Period, out.EmployeeRows, out.Status, out.ErrorCode, out.ErrorMessage, id)
	if err != nil {
		return fmt.Errorf("failed to update import log: %w", err)
	}
	return nil
}

// ListImportLogs 按时间倒序列出最近的导入日志
func (s *Store) ListImportLogs(limit int) ([]ImportLog, error) {
	rows, err := s.db.Query(`
		SELECT id, session_id, filename, file_size, file_hash, sheet_name, header_row, period,
		       employee_rows, status, error_code, error_message, created_at, completed_at
		FROM import_logs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query import logs failed: %w", err)
	}
	defer rows.Close()

	var out []ImportLog
	for rows.Next() {
		var it ImportLog
		if err := rows.Scan(&it.ID, &it.SessionID, &it.Filename, &it.FileSize, &it.FileHash, &it.SheetName,
			&it.HeaderRow, &it.Period, &it.EmployeeRows, &it.Status, &it.ErrorCode, &it.ErrorMessage,
			&it.CreatedAt, &it.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan import log failed: %w", err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate import logs failed: %w", err)
	}
	return out, nil
}
