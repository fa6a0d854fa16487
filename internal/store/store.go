package store

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaFS embed.FS

const sqliteParams = "?_journal_mode=WAL&_busy_timeout=5000"

// Store 审计日志与偏好存储（SQLite）
//
// 记录报表上传、反馈生成与导出，供 history 命令查询。
// 会话内容本身只在内存中，不落盘。
type Store struct {
	db *sql.DB
}

// New 打开（必要时创建）审计库
func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create audit dir %s: %w", filepath.Dir(path), err)
	}

	db, err := sql.Open("sqlite3", path+sqliteParams)
	if err != nil {
		return nil, fmt.Errorf("open audit db %s: %w", path, err)
	}
	// 单写者
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit db %s unreachable: %w", path, err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// migrate 建表，语句均为 IF NOT EXISTS，可重复执行
func (s *Store) migrate() error {
	ddl, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("read audit schema: %w", err)
	}
	if _, err := s.db.Exec(string(ddl)); err != nil {
		return fmt.Errorf("apply audit schema: %w", err)
	}
	return nil
}

// Close 关闭审计库
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
