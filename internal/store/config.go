package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// 偏好键
const (
	KeyLastLocale = "last_locale"
)

// ErrConfigNotFound 配置项不存在
var ErrConfigNotFound = errors.New("config key not found")

// GetConfig 获取配置项
func (s *Store) GetConfig(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: %s", ErrConfigNotFound, key)
		}
		return "", err
	}
	return value, nil
}

// SetConfig 设置配置项
func (s *Store) SetConfig(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = ?, updated_at = CURRENT_TIMESTAMP
	`, key, value, value)
	return err
}

// LastLocale 最近一次使用的语言，未记录时返回空串
func (s *Store) LastLocale() (string, error) {
	v, err := s.GetConfig(KeyLastLocale)
	if errors.Is(err, ErrConfigNotFound) {
		return "", nil
	}
	return v, err
}

// SetLastLocale 记录最近使用的语言
func (s *Store) SetLastLocale(code string) error {
	return s.SetConfig(KeyLastLocale, code)
}
