package review

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"feedbacktool/internal/i18n"
)

// ErrSessionNotFound 会话不存在或已过期
var ErrSessionNotFound = errors.New("session not found")

// MemoryStore 内存会话存储，空闲超过 ttl 的会话在访问时淘汰
type MemoryStore struct {
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
	mu       sync.RWMutex
}

// NewMemoryStore 创建内存存储，ttl <= 0 表示不过期
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// SetClock 替换时间来源
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Create 创建会话
func (s *MemoryStore) Create(locale *i18n.Locale, period string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sess := &Session{
		ID:         uuid.NewString(),
		CreatedAt:  now,
		lastAccess: now,
		locale:     locale,
		period:     period,
		selected:   -1,
	}
	s.sessions[sess.ID] = sess
	return sess
}

// Get 获取会话并刷新最近访问时间
func (s *MemoryStore) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	now := s.now()
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if s.expiredLocked(sess, now) {
		delete(s.sessions, id)
		return nil, ErrSessionNotFound
	}
	sess.lastAccess = now
	return sess, nil
}

// Delete 删除会话
func (s *MemoryStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}

// Count 当前会话数
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// PurgeExpired 清理过期会话，返回清理数量
func (s *MemoryStore) PurgeExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for id, sess := range s.sessions {
		sess.mu.Lock()
		expired := s.expiredLocked(sess, now)
		sess.mu.Unlock()
		if expired {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// expiredLocked 生成中的会话不过期；调用方需持有 sess.mu
func (s *MemoryStore) expiredLocked(sess *Session, now time.Time) bool {
	if s.ttl <= 0 || sess.generating.Load() {
		return false
	}
	return now.Sub(sess.lastAccess) > s.ttl
}
