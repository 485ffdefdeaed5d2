// Package memory 提供未設定資料庫時使用的記憶體儲存。
package memory

import (
	"context"
	"sync"

	authApp "storefront-sync/internal/application/auth"
	cartApp "storefront-sync/internal/application/cart"
	authDomain "storefront-sync/internal/domain/auth"
	cartDomain "storefront-sync/internal/domain/cart"
)

// Store 以 profile 為鍵保存購物車快照與登入狀態，行程結束即消失。
type Store struct {
	mu        sync.RWMutex
	snapshots map[string]cartDomain.Snapshot
	sessions  map[string]authDomain.Session
}

// NewStore 建立新的記憶體 Store 實例。
func NewStore() *Store {
	return &Store{
		snapshots: make(map[string]cartDomain.Snapshot),
		sessions:  make(map[string]authDomain.Session),
	}
}

func (s *Store) SaveSnapshot(ctx context.Context, profile string, snap cartDomain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[profile] = snap
	return nil
}

func (s *Store) LoadSnapshot(ctx context.Context, profile string) (cartDomain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[profile]
	if !ok {
		return cartDomain.Snapshot{}, cartApp.ErrSnapshotNotFound
	}
	return snap, nil
}

func (s *Store) DeleteSnapshot(ctx context.Context, profile string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, profile)
	return nil
}

func (s *Store) SaveSession(ctx context.Context, profile string, sess authDomain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[profile] = sess
	return nil
}

func (s *Store) LoadSession(ctx context.Context, profile string) (authDomain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[profile]
	if !ok {
		return authDomain.Session{}, authApp.ErrSessionNotFound
	}
	return sess, nil
}

func (s *Store) DeleteSession(ctx context.Context, profile string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, profile)
	return nil
}
