package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	cartApp "storefront-sync/internal/application/cart"
	cartDomain "storefront-sync/internal/domain/cart"
)

// SaveSnapshot 將快照寫入 profile 對應的檔案。
func (s *Store) SaveSnapshot(ctx context.Context, profile string, snap cartDomain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return writeFileAtomic(s.snapshotPath(profile), data, 0o600)
}

// LoadSnapshot 讀取 profile 對應的快照。
func (s *Store) LoadSnapshot(ctx context.Context, profile string) (cartDomain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.snapshotPath(profile))
	if errors.Is(err, os.ErrNotExist) {
		return cartDomain.Snapshot{}, cartApp.ErrSnapshotNotFound
	}
	if err != nil {
		return cartDomain.Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	var snap cartDomain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return cartDomain.Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return snap, nil
}

// DeleteSnapshot 移除 profile 對應的快照檔。不存在時視為成功。
func (s *Store) DeleteSnapshot(ctx context.Context, profile string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.snapshotPath(profile))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
