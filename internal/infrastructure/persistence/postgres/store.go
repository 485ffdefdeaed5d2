// Package postgres 提供快照與 session 的 Postgres 持久化。
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	authApp "storefront-sync/internal/application/auth"
	cartApp "storefront-sync/internal/application/cart"
	authDomain "storefront-sync/internal/domain/auth"
	cartDomain "storefront-sync/internal/domain/cart"
)

// Store 提供 Postgres 資料存取，以 profile 為鍵保存購物車快照與登入狀態。
type Store struct {
	db *sql.DB
}

// NewStore 建立 Postgres 資料存取實例。
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// SaveSnapshot 以 profile 作為唯一鍵寫入或更新購物車快照。
func (s *Store) SaveSnapshot(ctx context.Context, profile string, snap cartDomain.Snapshot) error {
	items, err := json.Marshal(snap.Items)
	if err != nil {
		return fmt.Errorf("marshal snapshot items: %w", err)
	}
	const q = `
INSERT INTO cart_snapshots (profile, items, total_items, total_price, captured_at, updated_at)
VALUES ($1, $2, $3, $4, $5, NOW())
ON CONFLICT (profile)
DO UPDATE SET items = EXCLUDED.items,
              total_items = EXCLUDED.total_items,
              total_price = EXCLUDED.total_price,
              captured_at = EXCLUDED.captured_at,
              updated_at = NOW();
`
	_, err = s.db.ExecContext(ctx, q, profile, items, snap.TotalItems, snap.TotalPrice, snap.CapturedAt)
	return err
}

// LoadSnapshot 讀取指定 profile 的快照。
func (s *Store) LoadSnapshot(ctx context.Context, profile string) (cartDomain.Snapshot, error) {
	const q = `
SELECT items, total_items, total_price, captured_at
FROM cart_snapshots
WHERE profile = $1;
`
	var snap cartDomain.Snapshot
	var items []byte
	err := s.db.QueryRowContext(ctx, q, profile).Scan(&items, &snap.TotalItems, &snap.TotalPrice, &snap.CapturedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return cartDomain.Snapshot{}, cartApp.ErrSnapshotNotFound
	}
	if err != nil {
		return cartDomain.Snapshot{}, err
	}
	if err := json.Unmarshal(items, &snap.Items); err != nil {
		return cartDomain.Snapshot{}, fmt.Errorf("unmarshal snapshot items: %w", err)
	}
	return snap, nil
}

// DeleteSnapshot 刪除指定 profile 的快照。不存在時視為成功。
func (s *Store) DeleteSnapshot(ctx context.Context, profile string) error {
	const q = `DELETE FROM cart_snapshots WHERE profile = $1;`
	_, err := s.db.ExecContext(ctx, q, profile)
	return err
}

// SaveSession 以 profile 作為唯一鍵寫入或更新登入狀態。
func (s *Store) SaveSession(ctx context.Context, profile string, sess authDomain.Session) error {
	const q = `
INSERT INTO sessions (profile, user_id, access_token, refresh_token, access_expiry, saved_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, NOW())
ON CONFLICT (profile)
DO UPDATE SET user_id = EXCLUDED.user_id,
              access_token = EXCLUDED.access_token,
              refresh_token = EXCLUDED.refresh_token,
              access_expiry = EXCLUDED.access_expiry,
              saved_at = EXCLUDED.saved_at,
              updated_at = NOW();
`
	_, err := s.db.ExecContext(ctx, q, profile, sess.UserID, sess.AccessToken, sess.RefreshToken, sess.AccessExpiry, sess.SavedAt)
	return err
}

// LoadSession 讀取指定 profile 的登入狀態。
func (s *Store) LoadSession(ctx context.Context, profile string) (authDomain.Session, error) {
	const q = `
SELECT user_id, access_token, refresh_token, access_expiry, saved_at
FROM sessions
WHERE profile = $1;
`
	var sess authDomain.Session
	err := s.db.QueryRowContext(ctx, q, profile).Scan(
		&sess.UserID,
		&sess.AccessToken,
		&sess.RefreshToken,
		&sess.AccessExpiry,
		&sess.SavedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return authDomain.Session{}, authApp.ErrSessionNotFound
	}
	if err != nil {
		return authDomain.Session{}, err
	}
	return sess, nil
}

// DeleteSession 刪除指定 profile 的登入狀態。不存在時視為成功。
func (s *Store) DeleteSession(ctx context.Context, profile string) error {
	const q = `DELETE FROM sessions WHERE profile = $1;`
	_, err := s.db.ExecContext(ctx, q, profile)
	return err
}
