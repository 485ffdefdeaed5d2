// Package file 提供快照與 session 的本機檔案持久化。
// 快照為純 JSON；session 內含憑證，以 NaCl secretbox 加密後落盤。
package file

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
)

// 金鑰檔與資料檔同目錄；未提供 seal key 時自動產生並重複使用。
const keyFileName = "seal.key"

type Store struct {
	dir string
	key [32]byte
	mu  sync.Mutex
}

// NewStore 建立檔案儲存。sealKey 非空時以其衍生加密金鑰，
// 否則自 dir 下的金鑰檔載入或產生一把。
func NewStore(dir, sealKey string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	s := &Store{dir: dir}
	if sealKey != "" {
		s.key = sha256.Sum256([]byte(sealKey))
		return s, nil
	}
	key, err := loadOrCreateKey(filepath.Join(dir, keyFileName))
	if err != nil {
		return nil, err
	}
	s.key = key
	return s, nil
}

func loadOrCreateKey(path string) ([32]byte, error) {
	var key [32]byte
	data, err := os.ReadFile(path)
	if err == nil && len(data) == len(key) {
		copy(key[:], data)
		return key, nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return key, fmt.Errorf("read seal key: %w", err)
	}
	if _, err := rand.Read(key[:]); err != nil {
		return key, fmt.Errorf("generate seal key: %w", err)
	}
	if err := os.WriteFile(path, key[:], 0o600); err != nil {
		return key, fmt.Errorf("write seal key: %w", err)
	}
	return key, nil
}

func (s *Store) snapshotPath(profile string) string {
	return filepath.Join(s.dir, "snapshot_"+url.PathEscape(profile)+".json")
}

func (s *Store) sessionPath(profile string) string {
	return filepath.Join(s.dir, "session_"+url.PathEscape(profile)+".bin")
}

// writeFileAtomic 先寫暫存檔再改名，避免中斷留下半寫的檔案。
func writeFileAtomic(path string, data []byte, mode os.FileMode) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, mode); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
