package file

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/nacl/secretbox"

	authApp "storefront-sync/internal/application/auth"
	authDomain "storefront-sync/internal/domain/auth"
)

const nonceSize = 24

// seal 以 secretbox 加密，nonce 前置於密文。
func (s *Store) seal(plaintext []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], plaintext, &nonce, &s.key), nil
}

func (s *Store) open(sealed []byte) ([]byte, error) {
	if len(sealed) < nonceSize {
		return nil, errors.New("sealed session too short")
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	plaintext, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &s.key)
	if !ok {
		return nil, errors.New("session decryption failed")
	}
	return plaintext, nil
}

// SaveSession 加密後寫入 profile 對應的檔案。
func (s *Store) SaveSession(ctx context.Context, profile string, sess authDomain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	plaintext, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	sealed, err := s.seal(plaintext)
	if err != nil {
		return err
	}
	return writeFileAtomic(s.sessionPath(profile), sealed, 0o600)
}

// LoadSession 讀取並解密 profile 對應的登入狀態。
// 解密失敗（金鑰已換或檔案損毀）視為不存在，呼叫端重新登入即可。
func (s *Store) LoadSession(ctx context.Context, profile string) (authDomain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sealed, err := os.ReadFile(s.sessionPath(profile))
	if errors.Is(err, os.ErrNotExist) {
		return authDomain.Session{}, authApp.ErrSessionNotFound
	}
	if err != nil {
		return authDomain.Session{}, fmt.Errorf("read session: %w", err)
	}
	plaintext, err := s.open(sealed)
	if err != nil {
		return authDomain.Session{}, authApp.ErrSessionNotFound
	}
	var sess authDomain.Session
	if err := json.Unmarshal(plaintext, &sess); err != nil {
		return authDomain.Session{}, fmt.Errorf("unmarshal session: %w", err)
	}
	return sess, nil
}

// DeleteSession 移除 profile 對應的 session 檔。不存在時視為成功。
func (s *Store) DeleteSession(ctx context.Context, profile string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.sessionPath(profile))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
