package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	authDomain "storefront-sync/internal/domain/auth"
)

type fakeRefresher struct {
	calls   int32
	token   string
	err     error
	release chan struct{} // optional: block until closed
}

func (f *fakeRefresher) RefreshSession(ctx context.Context, userID string) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return "", f.err
	}
	return f.token, nil
}

type fakeDecoder struct {
	claims map[string]authDomain.Claims
}

func (f fakeDecoder) Decode(token string) (authDomain.Claims, error) {
	c, ok := f.claims[token]
	if !ok {
		return authDomain.Claims{}, fmt.Errorf("unknown token %q", token)
	}
	return c, nil
}

type fakeSessionStore struct {
	mu      sync.Mutex
	saved   map[string]authDomain.Session
	deletes int
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{saved: make(map[string]authDomain.Session)}
}

func (f *fakeSessionStore) SaveSession(ctx context.Context, profile string, sess authDomain.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved[profile] = sess
	return nil
}

func (f *fakeSessionStore) LoadSession(ctx context.Context, profile string) (authDomain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.saved[profile]
	if !ok {
		return authDomain.Session{}, ErrSessionNotFound
	}
	return s, nil
}

func (f *fakeSessionStore) DeleteSession(ctx context.Context, profile string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	delete(f.saved, profile)
	return nil
}

func testNow() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func newTestManager(r Refresher, d ClaimsDecoder, s SessionStore) *Manager {
	m := NewManager(r, d, s, "default", DefaultExpiryBuffer)
	m.now = testNow
	return m
}

func seedLogin(t *testing.T, m *Manager, token string) {
	t.Helper()
	if err := m.SetTokens(context.Background(), token, "", "u1"); err != nil {
		t.Fatalf("SetTokens failed: %v", err)
	}
}

func TestManager_SingleFlightRefresh(t *testing.T) {
	now := testNow()
	refresher := &fakeRefresher{token: "tok2", release: make(chan struct{})}
	decoder := fakeDecoder{claims: map[string]authDomain.Claims{
		"tok1": {UserID: "u1", ExpiresAt: now.Add(2 * time.Minute)},
		"tok2": {UserID: "u1", ExpiresAt: now.Add(time.Hour)},
	}}
	m := newTestManager(refresher, decoder, nil)
	seedLogin(t, m, "tok1")

	const n = 10
	results := make(chan string, n)
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			tok, err := m.Refresh(context.Background())
			results <- tok
			errs <- err
		}()
	}
	// let every goroutine park inside the shared flight before releasing it
	time.Sleep(50 * time.Millisecond)
	close(refresher.release)

	for i := 0; i < n; i++ {
		if tok := <-results; tok != "tok2" {
			t.Errorf("caller %d got token %q, want tok2", i, tok)
		}
		if err := <-errs; err != nil {
			t.Errorf("caller %d got error: %v", i, err)
		}
	}
	if calls := atomic.LoadInt32(&refresher.calls); calls != 1 {
		t.Errorf("expected exactly 1 refresh call, got %d", calls)
	}
}

func TestManager_SingleFlightRefresh_SharedFailure(t *testing.T) {
	now := testNow()
	refresher := &fakeRefresher{err: errors.New("refresh rejected"), release: make(chan struct{})}
	decoder := fakeDecoder{claims: map[string]authDomain.Claims{
		"tok1": {UserID: "u1", ExpiresAt: now.Add(2 * time.Minute)},
	}}
	store := newFakeSessionStore()
	m := newTestManager(refresher, decoder, store)
	seedLogin(t, m, "tok1")

	const n = 5
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			_, err := m.Refresh(context.Background())
			errs <- err
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(refresher.release)

	for i := 0; i < n; i++ {
		if err := <-errs; err == nil {
			t.Errorf("caller %d expected the shared rejection", i)
		}
	}
	if calls := atomic.LoadInt32(&refresher.calls); calls != 1 {
		t.Errorf("expected exactly 1 refresh call, got %d", calls)
	}
	if m.IsAuthenticated() {
		t.Error("failed refresh must clear credentials")
	}
	store.mu.Lock()
	deletes := store.deletes
	store.mu.Unlock()
	if deletes == 0 {
		t.Error("failed refresh must delete the persisted session")
	}
}

func TestManager_ExpiryBoundary(t *testing.T) {
	now := testNow()
	decoder := fakeDecoder{claims: map[string]authDomain.Claims{
		"soon":  {UserID: "u1", ExpiresAt: now.Add(4 * time.Minute)},
		"later": {UserID: "u1", ExpiresAt: now.Add(10 * time.Minute)},
	}}
	m := newTestManager(&fakeRefresher{}, decoder, nil)

	seedLogin(t, m, "soon")
	if !m.IsExpiringSoon() {
		t.Error("expiry in 4m must be inside the 5m buffer")
	}
	if !m.IsAuthenticated() {
		t.Error("token inside the buffer is still authenticated")
	}

	seedLogin(t, m, "later")
	if m.IsExpiringSoon() {
		t.Error("expiry in 10m must be outside the 5m buffer")
	}
}

func TestManager_TokenPreemptiveRefresh(t *testing.T) {
	now := testNow()
	refresher := &fakeRefresher{token: "fresh"}
	decoder := fakeDecoder{claims: map[string]authDomain.Claims{
		"soon":  {UserID: "u1", ExpiresAt: now.Add(4 * time.Minute)},
		"fresh": {UserID: "u1", ExpiresAt: now.Add(time.Hour)},
	}}
	m := newTestManager(refresher, decoder, nil)
	seedLogin(t, m, "soon")

	tok, err := m.Token(context.Background())
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if tok != "fresh" {
		t.Errorf("expected preemptive refresh to return fresh token, got %q", tok)
	}

	// second call: token is outside the window now, no further refresh
	tok, err = m.Token(context.Background())
	if err != nil || tok != "fresh" {
		t.Fatalf("expected cached fresh token, got %q (%v)", tok, err)
	}
	if calls := atomic.LoadInt32(&refresher.calls); calls != 1 {
		t.Errorf("expected 1 refresh call, got %d", calls)
	}
}

func TestManager_TokenAnonymous(t *testing.T) {
	m := newTestManager(&fakeRefresher{}, fakeDecoder{}, nil)
	tok, err := m.Token(context.Background())
	if err != nil {
		t.Fatalf("anonymous Token must not error: %v", err)
	}
	if tok != "" {
		t.Errorf("anonymous Token must be empty, got %q", tok)
	}
	if _, err := m.Refresh(context.Background()); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("anonymous refresh must fail with ErrNotAuthenticated, got %v", err)
	}
}

func TestManager_RestoreAndClear(t *testing.T) {
	now := testNow()
	store := newFakeSessionStore()
	store.saved["default"] = authDomain.Session{
		UserID:       "u1",
		AccessToken:  "tok1",
		AccessExpiry: now.Add(time.Hour),
		SavedAt:      now.Add(-time.Hour),
	}
	decoder := fakeDecoder{claims: map[string]authDomain.Claims{
		"tok1": {UserID: "u1", ExpiresAt: now.Add(time.Hour)},
	}}
	m := newTestManager(&fakeRefresher{}, decoder, store)

	if err := m.Restore(context.Background()); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if !m.IsAuthenticated() || m.UserID() != "u1" {
		t.Fatal("expected restored authenticated session")
	}

	m.Clear(context.Background())
	if m.IsAuthenticated() || m.UserID() != "" {
		t.Error("Clear must null all credential state")
	}
	store.mu.Lock()
	_, remains := store.saved["default"]
	store.mu.Unlock()
	if remains {
		t.Error("Clear must remove the persisted session")
	}
}

func TestManager_SubscribeEvents(t *testing.T) {
	now := testNow()
	decoder := fakeDecoder{claims: map[string]authDomain.Claims{
		"tok1": {UserID: "u1", ExpiresAt: now.Add(time.Hour)},
	}}
	m := newTestManager(&fakeRefresher{}, decoder, nil)

	var got []Event
	unsub := m.Subscribe(func(ev Event) { got = append(got, ev) })

	seedLogin(t, m, "tok1")
	m.Clear(context.Background())
	unsub()
	m.Clear(context.Background()) // no user: no event, and we are unsubscribed anyway

	want := []Event{EventLogin, EventLogout}
	if len(got) != len(want) {
		t.Fatalf("expected events %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}
