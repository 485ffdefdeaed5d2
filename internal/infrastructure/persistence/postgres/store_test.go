package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	authApp "storefront-sync/internal/application/auth"
	cartApp "storefront-sync/internal/application/cart"
	authDomain "storefront-sync/internal/domain/auth"
	cartDomain "storefront-sync/internal/domain/cart"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestStore_SaveSnapshot(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %s", err)
	}
	defer db.Close()

	store := NewStore(db)
	ctx := context.Background()

	snap := cartDomain.Snapshot{
		Items:      []cartDomain.Item{{ProductID: "a", Quantity: 2, UnitPrice: 10}},
		TotalItems: 2,
		TotalPrice: 20,
		CapturedAt: time.Now(),
	}

	mock.ExpectExec("INSERT INTO cart_snapshots").
		WithArgs("default", sqlmock.AnyArg(), snap.TotalItems, snap.TotalPrice, snap.CapturedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := store.SaveSnapshot(ctx, "default", snap); err != nil {
		t.Errorf("SaveSnapshot failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %s", err)
	}
}

func TestStore_LoadSnapshot(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %s", err)
	}
	defer db.Close()

	store := NewStore(db)
	ctx := context.Background()
	captured := time.Now().Truncate(time.Second)

	rows := sqlmock.NewRows([]string{"items", "total_items", "total_price", "captured_at"}).
		AddRow([]byte(`[{"product_id":"a","quantity":2,"unit_price":10,"state":"synced","added_at":"2025-06-01T12:00:00Z"}]`), 2, 20.0, captured)
	mock.ExpectQuery("SELECT items, total_items, total_price, captured_at").
		WithArgs("default").
		WillReturnRows(rows)

	snap, err := store.LoadSnapshot(ctx, "default")
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if len(snap.Items) != 1 || snap.Items[0].ProductID != "a" {
		t.Errorf("unexpected items: %+v", snap.Items)
	}
	if snap.TotalItems != 2 || snap.TotalPrice != 20 {
		t.Errorf("unexpected totals: %d / %v", snap.TotalItems, snap.TotalPrice)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %s", err)
	}
}

func TestStore_LoadSnapshot_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %s", err)
	}
	defer db.Close()

	store := NewStore(db)

	mock.ExpectQuery("SELECT items, total_items, total_price, captured_at").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"items", "total_items", "total_price", "captured_at"}))

	_, err = store.LoadSnapshot(context.Background(), "missing")
	if !errors.Is(err, cartApp.ErrSnapshotNotFound) {
		t.Errorf("expected ErrSnapshotNotFound, got %v", err)
	}
}

func TestStore_SessionRoundTrip(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %s", err)
	}
	defer db.Close()

	store := NewStore(db)
	ctx := context.Background()

	sess := authDomain.Session{
		UserID:       "u1",
		AccessToken:  "tok1",
		RefreshToken: "ref1",
		AccessExpiry: time.Now().Add(15 * time.Minute),
		SavedAt:      time.Now(),
	}

	mock.ExpectExec("INSERT INTO sessions").
		WithArgs("default", sess.UserID, sess.AccessToken, sess.RefreshToken, sess.AccessExpiry, sess.SavedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := store.SaveSession(ctx, "default", sess); err != nil {
		t.Errorf("SaveSession failed: %v", err)
	}

	rows := sqlmock.NewRows([]string{"user_id", "access_token", "refresh_token", "access_expiry", "saved_at"}).
		AddRow(sess.UserID, sess.AccessToken, sess.RefreshToken, sess.AccessExpiry, sess.SavedAt)
	mock.ExpectQuery("SELECT user_id, access_token, refresh_token").
		WithArgs("default").
		WillReturnRows(rows)

	got, err := store.LoadSession(ctx, "default")
	if err != nil {
		t.Fatalf("LoadSession failed: %v", err)
	}
	if got.UserID != "u1" || got.AccessToken != "tok1" {
		t.Errorf("unexpected session: %+v", got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %s", err)
	}
}

func TestStore_LoadSession_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %s", err)
	}
	defer db.Close()

	store := NewStore(db)

	mock.ExpectQuery("SELECT user_id, access_token, refresh_token").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "access_token", "refresh_token", "access_expiry", "saved_at"}))

	_, err = store.LoadSession(context.Background(), "missing")
	if !errors.Is(err, authApp.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestStore_DeleteSnapshot(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %s", err)
	}
	defer db.Close()

	store := NewStore(db)

	mock.ExpectExec("DELETE FROM cart_snapshots").
		WithArgs("default").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.DeleteSnapshot(context.Background(), "default"); err != nil {
		t.Errorf("DeleteSnapshot failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %s", err)
	}
}
