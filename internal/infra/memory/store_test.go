package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	authApp "storefront-sync/internal/application/auth"
	cartApp "storefront-sync/internal/application/cart"
	authDomain "storefront-sync/internal/domain/auth"
	cartDomain "storefront-sync/internal/domain/cart"
)

func TestStore_Snapshots(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	t.Run("SaveAndLoad", func(t *testing.T) {
		snap := cartDomain.Snapshot{
			Items:      []cartDomain.Item{{ProductID: "a", Quantity: 2, UnitPrice: 10}},
			TotalItems: 2,
			TotalPrice: 20,
			CapturedAt: time.Now(),
		}
		if err := s.SaveSnapshot(ctx, "default", snap); err != nil {
			t.Fatal(err)
		}
		got, err := s.LoadSnapshot(ctx, "default")
		if err != nil {
			t.Fatal(err)
		}
		if got.TotalItems != 2 || len(got.Items) != 1 {
			t.Errorf("unexpected snapshot: %+v", got)
		}
	})

	t.Run("Missing", func(t *testing.T) {
		if _, err := s.LoadSnapshot(ctx, "nope"); !errors.Is(err, cartApp.ErrSnapshotNotFound) {
			t.Errorf("expected ErrSnapshotNotFound, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := s.DeleteSnapshot(ctx, "default"); err != nil {
			t.Fatal(err)
		}
		if _, err := s.LoadSnapshot(ctx, "default"); !errors.Is(err, cartApp.ErrSnapshotNotFound) {
			t.Error("snapshot must be gone after delete")
		}
	})
}

func TestStore_Sessions(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	sess := authDomain.Session{UserID: "u1", AccessToken: "tok", SavedAt: time.Now()}
	if err := s.SaveSession(ctx, "default", sess); err != nil {
		t.Fatal(err)
	}
	got, err := s.LoadSession(ctx, "default")
	if err != nil {
		t.Fatal(err)
	}
	if got.UserID != "u1" {
		t.Errorf("unexpected session: %+v", got)
	}

	if err := s.DeleteSession(ctx, "default"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.LoadSession(ctx, "default"); !errors.Is(err, authApp.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}
