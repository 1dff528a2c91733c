package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/nguyen2966/hcmut-rooms-booking/internal/persistence"
)

func setupStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	return store
}

func seedUser(t *testing.T, store *Store, id string) persistence.User {
	t.Helper()

	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	user := persistence.User{
		ID:           id,
		Email:        id + "@hcmut.edu.vn",
		FullName:     "User " + id,
		PasswordHash: "hashed",
		Role:         "student",
		Status:       "active",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := NewUserRepository(store).CreateUser(context.Background(), user); err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
	return user
}

func seedRoom(t *testing.T, store *Store, id string) persistence.Room {
	t.Helper()

	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	room := persistence.Room{
		ID:        id,
		Name:      "Room " + id,
		Building:  "B4",
		Campus:    "CS2",
		Capacity:  6,
		Status:    "available",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := NewRoomRepository(store).CreateRoom(context.Background(), room); err != nil {
		t.Fatalf("seed room %s: %v", id, err)
	}
	return room
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := setupStore(t)

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}
}

func TestStorePing(t *testing.T) {
	store := setupStore(t)

	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}
