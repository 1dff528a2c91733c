package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nguyen2966/hcmut-rooms-booking/internal/persistence"
)

func TestUserRepository_CreateUser(t *testing.T) {
	store := setupStore(t)
	repo := NewUserRepository(store)

	ctx := context.Background()
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	user := persistence.User{
		ID:           "user1",
		Email:        "Student@hcmut.edu.vn",
		FullName:     "Test Student",
		PasswordHash: "hashed",
		Role:         "student",
		Status:       "active",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	retrieved, err := repo.GetUser(ctx, "user1")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if retrieved.Email != "student@hcmut.edu.vn" {
		t.Errorf("Expected lowercased email, got '%s'", retrieved.Email)
	}
	if retrieved.Role != "student" {
		t.Errorf("Expected role 'student', got '%s'", retrieved.Role)
	}
}

func TestUserRepository_CreateUser_DuplicateEmail(t *testing.T) {
	store := setupStore(t)
	repo := NewUserRepository(store)
	seedUser(t, store, "user1")

	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	dup := persistence.User{
		ID:           "user2",
		Email:        "USER1@hcmut.edu.vn",
		FullName:     "Other",
		PasswordHash: "hashed",
		Role:         "student",
		Status:       "active",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := repo.CreateUser(context.Background(), dup); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("Expected ErrDuplicate, got %v", err)
	}
}

func TestUserRepository_GetUserByEmail_CaseInsensitive(t *testing.T) {
	store := setupStore(t)
	repo := NewUserRepository(store)
	seedUser(t, store, "user1")

	retrieved, err := repo.GetUserByEmail(context.Background(), "USER1@HCMUT.EDU.VN")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if retrieved.ID != "user1" {
		t.Errorf("Expected ID 'user1', got '%s'", retrieved.ID)
	}
}

func TestUserRepository_UpdateUser(t *testing.T) {
	store := setupStore(t)
	repo := NewUserRepository(store)
	user := seedUser(t, store, "user1")

	user.FullName = "Renamed"
	user.Status = "disabled"
	if err := repo.UpdateUser(context.Background(), user); err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}

	retrieved, err := repo.GetUser(context.Background(), "user1")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if retrieved.FullName != "Renamed" || retrieved.Status != "disabled" {
		t.Errorf("Update not applied: %+v", retrieved)
	}
}

func TestUserRepository_DeleteUser(t *testing.T) {
	store := setupStore(t)
	repo := NewUserRepository(store)
	seedUser(t, store, "user1")

	if err := repo.DeleteUser(context.Background(), "user1"); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}
	if _, err := repo.GetUser(context.Background(), "user1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}
