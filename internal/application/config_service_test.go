package application

import (
	"context"
	"errors"
	"testing"
	"time"
)

type configRepositoryStub struct {
	entries map[string]ConfigEntry
	saveErr error
}

func newConfigRepositoryStub() *configRepositoryStub {
	return &configRepositoryStub{entries: make(map[string]ConfigEntry)}
}

func (s *configRepositoryStub) UpsertConfig(ctx context.Context, entry ConfigEntry) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.entries[entry.Key] = entry
	return nil
}

func (s *configRepositoryStub) ListConfig(ctx context.Context) ([]ConfigEntry, error) {
	listed := make([]ConfigEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		listed = append(listed, entry)
	}
	return listed, nil
}

type policyInvalidatorStub struct {
	calls int
}

func (s *policyInvalidatorStub) Invalidate() {
	s.calls++
}

func TestConfigService_UpsertConfig(t *testing.T) {
	t.Parallel()

	admin := Principal{UserID: "admin-1", Role: RoleAdmin}
	now := func() time.Time { return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) }

	t.Run("saves trimmed values and invalidates the policy cache", func(t *testing.T) {
		t.Parallel()

		repo := newConfigRepositoryStub()
		invalidator := &policyInvalidatorStub{}
		svc := NewConfigService(repo, invalidator, now, nil)

		entry, err := svc.UpsertConfig(context.Background(), admin, " MAX_GROUP_SIZE ", " 10 ")
		if err != nil {
			t.Fatalf("UpsertConfig failed: %v", err)
		}
		if entry.Key != "MAX_GROUP_SIZE" || entry.Value != "10" {
			t.Fatalf("unexpected entry: %#v", entry)
		}
		if invalidator.calls != 1 {
			t.Fatalf("expected one cache invalidation, got %d", invalidator.calls)
		}
	})

	t.Run("requires an admin", func(t *testing.T) {
		t.Parallel()

		svc := NewConfigService(newConfigRepositoryStub(), nil, now, nil)
		student := Principal{UserID: "user-1", Role: RoleStudent}
		if _, err := svc.UpsertConfig(context.Background(), student, "MAX_GROUP_SIZE", "10"); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("requires a key", func(t *testing.T) {
		t.Parallel()

		svc := NewConfigService(newConfigRepositoryStub(), nil, now, nil)
		_, err := svc.UpsertConfig(context.Background(), admin, "   ", "10")
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("does not invalidate when the save fails", func(t *testing.T) {
		t.Parallel()

		repo := newConfigRepositoryStub()
		repo.saveErr = errors.New("database locked")
		invalidator := &policyInvalidatorStub{}
		svc := NewConfigService(repo, invalidator, now, nil)

		if _, err := svc.UpsertConfig(context.Background(), admin, "MAX_GROUP_SIZE", "10"); err == nil {
			t.Fatal("expected save error")
		}
		if invalidator.calls != 0 {
			t.Fatalf("cache must not be invalidated on failure, got %d calls", invalidator.calls)
		}
	})
}

func TestConfigService_ListConfig(t *testing.T) {
	t.Parallel()

	repo := newConfigRepositoryStub()
	repo.entries["MAX_GROUP_SIZE"] = ConfigEntry{Key: "MAX_GROUP_SIZE", Value: "8"}
	svc := NewConfigService(repo, nil, nil, nil)

	admin := Principal{UserID: "admin-1", Role: RoleAdmin}
	listed, err := svc.ListConfig(context.Background(), admin)
	if err != nil {
		t.Fatalf("ListConfig failed: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected one entry, got %d", len(listed))
	}

	student := Principal{UserID: "user-1", Role: RoleStudent}
	if _, err := svc.ListConfig(context.Background(), student); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
