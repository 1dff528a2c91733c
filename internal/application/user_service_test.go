package application

import (
	"context"
	"errors"
	"testing"
	"time"
)

type userRepositoryStub struct {
	users      map[string]User
	hashes     map[string]string
	createErr  error
	deleted    []string
	deletedErr error
}

func newUserRepositoryStub() *userRepositoryStub {
	return &userRepositoryStub{users: make(map[string]User), hashes: make(map[string]string)}
}

func (s *userRepositoryStub) CreateUser(ctx context.Context, user User, passwordHash string) (User, error) {
	if s.createErr != nil {
		return User{}, s.createErr
	}
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return User{}, ErrAlreadyExists
		}
	}
	s.users[user.ID] = user
	s.hashes[user.ID] = passwordHash
	return user, nil
}

func (s *userRepositoryStub) GetUser(ctx context.Context, id string) (User, error) {
	user, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (s *userRepositoryStub) UpdateUser(ctx context.Context, user User) (User, error) {
	if _, ok := s.users[user.ID]; !ok {
		return User{}, ErrNotFound
	}
	s.users[user.ID] = user
	return user, nil
}

func (s *userRepositoryStub) DeleteUser(ctx context.Context, id string) error {
	if s.deletedErr != nil {
		return s.deletedErr
	}
	if _, ok := s.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.users, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *userRepositoryStub) ListUsers(ctx context.Context) ([]User, error) {
	listed := make([]User, 0, len(s.users))
	for _, user := range s.users {
		listed = append(listed, user)
	}
	return listed, nil
}

func newUserServiceForTest(repo *userRepositoryStub) *UserService {
	hash := func(password string) (string, error) { return "hashed:" + password, nil }
	now := func() time.Time { return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) }
	return NewUserService(repo, hash, func() string { return "user-new" }, now, nil)
}

func TestUserService_CreateUser(t *testing.T) {
	t.Parallel()

	t.Run("self registration is forced to the student role", func(t *testing.T) {
		t.Parallel()

		repo := newUserRepositoryStub()
		svc := newUserServiceForTest(repo)

		created, err := svc.CreateUser(context.Background(), CreateUserParams{
			Input: UserInput{
				Email:    "  An.Nguyen@HCMUT.edu.vn ",
				FullName: "An Nguyen",
				Password: "correct horse",
				Role:     RoleAdmin,
			},
		})
		if err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
		if created.Role != RoleStudent {
			t.Fatalf("expected student role, got %s", created.Role)
		}
		if created.Email != "an.nguyen@hcmut.edu.vn" {
			t.Fatalf("expected normalized email, got %s", created.Email)
		}
		if created.Status != UserStatusActive {
			t.Fatalf("expected active status, got %s", created.Status)
		}
		if repo.hashes["user-new"] != "hashed:correct horse" {
			t.Fatalf("expected hashed password to reach the repository, got %q", repo.hashes["user-new"])
		}
	})

	t.Run("admins may create privileged accounts", func(t *testing.T) {
		t.Parallel()

		repo := newUserRepositoryStub()
		svc := newUserServiceForTest(repo)
		admin := Principal{UserID: "admin-1", Role: RoleAdmin}

		created, err := svc.CreateUser(context.Background(), CreateUserParams{
			Principal: &admin,
			Input: UserInput{
				Email:    "tech@hcmut.edu.vn",
				FullName: "Lab Technician",
				Password: "correct horse",
				Role:     RoleTechnician,
			},
		})
		if err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
		if created.Role != RoleTechnician {
			t.Fatalf("expected technician role, got %s", created.Role)
		}
	})

	t.Run("collects field errors", func(t *testing.T) {
		t.Parallel()

		svc := newUserServiceForTest(newUserRepositoryStub())
		admin := Principal{UserID: "admin-1", Role: RoleAdmin}

		_, err := svc.CreateUser(context.Background(), CreateUserParams{
			Principal: &admin,
			Input: UserInput{
				Email:    "not-an-email",
				FullName: "   ",
				Password: "short",
				Role:     "janitor",
			},
		})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"email", "full_name", "password", "role"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Errorf("expected error for field %s, got %v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("propagates duplicate emails", func(t *testing.T) {
		t.Parallel()

		repo := newUserRepositoryStub()
		repo.users["user-1"] = User{ID: "user-1", Email: "an.nguyen@hcmut.edu.vn"}
		svc := newUserServiceForTest(repo)

		_, err := svc.CreateUser(context.Background(), CreateUserParams{
			Input: UserInput{
				Email:    "An.Nguyen@hcmut.edu.vn",
				FullName: "An Nguyen",
				Password: "correct horse",
			},
		})
		if !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})
}

func TestUserService_UpdateUser(t *testing.T) {
	t.Parallel()

	admin := Principal{UserID: "admin-1", Role: RoleAdmin}

	t.Run("applies partial updates", func(t *testing.T) {
		t.Parallel()

		repo := newUserRepositoryStub()
		repo.users["user-1"] = User{ID: "user-1", Email: "an@hcmut.edu.vn", FullName: "An", Role: RoleStudent, Status: UserStatusActive}
		svc := newUserServiceForTest(repo)

		updated, err := svc.UpdateUser(context.Background(), UpdateUserParams{
			Principal: admin,
			UserID:    "user-1",
			Role:      RoleLecturer,
			Status:    UserStatusDisabled,
		})
		if err != nil {
			t.Fatalf("UpdateUser failed: %v", err)
		}
		if updated.Role != RoleLecturer || updated.Status != UserStatusDisabled {
			t.Fatalf("unexpected update result: %#v", updated)
		}
		if updated.FullName != "An" {
			t.Fatalf("full name must be untouched, got %s", updated.FullName)
		}
	})

	t.Run("rejects unknown roles and statuses", func(t *testing.T) {
		t.Parallel()

		repo := newUserRepositoryStub()
		repo.users["user-1"] = User{ID: "user-1", Role: RoleStudent, Status: UserStatusActive}
		svc := newUserServiceForTest(repo)

		_, err := svc.UpdateUser(context.Background(), UpdateUserParams{
			Principal: admin,
			UserID:    "user-1",
			Role:      "janitor",
			Status:    "asleep",
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if len(vErr.FieldErrors) != 2 {
			t.Fatalf("expected role and status errors, got %v", vErr.FieldErrors)
		}
	})

	t.Run("requires an admin", func(t *testing.T) {
		t.Parallel()

		svc := newUserServiceForTest(newUserRepositoryStub())
		_, err := svc.UpdateUser(context.Background(), UpdateUserParams{
			Principal: Principal{UserID: "user-2", Role: RoleStudent},
			UserID:    "user-1",
			FullName:  "New Name",
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestUserService_ReadAndDelete(t *testing.T) {
	t.Parallel()

	admin := Principal{UserID: "admin-1", Role: RoleAdmin}
	student := Principal{UserID: "user-1", Role: RoleStudent}

	t.Run("users read themselves, admins read anyone", func(t *testing.T) {
		t.Parallel()

		repo := newUserRepositoryStub()
		repo.users["user-1"] = User{ID: "user-1"}
		svc := newUserServiceForTest(repo)

		if _, err := svc.GetUser(context.Background(), student, "user-1"); err != nil {
			t.Fatalf("self read failed: %v", err)
		}
		if _, err := svc.GetUser(context.Background(), admin, "user-1"); err != nil {
			t.Fatalf("admin read failed: %v", err)
		}
		if _, err := svc.GetUser(context.Background(), student, "user-2"); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("listing is admin only", func(t *testing.T) {
		t.Parallel()

		repo := newUserRepositoryStub()
		repo.users["user-1"] = User{ID: "user-1"}
		svc := newUserServiceForTest(repo)

		if _, err := svc.ListUsers(context.Background(), student); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
		listed, err := svc.ListUsers(context.Background(), admin)
		if err != nil {
			t.Fatalf("ListUsers failed: %v", err)
		}
		if len(listed) != 1 {
			t.Fatalf("expected one user, got %d", len(listed))
		}
	})

	t.Run("admins cannot delete themselves", func(t *testing.T) {
		t.Parallel()

		repo := newUserRepositoryStub()
		repo.users["admin-1"] = User{ID: "admin-1"}
		svc := newUserServiceForTest(repo)

		err := svc.DeleteUser(context.Background(), admin, "admin-1")
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("admins delete other accounts", func(t *testing.T) {
		t.Parallel()

		repo := newUserRepositoryStub()
		repo.users["user-1"] = User{ID: "user-1"}
		svc := newUserServiceForTest(repo)

		if err := svc.DeleteUser(context.Background(), admin, "user-1"); err != nil {
			t.Fatalf("DeleteUser failed: %v", err)
		}
		if err := svc.DeleteUser(context.Background(), student, "user-1"); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}
