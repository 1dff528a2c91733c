package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// UserRepository captures the persistence operations needed by the user service.
type UserRepository interface {
	CreateUser(ctx context.Context, user User, passwordHash string) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	UpdateUser(ctx context.Context, user User) (User, error)
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context) ([]User, error)
}

// PasswordHasher derives a storable hash from a plaintext password.
type PasswordHasher func(password string) (string, error)

// UserService orchestrates account registration and administration. Anyone may
// self-register a student account; creating other roles and editing accounts
// requires an admin principal.
type UserService struct {
	users        UserRepository
	hashPassword PasswordHasher
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewUserService constructs a user service with the provided dependencies.
func NewUserService(users UserRepository, hashPassword PasswordHasher, idGenerator func() string, now func() time.Time, logger *slog.Logger) *UserService {
	if hashPassword == nil {
		hashPassword = HashPassword
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{users: users, hashPassword: hashPassword, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// CreateUser registers a new account. Without a principal the account is a
// self-registration and the role is forced to student.
func (s *UserService) CreateUser(ctx context.Context, params CreateUserParams) (user User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}
	if s.users == nil {
		err = fmt.Errorf("user repository not configured")
		return
	}

	email := strings.TrimSpace(strings.ToLower(params.Input.Email))
	logger := s.loggerWith(ctx, "CreateUser",
		"email", email,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", user.ID).InfoContext(ctx, "user created")
	}()

	role := strings.TrimSpace(strings.ToLower(params.Input.Role))
	if params.Principal == nil || !params.Principal.IsAdmin() {
		role = RoleStudent
	} else if role == "" {
		role = RoleStudent
	}

	vErr := &ValidationError{}
	if email == "" || !strings.Contains(email, "@") {
		vErr.add("email", "a valid email address is required")
	}
	if strings.TrimSpace(params.Input.FullName) == "" {
		vErr.add("full_name", "full name is required")
	}
	if len(params.Input.Password) < 8 {
		vErr.add("password", "password must be at least 8 characters")
	}
	if !validRole(role) {
		vErr.add("role", "unknown role")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var hash string
	hash, err = s.hashPassword(params.Input.Password)
	if err != nil {
		return
	}

	now := s.now()
	user = User{
		ID:        s.idGenerator(),
		Email:     email,
		FullName:  strings.TrimSpace(params.Input.FullName),
		Role:      role,
		Status:    UserStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	user, err = s.users.CreateUser(ctx, user, hash)
	return
}

// UpdateUser edits an existing account for administrators.
func (s *UserService) UpdateUser(ctx context.Context, params UpdateUserParams) (user User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}
	if !params.Principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}
	if s.users == nil {
		err = fmt.Errorf("user repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateUser",
		"principal_id", params.Principal.UserID,
		"user_id", params.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", user.ID).InfoContext(ctx, "user updated")
	}()

	var existing User
	existing, err = s.users.GetUser(ctx, params.UserID)
	if err != nil {
		return
	}

	vErr := &ValidationError{}
	if name := strings.TrimSpace(params.FullName); name != "" {
		existing.FullName = name
	}
	if role := strings.TrimSpace(strings.ToLower(params.Role)); role != "" {
		if !validRole(role) {
			vErr.add("role", "unknown role")
		} else {
			existing.Role = role
		}
	}
	if status := strings.TrimSpace(strings.ToLower(params.Status)); status != "" {
		if status != UserStatusActive && status != UserStatusDisabled {
			vErr.add("status", "unknown status")
		} else {
			existing.Status = status
		}
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	existing.UpdatedAt = s.now()
	user, err = s.users.UpdateUser(ctx, existing)
	return
}

// GetUser returns one account. Non-admins may only read their own.
func (s *UserService) GetUser(ctx context.Context, principal Principal, userID string) (User, error) {
	if s == nil || s.users == nil {
		return User{}, fmt.Errorf("user repository not configured")
	}
	if principal.UserID != userID && !principal.IsAdmin() {
		return User{}, ErrUnauthorized
	}
	return s.users.GetUser(ctx, userID)
}

// ListUsers returns every account for administrators.
func (s *UserService) ListUsers(ctx context.Context, principal Principal) ([]User, error) {
	if s == nil || s.users == nil {
		return nil, fmt.Errorf("user repository not configured")
	}
	if !principal.IsAdmin() {
		return nil, ErrUnauthorized
	}
	return s.users.ListUsers(ctx)
}

// DeleteUser removes an account for administrators.
func (s *UserService) DeleteUser(ctx context.Context, principal Principal, userID string) error {
	if s == nil || s.users == nil {
		return fmt.Errorf("user repository not configured")
	}
	if !principal.IsAdmin() {
		return ErrUnauthorized
	}
	if principal.UserID == userID {
		vErr := &ValidationError{}
		vErr.add("user_id", "administrators cannot delete their own account")
		return vErr
	}

	logger := s.loggerWith(ctx, "DeleteUser",
		"principal_id", principal.UserID,
		"user_id", userID,
	)
	if err := s.users.DeleteUser(ctx, userID); err != nil {
		logger.ErrorContext(ctx, "failed to delete user", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "user deleted")
	return nil
}

func validRole(role string) bool {
	switch role {
	case RoleAdmin, RoleLecturer, RoleStudent, RoleTechnician:
		return true
	}
	return false
}
