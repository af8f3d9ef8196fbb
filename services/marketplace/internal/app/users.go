package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"marketplace/pkg/auth"
	"marketplace/pkg/domain"
	"marketplace/pkg/store"
)

// Register creates a user. The first account becomes admin; every later one is a plain user.
func (a *App) Register(ctx context.Context, username, password string) (domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return domain.User{}, ErrCredentialsRequired
	}
	if err := auth.ValidatePassword(password); err != nil {
		return domain.User{}, invalid("%s", err.Error())
	}
	digest, err := a.hasher.Hash(password)
	if err != nil {
		return domain.User{}, err
	}
	// Role is left empty so the store decides it together with the insert.
	user, err := a.store.CreateUser(ctx, domain.User{
		Username:     username,
		PasswordHash: digest,
		CreatedAt:    a.now().UTC(),
	})
	if errors.Is(err, store.ErrDuplicate) {
		return domain.User{}, ErrUsernameTaken
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login verifies credentials and issues an access token.
func (a *App) Login(ctx context.Context, username, password string) (string, domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", domain.User{}, ErrCredentialsRequired
	}
	user, ok, err := a.store.GetUserByUsername(ctx, username)
	if err != nil {
		return "", domain.User{}, fmt.Errorf("fetch user: %w", err)
	}
	if !ok {
		a.hasher.VerifyMissing(password)
		return "", domain.User{}, ErrInvalidCredentials
	}
	if !a.hasher.Verify(password, user.PasswordHash) {
		return "", domain.User{}, ErrInvalidCredentials
	}
	token, err := a.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return "", domain.User{}, fmt.Errorf("issue token: %w", err)
	}
	return token, user, nil
}

// ListUsers returns every account. Admin only.
func (a *App) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := a.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// UpdateUserRole changes a user's role.
func (a *App) UpdateUserRole(ctx context.Context, id int64, role string) error {
	parsed, ok := ParseRole(role)
	if !ok {
		return invalid("role must be user or admin")
	}
	found, err := a.store.UpdateUserRole(ctx, id, parsed)
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	if !found {
		return notFound("user")
	}
	return nil
}

// DeleteUser removes an account and the rows it owns.
func (a *App) DeleteUser(ctx context.Context, id int64) error {
	found, err := a.store.DeleteUser(ctx, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if !found {
		return notFound("user")
	}
	return nil
}

func ParseRole(role string) (domain.UserRole, bool) {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case string(domain.RoleUser):
		return domain.RoleUser, true
	case string(domain.RoleAdmin):
		return domain.RoleAdmin, true
	default:
		return "", false
	}
}

func (a *App) requireUser(ctx context.Context, id int64) error {
	if id <= 0 {
		return notFound("user")
	}
	_, ok, err := a.store.GetUserByID(ctx, id)
	if err != nil {
		return fmt.Errorf("fetch user: %w", err)
	}
	if !ok {
		return notFound("user")
	}
	return nil
}
