package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/shirin_shop/internal/models"
	"github.com/Skotchmaster/shirin_shop/internal/repo"
	pkg_hash "github.com/Skotchmaster/shirin_shop/pkg/hash"
	"github.com/Skotchmaster/shirin_shop/pkg/logging"
	"github.com/Skotchmaster/shirin_shop/pkg/metrics"
	"github.com/Skotchmaster/shirin_shop/pkg/tokens"
)

type AuthService struct {
	Repo    *repo.GormRepo
	Tokens  *tokens.Service
	Events  EventPublisher
	Metrics *metrics.Metrics
}

type LoginResult struct {
	AccessToken string
	ExpiresAt   time.Time
	User        *models.User
}

func (s *AuthService) Register(ctx context.Context, username, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("username and password are required: %w", ErrValidation)
	}

	pwHash, err := pkg_hash.HashPassword(password)
	if err != nil {
		if errors.Is(err, pkg_hash.ErrPasswordTooLong) {
			return nil, fmt.Errorf("%v: %w", err, ErrValidation)
		}
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := models.User{
		Username:     username,
		PasswordHash: pwHash,
		IsAdmin:      false,
	}
	if err := s.Repo.CreateUserIfNotExists(ctx, &user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			l.Warn("register_error", "status", 400, "reason", "username already registered")
			return nil, fmt.Errorf("username already registered: %w", ErrConflict)
		}
		l.Error("register_error", "status", 500, "reason", "cannot create user", "error", err)
		return nil, err
	}

	publish(ctx, s.Events, s.Metrics, TopicUserEvents, strconv.FormatUint(uint64(user.ID), 10), "user_registered", map[string]any{
		"user_id":  user.ID,
		"username": user.Username,
	})
	l.Info("register_success", "user_id", user.ID)
	return &user, nil
}

// Login answers ErrInvalidCredentials for both unknown users and wrong
// passwords.
func (s *AuthService) Login(ctx context.Context, username, password string) (res *LoginResult, err error) {
	username = strings.TrimSpace(username)
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)
	defer func() { s.Metrics.ObserveLogin(err) }()

	user, err := s.Repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("login_failed", "status", 401, "reason", "unknown user")
			return nil, ErrInvalidCredentials
		}
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}
	if !pkg_hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "wrong password")
		return nil, ErrInvalidCredentials
	}

	tok, err := s.Tokens.Issue(user.Username, 0)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot issue token", "error", err)
		return nil, err
	}

	l.Info("login_success", "user_id", user.ID)
	return &LoginResult{AccessToken: tok.AccessToken, ExpiresAt: tok.ExpiresAt, User: user}, nil
}

func (s *AuthService) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.Repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
		}
		return nil, err
	}
	return user, nil
}

// EnsureAdmin creates the bootstrap admin when no user with that name exists.
// An existing user is left untouched.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	l := logging.FromContext(ctx).With("svc", "auth.ensure_admin", "username", username)

	if username == "" || password == "" {
		return false, fmt.Errorf("admin username and password are required: %w", ErrValidation)
	}
	pwHash, err := pkg_hash.HashPassword(password)
	if err != nil {
		return false, err
	}
	admin := models.User{Username: username, PasswordHash: pwHash, IsAdmin: true}
	if err := s.Repo.CreateUserIfNotExists(ctx, &admin); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			l.Info("admin_bootstrap", "status", "exists")
			return false, nil
		}
		return false, err
	}
	l.Info("admin_bootstrap", "status", "created", "user_id", admin.ID)
	return true, nil
}

// CreateAdmin creates an admin or promotes an existing user, resetting the
// password either way.
func (s *AuthService) CreateAdmin(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("username and password are required: %w", ErrValidation)
	}
	pwHash, err := pkg_hash.HashPassword(password)
	if err != nil {
		if errors.Is(err, pkg_hash.ErrPasswordTooLong) {
			return nil, fmt.Errorf("%v: %w", err, ErrValidation)
		}
		return nil, err
	}

	admin := models.User{Username: username, PasswordHash: pwHash, IsAdmin: true}
	err = s.Repo.CreateUserIfNotExists(ctx, &admin)
	if err == nil {
		return &admin, nil
	}
	if !errors.Is(err, repo.ErrUserAlreadyExist) {
		return nil, err
	}
	return s.Repo.PromoteUser(ctx, username, pwHash)
}
