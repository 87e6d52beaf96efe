package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/FrandeScarlet/minimarket/app/models"
	"github.com/FrandeScarlet/minimarket/app/repository"
	"github.com/FrandeScarlet/minimarket/app/security"
)

const minPasswordLength = 8

// AuthService handles users, logins and permissions
type AuthService struct {
	*BaseService
}

// NewAuthService creates a new auth service
func NewAuthService(base *BaseService) *AuthService {
	return &AuthService{BaseService: base}
}

// Authenticate checks a username and password. Unknown users and wrong
// passwords get the same error. The returned user may still carry
// MustChangePassword, which the caller has to act on.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var user *models.User
	err := s.WithSession(ctx, func(repos *repository.Repositories) error {
		u, err := repos.Users.GetByUsername(ctx, strings.TrimSpace(username))
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidCredentials
		}
		if err != nil {
			return err
		}
		if !security.CheckPassword(u.PasswordHash, password) {
			return ErrInvalidCredentials
		}
		if !u.IsActive {
			return ErrUserInactive
		}

		now := s.now()
		if err := repos.Users.UpdateLastLogin(ctx, u.ID, now); err != nil {
			return fmt.Errorf("failed to record login: %w", err)
		}
		u.LastLogin = &now
		user = u
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrUserInactive) {
			s.logger.Warn().Str("username", username).Err(err).Msg("Login rejected")
		}
		return nil, err
	}

	s.logger.Info().Str("username", user.Username).Uint("user_id", user.ID).Msg("User logged in")
	return user, nil
}

// ChangePassword replaces the user's password after checking the current
// one, and clears the forced-rotation flag.
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	if len(next) < minPasswordLength || next == current {
		return ErrWeakPassword
	}
	hash, err := security.HashPassword(next)
	if err != nil {
		return err
	}

	return s.WithTransaction(ctx, func(repos *repository.Repositories) error {
		user, err := repos.Users.Get(ctx, userID)
		if err != nil {
			return err
		}
		if !user.IsActive {
			return ErrUserInactive
		}
		if !security.CheckPassword(user.PasswordHash, current) {
			return ErrInvalidCredentials
		}
		if err := repos.Users.UpdatePassword(ctx, userID, hash, false); err != nil {
			return err
		}
		s.logger.Info().Uint("user_id", userID).Msg("Password changed")
		return nil
	})
}

// CreateUserRequest describes a new user
type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	RoleID   uint   `json:"role_id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	OutletID *uint  `json:"outlet_id,omitempty"`
	// MustChangePassword forces a rotation at first login.
	MustChangePassword bool `json:"must_change_password"`
}

// CreateUser creates an active user. A taken username yields
// repository.ErrDuplicateKey.
func (s *AuthService) CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if len(req.Password) < minPasswordLength {
		return nil, ErrWeakPassword
	}
	hash, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:           username,
		PasswordHash:       hash,
		RoleID:             req.RoleID,
		FullName:           req.FullName,
		Email:              req.Email,
		Phone:              req.Phone,
		OutletID:           req.OutletID,
		IsActive:           true,
		MustChangePassword: req.MustChangePassword,
	}
	err = s.WithTransaction(ctx, func(repos *repository.Repositories) error {
		return repos.Users.Create(ctx, user)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create user %s: %w", username, err)
	}
	return user, nil
}

// DeactivateUser disables a login. Users are never deleted.
func (s *AuthService) DeactivateUser(ctx context.Context, userID uint) error {
	return s.WithTransaction(ctx, func(repos *repository.Repositories) error {
		return repos.Users.SetActive(ctx, userID, false)
	})
}

// HasPermission reports whether the user's role grants perm.
func (s *AuthService) HasPermission(ctx context.Context, user *models.User, perm string) (bool, error) {
	var granted bool
	err := s.WithSession(ctx, func(repos *repository.Repositories) error {
		role, err := repos.Roles.Get(ctx, user.RoleID)
		if err != nil {
			return err
		}
		granted = role.Grants(perm)
		return nil
	})
	return granted, err
}
