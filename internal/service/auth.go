package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Skotchmaster/triketime/internal/events"
	"github.com/Skotchmaster/triketime/internal/hash"
	"github.com/Skotchmaster/triketime/internal/logging"
	"github.com/Skotchmaster/triketime/internal/models"
	"github.com/Skotchmaster/triketime/internal/repo"
)

const (
	maxUsernameLen = 64
	// bcrypt ignores everything past 72 bytes
	maxPasswordLen = 72
)

type AuthService struct {
	Repo   *repo.GormRepo
	Tokens *TokenService
	Events events.Publisher
	Now    func() time.Time
}

func validateCredentials(username, password string) error {
	switch {
	case username == "" || len(username) > maxUsernameLen:
		return fmt.Errorf("%w: username must be 1-%d characters", ErrValidation, maxUsernameLen)
	case password == "" || len(password) > maxPasswordLen:
		return fmt.Errorf("%w: password must be 1-%d bytes", ErrValidation, maxPasswordLen)
	}
	return nil
}

// Register creates an active user. Usernames are compared exactly.
func (s *AuthService) Register(ctx context.Context, username, password, role string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	username = strings.TrimSpace(username)
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}
	if role == "" {
		role = models.RoleDriver
	}
	if !slices.Contains([]string{models.RoleDriver, models.RoleAdmin}, role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: pwHash,
		Role:         role,
		IsActive:     true,
	}
	if err := s.Repo.CreateUserIfNotExists(ctx, user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			l.Warn("register_error", "status", 409, "reason", "user already exist", "username", username)
			return nil, ErrUserExists
		}
		l.Error("register_error", "status", 500, "error", err)
		return nil, err
	}

	publish(ctx, s.Events, events.Event{
		Type:     events.UserRegistered,
		UserID:   user.ID,
		Username: user.Username,
		At:       clock(s.Now),
	})
	return user, nil
}

// Authenticate rejects unknown users, wrong passwords and inactive users
// with the same error. Unknown users still pay for one bcrypt comparison.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		hash.BurnCompare(password)
		return nil, ErrInvalidCredentials
	}

	user, err := s.Repo.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			hash.BurnCompare(password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !hash.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)

	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			l.Warn("login_failed", "status", 401, "reason", "invalid username or password")
		} else {
			l.Error("login_failed", "status", 500, "error", err)
		}
		return nil, err
	}

	access, accessExp, err := s.Tokens.IssueAccessToken(user)
	if err != nil {
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}
	refresh, jti, refreshExp, err := s.Tokens.IssueRefreshToken(ctx, user)
	if err != nil {
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}

	publish(ctx, s.Events, events.Event{
		Type:     events.UserLoggedIn,
		UserID:   user.ID,
		Username: user.Username,
		At:       clock(s.Now),
	})

	return &TokenPair{
		AccessToken:  access,
		AccessExp:    accessExp,
		RefreshToken: refresh,
		RefreshJTI:   jti,
		RefreshExp:   refreshExp,
		Role:         user.Role,
		UserID:       user.ID,
	}, nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	pair, err := s.Tokens.Rotate(ctx, refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidRefreshToken), errors.Is(err, ErrUserInactive):
			l.Warn("refresh_failed", "status", 401, "error", err)
		default:
			l.Error("refresh_failed", "status", 500, "error", err)
		}
		return nil, err
	}
	return pair, nil
}

// LogOut revokes the refresh token when it still verifies. Anything else
// is ignored so that logging out always succeeds for the client.
func (s *AuthService) LogOut(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	_, row, err := s.Tokens.VerifyRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrInvalidRefreshToken) {
			return nil
		}
		return err
	}
	return s.Tokens.Revoke(ctx, row.JTI)
}

// RevokeAll revokes every live refresh token of username.
func (s *AuthService) RevokeAll(ctx context.Context, username string) (int64, error) {
	user, err := s.Repo.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return s.Repo.RevokeAllForUser(ctx, user.ID)
}

// Deactivate blocks login and refresh for username and revokes its tokens.
func (s *AuthService) Deactivate(ctx context.Context, username string) error {
	if err := s.Repo.SetUserActive(ctx, username, false); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	_, err := s.RevokeAll(ctx, username)
	return err
}
