package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Skotchmaster/triketime/internal/models"
	"github.com/Skotchmaster/triketime/internal/repo"
	"github.com/Skotchmaster/triketime/internal/tokens"
)

// TokenService issues access tokens and owns the persisted refresh rows.
type TokenService struct {
	Repo       *repo.GormRepo
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Now        func() time.Time
}

type TokenPair struct {
	AccessToken  string
	AccessExp    time.Time
	RefreshToken string
	RefreshJTI   string
	RefreshExp   time.Time
	Role         string
	UserID       uint
}

func subject(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func (t *TokenService) IssueAccessToken(user *models.User) (string, time.Time, error) {
	iat := clock(t.Now)
	exp := iat.Add(t.AccessTTL)

	claims := tokens.AccessClaims{
		Role: user.Role,
		Type: tokens.TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject(user.ID),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := tokens.Sign(claims, t.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return token, exp, nil
}

func (t *TokenService) newRefresh(userID uint) (string, *models.RefreshToken, error) {
	iat := clock(t.Now)
	row := &models.RefreshToken{
		JTI:       uuid.NewString(),
		UserID:    userID,
		CreatedAt: iat,
		ExpiresAt: iat.Add(t.RefreshTTL),
	}

	claims := tokens.RefreshClaims{
		Type: tokens.TypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject(userID),
			ID:        row.JTI,
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(row.ExpiresAt),
		},
	}
	token, err := tokens.Sign(claims, t.Secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign refresh token: %w", err)
	}
	return token, row, nil
}

// IssueRefreshToken signs a refresh token and persists its row.
func (t *TokenService) IssueRefreshToken(ctx context.Context, user *models.User) (string, string, time.Time, error) {
	token, row, err := t.newRefresh(user.ID)
	if err != nil {
		return "", "", time.Time{}, err
	}
	if err := t.Repo.AddRefreshToken(ctx, row); err != nil {
		return "", "", time.Time{}, fmt.Errorf("store refresh token: %w", err)
	}
	return token, row.JTI, row.ExpiresAt, nil
}

// VerifyRefreshToken checks the signature and the persisted row. The row's
// expiry is authoritative, not the claim.
func (t *TokenService) VerifyRefreshToken(ctx context.Context, raw string) (*tokens.RefreshClaims, *models.RefreshToken, error) {
	claims, err := tokens.RefreshClaimsFromToken(raw, t.Secret)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidRefreshToken, err)
	}

	row, err := t.Repo.FindRefreshByJTI(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, nil, ErrInvalidRefreshToken
		}
		return nil, nil, fmt.Errorf("find refresh token: %w", err)
	}

	if row.Revoked || !row.ExpiresAt.After(clock(t.Now)) || subject(row.UserID) != claims.Subject {
		return nil, nil, ErrInvalidRefreshToken
	}
	return claims, row, nil
}

// Rotate exchanges a valid refresh token for a new pair. The old row is
// revoked and the new one stored in one transaction.
func (t *TokenService) Rotate(ctx context.Context, raw string) (*TokenPair, error) {
	_, row, err := t.VerifyRefreshToken(ctx, raw)
	if err != nil {
		return nil, err
	}

	user, err := t.Repo.GetUserByID(ctx, row.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserInactive
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	refresh, next, err := t.newRefresh(user.ID)
	if err != nil {
		return nil, err
	}
	if err := t.Repo.RotateRefreshToken(ctx, row.JTI, clock(t.Now), next); err != nil {
		if errors.Is(err, repo.ErrRefreshUnusable) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}

	access, accessExp, err := t.IssueAccessToken(user)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		AccessExp:    accessExp,
		RefreshToken: refresh,
		RefreshJTI:   next.JTI,
		RefreshExp:   next.ExpiresAt,
		Role:         user.Role,
		UserID:       user.ID,
	}, nil
}

// Revoke is idempotent.
func (t *TokenService) Revoke(ctx context.Context, jti string) error {
	if err := t.Repo.RevokeRefresh(ctx, jti); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}
