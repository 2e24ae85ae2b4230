// Package auth implements password hashing and the lifecycle of signed
// bearer tokens: issue, verify, refresh and invalidate.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThanhLuuv/user-management-backend/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Denylist records revoked token ids until the token's own expiry.
type Denylist interface {
	// Revoke records jti and reports whether it was not already present.
	Revoke(ctx context.Context, jti string, expiresAt time.Time) (bool, error)
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Claims carries the registered JWT claims. Subject is the account id and
// ID is the unique token id used for revocation.
type Claims struct {
	jwt.RegisteredClaims
}

func (c *Claims) AccountID() string { return c.Subject }

// IssuedToken is what clients receive after login, registration or refresh.
type IssuedToken struct {
	Token     string
	Type      string
	ExpiresIn int64
	ExpiresAt time.Time
	ID        string
}

// TokenManager signs HS256 tokens and checks them against a Denylist.
type TokenManager struct {
	secret   []byte
	issuer   string
	ttl      time.Duration
	denylist Denylist
	now      func() time.Time
	sign     func(t *jwt.Token, key any) (string, error)
}

func NewTokenManager(secret []byte, issuer string, ttl time.Duration, denylist Denylist) *TokenManager {
	return &TokenManager{
		secret:   secret,
		issuer:   issuer,
		ttl:      ttl,
		denylist: denylist,
		now:      time.Now,
		sign:     (*jwt.Token).SignedString,
	}
}

// TTL is the lifetime of newly issued tokens.
func (m *TokenManager) TTL() time.Duration { return m.ttl }

// Issue signs a new token for accountID.
func (m *TokenManager) Issue(accountID string) (*IssuedToken, error) {
	now := m.now()
	exp := now.Add(m.ttl)
	jti := uuid.NewString()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   accountID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})

	signed, err := m.sign(token, m.secret)
	if err != nil {
		return nil, err
	}

	return &IssuedToken{
		Token:     signed,
		Type:      common.TokenType,
		ExpiresIn: int64(m.ttl / time.Second),
		ExpiresAt: exp,
		ID:        jti,
	}, nil
}

func (m *TokenManager) parse(tokenString string, opts ...jwt.ParserOption) (*Claims, error) {
	claims := &Claims{}
	opts = append(opts,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if !token.Valid || claims.ID == "" || claims.Subject == "" || claims.ExpiresAt == nil {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}

// Verify checks signature, shape, issuer, expiry and revocation.
func (m *TokenManager) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := m.parse(tokenString, jwt.WithIssuer(m.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	revoked, err := m.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: denylist lookup: %v", common.ErrorInternal, err)
	}
	if revoked {
		return nil, common.ErrTokenRevoked
	}
	return claims, nil
}

// Refresh exchanges a currently valid token for a new one with the same
// subject and revokes the old one. A token can be refreshed once; any
// problem with the presented token is reported as ErrInvalidToken.
func (m *TokenManager) Refresh(ctx context.Context, tokenString string) (*IssuedToken, *Claims, error) {
	claims, err := m.Verify(ctx, tokenString)
	if err != nil {
		if errors.Is(err, common.ErrorInternal) || errors.Is(err, common.ErrInvalidToken) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}

	// Sign before revoking so a signing failure leaves the old token usable.
	issued, err := m.Issue(claims.Subject)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: issue: %v", common.ErrorInternal, err)
	}

	first, err := m.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: revoke: %v", common.ErrorInternal, err)
	}
	if !first {
		return nil, nil, fmt.Errorf("%w: %w", common.ErrInvalidToken, common.ErrTokenRevoked)
	}
	return issued, claims, nil
}

// Invalidate revokes a token until its expiry. It is idempotent and accepts
// tokens that already expired; only unverifiable tokens are rejected.
func (m *TokenManager) Invalidate(ctx context.Context, tokenString string) error {
	claims, err := m.parse(tokenString, jwt.WithoutClaimsValidation())
	if err != nil {
		return err
	}
	if claims.Issuer != m.issuer {
		return common.ErrInvalidToken
	}
	if !claims.ExpiresAt.After(m.now()) {
		return nil
	}

	if _, err := m.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("%w: revoke: %v", common.ErrorInternal, err)
	}
	return nil
}
