package backend

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/porchlite/porchlite/internal/core/domain"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

var errWrongTokenType = errors.New("unexpected token type")

type claims struct {
	Email string `json:"email"`
	Type  string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 access and refresh tokens.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenIssuer(secret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	if refreshTTL <= 0 {
		refreshTTL = 30 * 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// Issue creates a session for user with a fresh token pair.
func (t *TokenIssuer) Issue(user *domain.User, now time.Time) (*domain.Session, error) {
	now = now.UTC().Truncate(time.Second)
	access, err := t.sign(user, tokenTypeAccess, now, t.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := t.sign(user, tokenTypeRefresh, now, t.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &domain.Session{
		UserID:       user.ID,
		Email:        user.Email,
		IssuedAt:     now,
		ExpiresAt:    now.Add(t.accessTTL),
		RawToken:     access,
		RefreshToken: refresh,
	}, nil
}

func (t *TokenIssuer) sign(user *domain.User, typ string, now time.Time, ttl time.Duration) (string, error) {
	c := claims{
		Email: user.Email,
		Type:  typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, nil
}

// ParseRefresh validates a refresh token and returns its subject.
func (t *TokenIssuer) ParseRefresh(token string, now time.Time) (string, error) {
	c, err := t.parse(token, now)
	if err != nil {
		return "", err
	}
	if c.Type != tokenTypeRefresh {
		return "", errWrongTokenType
	}
	return c.Subject, nil
}

func (t *TokenIssuer) parse(token string, now time.Time) (*claims, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(tok *jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrSessionExpired
		}
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return &c, nil
}
