// Package auth holds the credential primitives of the server: the JWT token
// codec, the password hasher, and helpers to carry verified claims in a
// context.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned by Verify for any token that cannot be
// trusted. The jwt cause stays in the chain.
var ErrInvalidToken = errors.New("token verification failed")

// TokenKind tells access and refresh tokens apart.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

// Claims is the payload of both token kinds.
type Claims struct {
	UserID int64     `json:"userId"`
	Email  string    `json:"email"`
	Kind   TokenKind `json:"typ"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies HS256 tokens. It is immutable after
// construction and safe for concurrent use.
type TokenCodec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	parser     *jwt.Parser
}

// CodecOption customizes a TokenCodec.
type CodecOption func(*TokenCodec)

// WithClock makes the codec read time from now instead of time.Now.
func WithClock(now func() time.Time) CodecOption {
	return func(c *TokenCodec) { c.now = now }
}

func NewTokenCodec(secret []byte, accessTTL, refreshTTL time.Duration, opts ...CodecOption) (*TokenCodec, error) {
	if len(secret) == 0 {
		return nil, errors.New("token codec: empty secret")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("token codec: token lifetimes must be positive")
	}

	c := &TokenCodec{
		secret:     append([]byte(nil), secret...),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	)
	return c, nil
}

// IssueAccessToken returns a signed access token for the user.
func (c *TokenCodec) IssueAccessToken(userID int64, email string) (string, error) {
	token, _, err := c.issue(KindAccess, userID, email, c.accessTTL)
	return token, err
}

// IssueRefreshToken returns a signed refresh token and the expiry embedded
// in it, which is what the store should record.
func (c *TokenCodec) IssueRefreshToken(userID int64, email string) (string, time.Time, error) {
	return c.issue(KindRefresh, userID, email, c.refreshTTL)
}

func (c *TokenCodec) issue(kind TokenKind, userID int64, email string, ttl time.Duration) (string, time.Time, error) {
	now := c.now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, claims.ExpiresAt.Time, nil
}

// Verify checks signature and time claims in one step. Every failure wraps
// ErrInvalidToken.
func (c *TokenCodec) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := c.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// IsExpired reports whether a Verify error was caused by the exp claim.
func IsExpired(err error) bool {
	return errors.Is(err, jwt.ErrTokenExpired)
}
