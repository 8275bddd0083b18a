package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v4"
	"github.com/redis/go-redis/v9"
)

var ErrInvalidToken = errors.New("invalid or expired token")

const (
	purposeAccess = "access"
	purposeReset  = "reset"
)

// Claims are carried by access and password reset tokens.
type Claims struct {
	Role    Role   `json:"role,omitempty"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *Claims) UserID() uuid.UUID {
	return uuid.FromStringOrNil(c.Subject)
}

type TokenIssuer struct {
	secret   []byte
	ttl      time.Duration
	resetTTL time.Duration
	now      func() time.Time
}

func NewTokenIssuer(secret string, ttl, resetTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, resetTTL: resetTTL, now: time.Now}
}

func (t *TokenIssuer) sign(claims Claims, key []byte) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (t *TokenIssuer) registered(u *User, ttl time.Duration) jwt.RegisteredClaims {
	now := t.now()
	return jwt.RegisteredClaims{
		ID:        uuid.Must(uuid.NewV4()).String(),
		Subject:   u.ID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (t *TokenIssuer) Issue(u *User) (string, error) {
	return t.sign(Claims{Role: u.Role, Purpose: purposeAccess, RegisteredClaims: t.registered(u, t.ttl)}, t.secret)
}

// resetKey binds reset tokens to the current password hash so a token stops
// working once the password changes.
func (t *TokenIssuer) resetKey(passwordHash string) []byte {
	return append(append([]byte{}, t.secret...), passwordHash...)
}

func (t *TokenIssuer) IssueReset(u *User) (string, error) {
	return t.sign(Claims{Purpose: purposeReset, RegisteredClaims: t.registered(u, t.resetTTL)}, t.resetKey(u.PasswordHash))
}

func (t *TokenIssuer) parse(token, purpose string, key func(*Claims) ([]byte, error)) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return key(claims)
	})
	if err != nil || !parsed.Valid || claims.Purpose != purpose || claims.UserID() == uuid.Nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (t *TokenIssuer) Parse(token string) (*Claims, error) {
	return t.parse(token, purposeAccess, func(*Claims) ([]byte, error) { return t.secret, nil })
}

// ParseReset validates a reset token against the password hash looked up
// for its subject.
func (t *TokenIssuer) ParseReset(token string, lookupHash func(id uuid.UUID) (string, error)) (*Claims, error) {
	return t.parse(token, purposeReset, func(c *Claims) ([]byte, error) {
		hash, err := lookupHash(c.UserID())
		if err != nil {
			return nil, err
		}
		return t.resetKey(hash), nil
	})
}

// Denylist remembers revoked token ids until they would have expired anyway.
type Denylist interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type RedisDenylist struct {
	client *redis.Client
}

func NewRedisDenylist(client *redis.Client) *RedisDenylist {
	return &RedisDenylist{client: client}
}

func denylistKey(tokenID string) string {
	return "auth:revoked:" + tokenID
}

func (d *RedisDenylist) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := d.client.Set(ctx, denylistKey(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("denylist: failed to revoke token: %w", err)
	}
	return nil
}

func (d *RedisDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := d.client.Exists(ctx, denylistKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("denylist: failed to check token: %w", err)
	}
	return n > 0, nil
}
