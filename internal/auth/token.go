package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	DefaultAccessTTL  = 30 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
	DefaultIssuer     = "todo-api"
)

var (
	ErrExpiredToken   = errors.New("token is expired")
	ErrMalformedToken = errors.New("token is malformed")
	ErrWrongKind      = errors.New("token kind mismatch")
	ErrMissingSecret  = errors.New("token signing secret is required")
)

type TokenKind string

const (
	AccessToken  TokenKind = "access"
	RefreshToken TokenKind = "refresh"
)

// Subject is the identity a token vouches for.
type Subject struct {
	Email  string
	UserID uuid.UUID
}

// Claims is the payload of both token kinds. The JWT "sub" carries the email.
type Claims struct {
	Kind   TokenKind `json:"typ"`
	UserID string    `json:"uid,omitempty"`
	jwt.RegisteredClaims
}

type TokenConfig struct {
	Secret     []byte
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// TokenCodec mints and verifies HS256 tokens. It holds no mutable state and
// is safe for concurrent use.
type TokenCodec struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenCodec(cfg TokenConfig) (*TokenCodec, error) {
	if len(cfg.Secret) == 0 {
		return nil, ErrMissingSecret
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}

	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)

	return &TokenCodec{
		secret:     secret,
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
	}, nil
}

func (c *TokenCodec) AccessTTL() time.Duration {
	return c.accessTTL
}

func (c *TokenCodec) RefreshTTL() time.Duration {
	return c.refreshTTL
}

func (c *TokenCodec) IssueAccess(subject Subject, now time.Time) (string, error) {
	return c.issue(subject, AccessToken, c.accessTTL, now)
}

func (c *TokenCodec) IssueRefresh(subject Subject, now time.Time) (string, error) {
	return c.issue(subject, RefreshToken, c.refreshTTL, now)
}

func (c *TokenCodec) issue(subject Subject, kind TokenKind, ttl time.Duration, now time.Time) (string, error) {
	if subject.Email == "" {
		return "", fmt.Errorf("issue %s token: empty subject", kind)
	}

	now = now.Truncate(time.Second)
	claims := &Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   subject.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	if subject.UserID != uuid.Nil {
		claims.UserID = subject.UserID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, nil
}

// Verify checks signature, issuer, expiry (against now, no leeway) and kind.
func (c *TokenCodec) Verify(tokenString string, expected TokenKind, now time.Time) (*Claims, error) {
	now = now.Truncate(time.Second)

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrMalformedToken
	}
	if claims.UserID != "" {
		if _, err := uuid.Parse(claims.UserID); err != nil {
			return nil, fmt.Errorf("%w: invalid uid claim", ErrMalformedToken)
		}
	}
	if claims.Kind != expected {
		return nil, ErrWrongKind
	}

	return claims, nil
}

// Identity returns the subject carried by verified claims.
func (c *Claims) Identity() Subject {
	id, _ := uuid.Parse(c.UserID)
	return Subject{Email: c.Subject, UserID: id}
}
