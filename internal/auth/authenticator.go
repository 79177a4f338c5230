package auth

import (
	"errors"
	"strings"
	"time"
)

// ErrUnauthorized is the single externally visible authentication failure.
var ErrUnauthorized = errors.New("unauthorized")

// Reason records why a request failed authentication. It is for logs only.
type Reason int

const (
	ReasonMissingHeader Reason = iota + 1
	ReasonBadScheme
	ReasonExpired
	ReasonMalformed
	ReasonWrongKind
)

func (r Reason) String() string {
	switch r {
	case ReasonMissingHeader:
		return "missing authorization header"
	case ReasonBadScheme:
		return "invalid authorization header format"
	case ReasonExpired:
		return "token expired"
	case ReasonMalformed:
		return "token malformed"
	case ReasonWrongKind:
		return "wrong token kind"
	default:
		return "unknown"
	}
}

// AuthError satisfies errors.Is(err, ErrUnauthorized) whatever its Reason.
type AuthError struct {
	Reason Reason
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return "unauthorized: " + e.Reason.String() + ": " + e.Err.Error()
	}
	return "unauthorized: " + e.Reason.String()
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

func (e *AuthError) Is(target error) bool {
	return target == ErrUnauthorized
}

// Authenticator resolves the caller's identity from a bearer access token.
type Authenticator struct {
	tokens *TokenCodec
}

func NewAuthenticator(tokens *TokenCodec) *Authenticator {
	return &Authenticator{tokens: tokens}
}

// Authenticate parses an Authorization header value of the form
// "Bearer <token>".
func (a *Authenticator) Authenticate(header string, now time.Time) (Subject, error) {
	if strings.TrimSpace(header) == "" {
		return Subject{}, &AuthError{Reason: ReasonMissingHeader}
	}

	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return Subject{}, &AuthError{Reason: ReasonBadScheme}
	}

	return a.AuthenticateToken(parts[1], now)
}

func (a *Authenticator) AuthenticateToken(token string, now time.Time) (Subject, error) {
	if token == "" {
		return Subject{}, &AuthError{Reason: ReasonMissingHeader}
	}

	claims, err := a.tokens.Verify(token, AccessToken, now)
	if err != nil {
		return Subject{}, &AuthError{Reason: reasonFor(err), Err: err}
	}
	return claims.Identity(), nil
}

func reasonFor(err error) Reason {
	switch {
	case errors.Is(err, ErrExpiredToken):
		return ReasonExpired
	case errors.Is(err, ErrWrongKind):
		return ReasonWrongKind
	default:
		return ReasonMalformed
	}
}
