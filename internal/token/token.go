package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

// Verification failure reasons. Callers surface all of them as a uniform
// "not authenticated" response; the distinction exists for logging only.
var (
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenSignatureInvalid = errors.New("token signature invalid")
)

// Identity is the verified subject carried by a token. It is immutable
// once embedded; later edits to the account do not retroactively
// invalidate tokens already issued.
type Identity struct {
	Id          int    `json:"id"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

type sessionClaims struct {
	UserId      int    `json:"user_id"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	jwt.StandardClaims
}

// Service issues and verifies signed, self-contained session tokens.
// It holds no per-session state.
type Service struct {
	signingKey []byte
	ttl        time.Duration
}

func NewService(signingKey []byte, ttl time.Duration) *Service {
	return &Service{
		signingKey: signingKey,
		ttl:        ttl,
	}
}

// Issue signs a token embedding ident, valid for the service's TTL.
func (s *Service) Issue(ident Identity) (string, error) {
	now := time.Now()
	claims := &sessionClaims{
		UserId:      ident.Id,
		DisplayName: ident.DisplayName,
		Role:        ident.Role,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.ttl).Unix(),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
}

// Verify parses and validates tokenString and returns the embedded
// identity. Failures are one of ErrTokenExpired, ErrTokenMalformed or
// ErrTokenSignatureInvalid; a tampered payload is reported as a
// signature failure, never as expiry.
func (s *Service) Verify(tokenString string) (Identity, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &sessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil {
		return Identity{}, classifyValidationError(err)
	}

	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid {
		return Identity{}, ErrTokenMalformed
	}

	return Identity{
		Id:          claims.UserId,
		DisplayName: claims.DisplayName,
		Role:        claims.Role,
	}, nil
}

func classifyValidationError(err error) error {
	var vErr *jwt.ValidationError
	if !errors.As(err, &vErr) {
		return ErrTokenMalformed
	}

	// Signature takes precedence: a tampered payload flips both the
	// signature and, potentially, the decoded expiry.
	switch {
	case vErr.Errors&jwt.ValidationErrorSignatureInvalid != 0:
		return ErrTokenSignatureInvalid
	case vErr.Errors&jwt.ValidationErrorExpired != 0:
		return ErrTokenExpired
	default:
		return ErrTokenMalformed
	}
}
