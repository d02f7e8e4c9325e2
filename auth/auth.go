// Package auth issues and verifies the signed role cookie. There are only
// two identities, one per role, each unlocked by its own password.
package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrInvalidToken    = errors.New("invalid token")
)

// Claims is the payload of the role cookie.
type Claims struct {
	Role     string `json:"role"`
	Unlocked bool   `json:"unlocked"`
	jwt.RegisteredClaims
}

type Service struct {
	secret      []byte
	ttl         time.Duration
	cookieName  string
	secure      bool
	hePassword  string
	shePassword string
}

func NewService(secret string, ttl time.Duration, cookieName string, secure bool, hePassword, shePassword string) *Service {
	return &Service{
		secret:      []byte(secret),
		ttl:         ttl,
		cookieName:  cookieName,
		secure:      secure,
		hePassword:  hePassword,
		shePassword: shePassword,
	}
}

// Unlock checks the password and returns the role it belongs to.
func (s *Service) Unlock(password string) (string, error) {
	switch password {
	case s.hePassword:
		return "he", nil
	case s.shePassword:
		return "she", nil
	default:
		return "", ErrInvalidPassword
	}
}

// Issue signs a token binding the role for the configured TTL.
func (s *Service) Issue(role string) (string, error) {
	now := time.Now()
	claims := Claims{
		Role:     role,
		Unlocked: true,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify parses and validates a token string.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Cookie wraps the token in the session cookie.
func (s *Service) Cookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     s.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearCookie expires the session cookie.
func (s *Service) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// RoleFromRequest extracts the verified role from the request cookie.
// Returns empty string when the cookie is missing or invalid.
func (s *Service) RoleFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(s.cookieName)
	if err != nil {
		return ""
	}
	claims, err := s.Verify(cookie.Value)
	if err != nil || !claims.Unlocked {
		return ""
	}
	return claims.Role
}
