// Package auth issues and verifies session tokens and resolves the caller
// identity of an HTTP request.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Tomlord1122/todo-server/internal/domain"
)

// CookieName is the cookie that carries the session token.
const CookieName = "session"

// Claims is the JWT payload of a session token. The subject is the user id.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Sessions signs and verifies HS256 session tokens.
type Sessions struct {
	secret       []byte
	ttl          time.Duration
	secureCookie bool
	now          func() time.Time
}

func NewSessions(secret string, ttl time.Duration, secureCookie bool) *Sessions {
	return &Sessions{
		secret:       []byte(secret),
		ttl:          ttl,
		secureCookie: secureCookie,
		now:          time.Now,
	}
}

// Issue returns a signed token for user.
func (s *Sessions) Issue(user *domain.User) (string, error) {
	now := s.now()
	claims := &Claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Verify parses tokenString and returns the identity it carries.
func (s *Sessions) Verify(tokenString string) (domain.Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return domain.Identity{}, err
	}
	if !token.Valid || claims.Subject == "" || claims.Email == "" {
		return domain.Identity{}, errors.New("invalid session claims")
	}
	return domain.Identity{UserID: claims.Subject, Email: claims.Email}, nil
}

// Identify resolves the caller of r from the session cookie, falling back to
// an Authorization bearer token when the cookie is missing or does not
// verify. It never touches the store.
func (s *Sessions) Identify(r *http.Request) (domain.Identity, bool) {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		if id, err := s.Verify(c.Value); err == nil {
			return id, true
		}
	}
	if token := bearerToken(r); token != "" {
		if id, err := s.Verify(token); err == nil {
			return id, true
		}
	}
	return domain.Identity{}, false
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(h[len("Bearer "):])
}

// SetCookie stores token in the session cookie.
func (s *Sessions) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func (s *Sessions) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
