// Package auth issues and verifies the application's bearer tokens.
package auth

import (
	"errors"
	"fmt"
	"time"

	"taskboard/internal/domain/users"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("auth: invalid or expired token")
	ErrNoSecret     = errors.New("auth: jwt secret not configured")
)

type Claims struct {
	UserID string
	Email  string
	Role   string
}

type Issuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Issuer{key: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs an HS256 token for u.
func (i *Issuer) Issue(u users.User) (string, error) {
	if len(i.key) == 0 {
		return "", ErrNoSecret
	}
	now := i.now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":     u.Email,
		"user_id": u.ID,
		"email":   u.Email,
		"role":    u.Role,
		"iat":     now.Unix(),
		"exp":     now.Add(i.ttl).Unix(),
	})
	return t.SignedString(i.key)
}

func (i *Issuer) Parse(tokenString string) (*Claims, error) {
	if len(i.key) == 0 {
		return nil, ErrNoSecret
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.key, nil
	}, jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	out := &Claims{}
	out.UserID, _ = claims["user_id"].(string)
	out.Email, _ = claims["email"].(string)
	out.Role, _ = claims["role"].(string)
	if out.UserID == "" {
		return nil, ErrInvalidToken
	}
	return out, nil
}
