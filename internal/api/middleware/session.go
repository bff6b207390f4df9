package middleware

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the payload of a session token. Subject is the user id.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// ValidateSession parses an HS256 session token and returns its subject.
func ValidateSession(tokenString string, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("no session secret configured")
	}
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid session")
	}
	if claims.Subject == "" {
		return "", errors.New("session has no subject")
	}
	return claims.Subject, nil
}

// NewSessionToken signs a session token for userID.
func NewSessionToken(secret []byte, userID string, expiry time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("no session secret configured")
	}
	now := time.Now().UTC()
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
