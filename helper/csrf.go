package helper

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidCSRF = errors.New("csrf token is missing or invalid")

const csrfTTL = 12 * time.Hour

// IssueCSRFToken signs a fresh page session id. The token is self-contained so
// any instance can verify it without shared session storage.
func IssueCSRFToken() (sessionID, token string, err error) {
	sessionID = uuid.NewString()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid": sessionID,
		"typ": "csrf",
		"exp": time.Now().Add(csrfTTL).Unix(),
	})
	token, err = t.SignedString(jwtSecret())
	return sessionID, token, err
}

// VerifyCSRFToken returns the session id the token was issued for.
func VerifyCSRFToken(token string) (string, error) {
	if token == "" {
		return "", ErrInvalidCSRF
	}
	parsed, err := ParseToken(token)
	if err != nil || !parsed.Valid {
		return "", ErrInvalidCSRF
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || claims["typ"] != "csrf" {
		return "", ErrInvalidCSRF
	}
	sid, _ := claims["sid"].(string)
	if sid == "" {
		return "", ErrInvalidCSRF
	}
	return sid, nil
}
