package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carried inside a session token: the standard registered claims plus
// the owning username.
type Claims struct {
	jwt.RegisteredClaims
	User string
}

// GenerateToken mints a signed HS256 token for user. The session table stays
// the authority on validity; the signature only makes tokens unforgeable and
// collision-free across logins.
func GenerateToken(user string, secret []byte, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ID:        uuid.NewString(),
		},
		User: user,
	})
	return token.SignedString(secret)
}

// UserFromToken parses a token and returns the username claim. Used by tests
// and diagnostics; request handling resolves tokens through the session table.
func UserFromToken(tokenString string, secret []byte) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", jwt.ErrTokenUnverifiable
	}
	return claims.User, nil
}
