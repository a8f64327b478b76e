package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ActorClaims are the JWT claims the identity provider issues for a player.
// The engine trusts these; credential checks happened upstream.
type ActorClaims struct {
	UserID uint64 `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// IssueActorToken signs a token for the given actor.
func IssueActorToken(secret string, userID uint64, role string, expiry time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("api: empty jwt secret")
	}
	claims := ActorClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwt.NewNumericDate(time.Now().UTC().Add(expiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseActorToken validates a token and returns its claims.
func ParseActorToken(secret, raw string) (*ActorClaims, error) {
	claims := &ActorClaims{}
	token, errParse := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if errParse != nil {
		return nil, errParse
	}
	if !token.Valid || claims.UserID == 0 {
		return nil, errors.New("api: invalid token claims")
	}
	return claims, nil
}
