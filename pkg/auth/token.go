package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ClaimToken proves that a display name claimed a slot in a game, so a
// reconnecting client can be rebound without re-running the claim rules.
// This is not an authentication system; there are no accounts behind it.
type ClaimToken struct {
	GameID string `json:"game_id"`
	Slot   int    `json:"slot"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

func (tm *TokenManager) Issue(gameID string, slot int, name string) (string, error) {
	now := time.Now()
	claims := ClaimToken{
		GameID: gameID,
		Slot:   slot,
		Name:   name,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
}

func (tm *TokenManager) Parse(tokenString string) (*ClaimToken, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ClaimToken{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*ClaimToken)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid claim token")
	}
	return claims, nil
}
