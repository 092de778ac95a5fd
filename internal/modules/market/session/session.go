// Package session issues and verifies the per-player session token.
// The token is the only identity in the system: it binds a player ID to
// the room it was created in. There are no accounts or passwords.
package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Abinaav-K876/market-crash/internal/modules/market/domain"
)

// Claims carried by a session token
type Claims struct {
	PlayerID string `json:"player_id"`
	RoomID   string `json:"room_id"`
	jwt.RegisteredClaims
}

// Manager signs and verifies session tokens
type Manager struct {
	secret []byte
	ttl    time.Duration
}

// NewManager creates a session manager
func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Issue creates a signed token for a player in a room
func (m *Manager) Issue(playerID, roomID string) (string, error) {
	now := time.Now()
	claims := Claims{
		PlayerID: playerID,
		RoomID:   roomID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Verify parses a token and returns its claims. Any parse, signature or
// expiry failure maps to ErrSessionInvalid: the caller must re-join.
func (m *Manager) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, domain.ErrSessionInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.PlayerID == "" || claims.RoomID == "" {
		return nil, domain.ErrSessionInvalid
	}
	return claims, nil
}
