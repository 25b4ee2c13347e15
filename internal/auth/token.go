package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Roles carried by table tokens.
const (
	RoleHost   = "host"
	RoleViewer = "viewer"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrWrongTable   = errors.New("token was issued for another table")
)

// Claims identify who may drive or watch a table.
type Claims struct {
	Table string `json:"table"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// IsHost reports whether the holder may send shots and contacts.
func (c *Claims) IsHost() bool { return c.Role == RoleHost }

// IssueTableToken signs a token for the table with the given role.
func IssueTableToken(secret, table, role string, ttl time.Duration) (string, error) {
	if role != RoleHost && role != RoleViewer {
		return "", fmt.Errorf("unknown role %q", role)
	}
	now := time.Now()
	claims := Claims{
		Table: table,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   table,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseTableToken validates a signed token and checks it belongs to table.
func ParseTableToken(secret, table, raw string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Table != table {
		return nil, ErrWrongTable
	}
	return claims, nil
}
