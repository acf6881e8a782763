package crypto

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// ErrInvalidToken is returned when a bearer token cannot be verified.
var ErrInvalidToken = errors.New("invalid token")

// Claims represents the claims embedded in access tokens issued by the
// identity service. The vault never issues tokens itself; it only verifies
// them against the shared signing key.
type Claims struct {
	UserID         bson.ObjectID `json:"userId"`
	OrganizationID bson.ObjectID `json:"organizationId"`
	Email          string        `json:"email"`
	jwt.RegisteredClaims
}

// TokenVerifier defines the interface for verifying bearer tokens.
type TokenVerifier interface {
	Verify(tokenString string) (*Claims, error)
}

// JWTVerifier is a concrete implementation of TokenVerifier using HMAC-signed JWTs.
type JWTVerifier struct {
	accessSecret []byte
}

// NewJWTVerifier creates a new JWTVerifier with the identity service's
// access-token signing key.
func NewJWTVerifier(accessSecret string) *JWTVerifier {
	return &JWTVerifier{accessSecret: []byte(accessSecret)}
}

// Verify parses and validates a signed access token and returns its claims.
func (v *JWTVerifier) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.accessSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID.IsZero() {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
