// Package auth carries seller identity from marketplace-issued JWTs.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SellerClaims are the claims the marketplace puts in a seller session token.
// Subject is the seller ID.
type SellerClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// JWTManager issues and validates HS256 seller tokens
type JWTManager struct {
	secret []byte
	issuer string
	expiry time.Duration
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(secret, issuer string, expiry time.Duration) (*JWTManager, error) {
	if len(secret) < 32 {
		return nil, errors.New("jwt secret must be at least 32 bytes")
	}
	if issuer == "" {
		return nil, errors.New("jwt issuer is required")
	}
	return &JWTManager{
		secret: []byte(secret),
		issuer: issuer,
		expiry: expiry,
	}, nil
}

// GenerateToken issues a token for sellerID. Used by tooling and tests; the
// marketplace issues production tokens with the same secret.
func (jm *JWTManager) GenerateToken(sellerID, email string) (string, error) {
	now := time.Now()
	claims := SellerClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    jm.issuer,
			Subject:   sellerID,
			ExpiresAt: jwt.NewNumericDate(now.Add(jm.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
		Email: email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(jm.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses tokenString and checks signature, issuer and expiry
func (jm *JWTManager) ValidateToken(tokenString string) (*SellerClaims, error) {
	claims := &SellerClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			return jm.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(jm.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}
