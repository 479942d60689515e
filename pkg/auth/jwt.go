package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iamasit07/connect4-engine/internal/config"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims identifies an API client.
type Claims struct {
	ClientID   string `json:"client_id"`
	ClientName string `json:"client_name"`
	jwt.RegisteredClaims
}

// GenerateAccessToken signs a token for the client with the configured
// secret and lifetime.
func GenerateAccessToken(clientID, clientName string) (string, time.Time, error) {
	secret := config.AppConfig.JWTSecret
	expiresAt := time.Now().Add(config.AppConfig.TokenTTL)

	claims := &Claims{
		ClientID:   clientID,
		ClientName: clientName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   clientID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	return signed, expiresAt, err
}

// ValidateAccessToken validates a JWT access token and returns the claims
func ValidateAccessToken(tokenString string) (*Claims, error) {
	secret := config.AppConfig.JWTSecret

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidToken
}
