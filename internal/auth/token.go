package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/umar/horizon-chat/internal/models"
)

const issuer = "horizon"

var ErrInvalidToken = errors.New("invalid or expired token")

type Claims struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	jwt.RegisteredClaims
}

func GenerateToken(viewer models.Viewer, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:      viewer.ID,
		DisplayName: viewer.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   viewer.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func ValidateToken(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing user id", ErrInvalidToken)
	}
	return claims, nil
}

// ResolveViewer establishes the session identity. Without a token the
// session is anonymous and gets a fresh id.
func ResolveViewer(tokenString, secret string) (models.Viewer, error) {
	if tokenString == "" {
		return models.Viewer{
			ID:          "anon-" + uuid.NewString(),
			DisplayName: "Anonymous",
			Anonymous:   true,
		}, nil
	}
	claims, err := ValidateToken(tokenString, secret)
	if err != nil {
		return models.Viewer{}, err
	}
	name := claims.DisplayName
	if name == "" {
		name = claims.UserID
	}
	return models.Viewer{ID: claims.UserID, DisplayName: name}, nil
}
