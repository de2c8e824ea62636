package services

import (
	"fmt"
	"time"

	"wavelength-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const sessionExpDays = 30

// AuthService verifies identity tokens from the external auth provider and
// issues the backend's own session tokens. The authentication protocol
// itself (sign-in UI, provider handshake) lives outside this service.
type AuthService struct {
	sessionSecret  string
	providerSecret string
}

// NewAuthService creates a new auth service
func NewAuthService(sessionSecret, providerSecret string) *AuthService {
	return &AuthService{
		sessionSecret:  sessionSecret,
		providerSecret: providerSecret,
	}
}

// VerifyIdentityToken validates a provider-signed identity token and
// extracts the identity claims. Missing claims are returned as empty
// strings; completeness is enforced by profile bootstrap, not here.
func (s *AuthService) VerifyIdentityToken(tokenString string) (*models.Identity, error) {
	claims, err := s.parseHS256(tokenString, s.providerSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to verify identity token: %w", err)
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, fmt.Errorf("identity token missing sub claim")
	}

	identity := &models.Identity{Subject: sub}
	if name, ok := claims["name"].(string); ok {
		identity.DisplayName = name
	}
	if email, ok := claims["email"].(string); ok {
		identity.Email = email
	}
	if picture, ok := claims["picture"].(string); ok {
		identity.AvatarURL = picture
	}
	return identity, nil
}

// GenerateSessionToken generates a session JWT for a user
func (s *AuthService) GenerateSessionToken(userID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().AddDate(0, 0, sessionExpDays).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.sessionSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateSessionToken validates a session JWT and returns the user ID
func (s *AuthService) ValidateSessionToken(tokenString string) (string, error) {
	claims, err := s.parseHS256(tokenString, s.sessionSecret)
	if err != nil {
		return "", err
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return "", fmt.Errorf("user_id not found in token")
	}

	return userID, nil
}

func (s *AuthService) parseHS256(tokenString, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}
