package service

import (
	"bin-option/internal/custom_err"
	"bin-option/internal/models"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

type TokenValidator interface {
	ValidateToken(tokenString string) (*models.TokenClaims, error)
}

// TokenService проверяет HS256 токены поставщиков котировок
type TokenService struct {
	secret []byte
}

func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret)}
}

func (s *TokenService) ValidateToken(tokenString string) (*models.TokenClaims, error) {
	claims := &models.TokenClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, custom_err.ErrTokenExpired
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, custom_err.ErrTokenNotActive
		}
		return nil, custom_err.ErrInvalidToken
	}

	return claims, nil
}
