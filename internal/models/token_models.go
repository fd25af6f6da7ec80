package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims claims bearer-токена шлюза; subject идентифицирует поставщика котировок
type TokenClaims struct {
	jwt.RegisteredClaims
}
