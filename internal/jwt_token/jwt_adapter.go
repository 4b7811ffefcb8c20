package jwttoken

import (
	"github.com/notorious-utopia/egrn/internal/transport/http/middleware"
)

// JWTServiceAdapter bridges the token service to the auth middleware's
// narrower claims shape.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.JWTClaims{
		UserID:   claims.UserID,
		Username: claims.Username,
	}, nil
}
