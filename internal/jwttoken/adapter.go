package jwttoken

import (
	"attestry/internal/platform/middleware"
	"attestry/pkg/domain"
	dErrors "attestry/pkg/domain-errors"
)

// ServiceAdapter bridges the token service to the auth middleware's
// validator interface. The principal claim is re-parsed here so a token
// with a damaged address never reaches handlers.
type ServiceAdapter struct {
	service *Service
}

// NewServiceAdapter wraps service for middleware use.
func NewServiceAdapter(service *Service) *ServiceAdapter {
	return &ServiceAdapter{service: service}
}

// ValidateToken implements middleware.TokenValidator.
func (a *ServiceAdapter) ValidateToken(tokenString string) (*middleware.TokenClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	principal, err := domain.ParsePrincipal(claims.Principal)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token principal is invalid")
	}
	return &middleware.TokenClaims{
		Principal: principal,
		TokenID:   claims.ID,
	}, nil
}
