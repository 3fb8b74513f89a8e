package usecase

import (
	"feasibility-backend/internal/domain/user"
	"feasibility-backend/internal/pkg/errs"
	"feasibility-backend/internal/pkg/jwt"
)

// TokenValidator provides token validation for middleware
type TokenValidator interface {
	ValidateToken(tokenString string) (*user.Principal, error)
}

type tokenValidatorImpl struct {
	jwtService *jwt.Service
}

func NewTokenValidator(jwtService *jwt.Service) TokenValidator {
	return &tokenValidatorImpl{
		jwtService: jwtService,
	}
}

func (t *tokenValidatorImpl) ValidateToken(tokenString string) (*user.Principal, error) {
	claims, err := t.jwtService.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	id, err := user.NewID(claims.UserID())
	if err != nil {
		return nil, errs.Wrap(err, "token carries no user")
	}

	roles := make([]user.Role, 0, len(claims.RealmAccess.Roles))
	for _, r := range claims.RealmAccess.Roles {
		role, err := user.NewRole(r)
		if err != nil {
			continue
		}
		roles = append(roles, role)
	}

	return user.NewPrincipal(id, roles), nil
}
