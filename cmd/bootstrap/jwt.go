package bootstrap

import (
	"feasibility-backend/internal/domain/user"
	"feasibility-backend/internal/pkg/config"
	"feasibility-backend/internal/pkg/jwt"

	"go.uber.org/fx"
)

var JWTModule = fx.Module("jwt",
	fx.Provide(
		NewJWTService,
		NewRoleSet,
	),
)

func NewJWTService(cfg config.Config) *jwt.Service {
	return jwt.NewService(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL)
}

func NewRoleSet(cfg config.Config) user.RoleSet {
	return user.RoleSet{
		User:           user.Role(cfg.JWT.UserRole),
		PowerUser:      user.Role(cfg.JWT.PowerUserRole),
		DetailedResult: user.Role(cfg.JWT.DetailedResultRole),
	}
}
