package repository

import (
	"log/slog"

	"feasibility-backend/internal/infra"
	"feasibility-backend/internal/pkg/pgconv"
)

// wrap classifies a pgx error and logs it as a repository failure.
func wrap(logger *slog.Logger, msg string, err error) error {
	kind := infra.KindDBFailure
	switch {
	case pgconv.IsNoRows(err):
		kind = infra.KindNotFound
	case pgconv.IsUniqueViolation(err):
		kind = infra.KindDuplicateKey
	case pgconv.IsForeignKeyViolation(err):
		kind = infra.KindForeignKeyViolated
	}
	return infra.WrapRepoErr(logger, kind, msg, err)
}
