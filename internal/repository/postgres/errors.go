package postgres

import (
	"errors"

	"github.com/dom/group-decide/internal/repository"
	"gorm.io/gorm"
)

// translateError maps gorm errors onto the repository error set. Anything
// else is returned unchanged.
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repository.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return repository.ErrDuplicate
	}
	return err
}
