package repository

import (
	"errors"
	"fmt"

	"github.com/shinyyama/campus-market/internal/apperr"
	"gorm.io/gorm"
)

var (
	ErrDBNotReady = fmt.Errorf("%w: database not initialized", apperr.ErrDependencyUnavailable)
	// ErrDuplicate is returned when a unique index rejects an insert.
	ErrDuplicate = errors.New("duplicate record")
)

// translate maps driver errors onto the shared taxonomy.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	default:
		return apperr.Dependency(op, err)
	}
}
