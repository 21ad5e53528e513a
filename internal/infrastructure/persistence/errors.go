package persistence

import (
	"errors"

	"github.com/rotem1230/gal1/internal/domain/shared"
	"gorm.io/gorm"
)

// translateError maps GORM errors onto domain error kinds
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}
	return shared.NewPersistenceError(err)
}
