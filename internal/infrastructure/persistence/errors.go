package persistence

import (
	"errors"

	"github.com/sklad/pos/internal/domain/shared"
	"gorm.io/gorm"
)

// notFound maps gorm's record-not-found to a domain NOT_FOUND naming the
// entity and key; other errors pass through unchanged
func notFound(err error, entity, key string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.NewNotFoundError(entity, key)
	}
	return err
}

// isDuplicate reports a unique constraint violation. It relies on
// gorm.Config.TranslateError being enabled.
func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
