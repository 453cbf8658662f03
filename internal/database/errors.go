package database

import (
	"errors"

	"gorm.io/gorm"
)

// Repositories report storage outcomes with gorm's sentinel errors, so
// in-memory implementations and the gorm ones are interchangeable.

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func IsDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func IsForeignKey(err error) bool {
	return errors.Is(err, gorm.ErrForeignKeyViolated)
}
