package gamedb

import (
	"errors"

	"github.com/uptrace/bun/driver/pgdriver"
)

var (
	// ErrNotFound means the referenced row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists means a uniqueness constraint rejected the insert.
	ErrAlreadyExists = errors.New("record already exists")
)

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == pgUniqueViolation
	}
	return false
}
