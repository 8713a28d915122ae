package repository

import (
	"errors"
	"strings"

	"hospital-appointments/internal/apperr"

	"gorm.io/gorm"
)

// translate maps driver errors onto the application's error kinds
func translate(err error, entity string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFound(entity)
	case isDuplicateKey(err):
		return apperr.Wrap(apperr.KindDuplicateKey, entity+" already exists", err)
	default:
		return err
	}
}

// isDuplicateKey reports unique index violations. TranslateError covers
// MySQL; the message checks cover dialects without an error translator.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint failed")
}

// isForeignKeyViolation reports a write that referenced a missing parent row
func isForeignKeyViolation(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "FOREIGN KEY constraint failed") || strings.Contains(msg, "a foreign key constraint fails")
}
