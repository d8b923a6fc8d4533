package repository

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is wrapped by every lookup that matches no row.
	ErrNotFound = errors.New("not found")

	// ErrConflict is wrapped when a write violates a uniqueness or
	// foreign-key constraint.
	ErrConflict = errors.New("conflict")
)

// classify maps SQLite constraint failures onto ErrConflict so callers can
// tell them apart from I/O failures without parsing driver messages.
func classify(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "FOREIGN KEY constraint failed") ||
		strings.Contains(msg, "CHECK constraint failed") {
		return errors.Join(ErrConflict, err)
	}
	return err
}
