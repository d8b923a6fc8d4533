package repository

import (
	"database/sql"
	"fmt"
	"time"
)

// nullableString converts a *string to a value suitable for SQLite storage.
// Returns nil (SQL NULL) if the pointer is nil.
func nullableString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

// stringPtr returns a pointer for a valid sql.NullString, nil otherwise.
func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// formatTime renders t as stored in the database.
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime parses a stored timestamp, naming the column on failure.
func parseTime(column, s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing %s: %w", column, err)
	}
	return t, nil
}

// nowUTC returns the current UTC time formatted for storage.
func nowUTC() string {
	return formatTime(time.Now())
}
