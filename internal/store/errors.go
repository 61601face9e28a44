package store

import "strings"

// Constraint failures are reported by SQLite as plain error text.

// IsUniqueViolation reports whether err is a UNIQUE constraint failure.
func IsUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsUniqueViolationOn reports whether err is a UNIQUE failure on table.column.
func IsUniqueViolationOn(err error, table, column string) bool {
	return IsUniqueViolation(err) && strings.Contains(err.Error(), table+"."+column)
}

// IsForeignKeyViolation reports whether err is a FOREIGN KEY constraint failure.
func IsForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
